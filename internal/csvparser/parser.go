// =============================================================================
// Sport Passport Converter - Delimited File Loader
// =============================================================================
//
// This module reads delimited text exports (CSV, semicolon, tab, pipe) into a
// raw grid of string cells. It does not look for the header row or fix
// anything: title blocks, footers, and rows with the wrong number of cells
// are all passed through for the row detector and repairer to deal with.
//
// FEATURES:
//   - Configurable delimiter (see config.ParseDelimiter)
//   - Encodings: utf-8 (with UTF-8 or UTF-16 byte-order marks honoured),
//     utf-16, latin1, windows-1252
//   - A utf-8 file that is not valid UTF-8 is re-read as windows-1252, which
//     is what spreadsheet tools on Windows usually write
//   - Quote-aware parsing with lazy quotes and a variable number of fields
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/sport-passport-converter/internal/config"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData is the raw grid read from a delimited file.
type CSVData struct {
	// Rows are the records in file order. Rows may have different lengths.
	Rows [][]string

	// SourceFile is the path the grid was read from, if any.
	SourceFile string

	// Encoding is the encoding actually used to decode the file.
	Encoding string

	// RowCount is len(Rows).
	RowCount int

	// MaxColumns is the length of the longest row.
	MaxColumns int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a delimited file into a raw grid.
//
// PARAMETERS:
//   - filePath: The path to the file.
//   - settings: Encoding and delimiter settings.
//
// RETURNS:
//   - The parsed grid.
//   - An error if the file cannot be read, decoded, or parsed.
func Parse(filePath string, settings config.InputSettings) (*CSVData, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	csvData, err := ParseBytes(data, settings)
	if err != nil {
		return nil, err
	}
	csvData.SourceFile = filePath
	return csvData, nil
}

// ParseBytes parses an in-memory delimited file.
func ParseBytes(data []byte, settings config.InputSettings) (*CSVData, error) {
	decoded, encName, err := decode(data, settings.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file: %w", err)
	}

	csvReader := csv.NewReader(bytes.NewReader(decoded))
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	var rows [][]string
	maxCols := 0
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rows = append(rows, record)
		if len(record) > maxCols {
			maxCols = len(record)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	return &CSVData{
		Rows:       rows,
		Encoding:   encName,
		RowCount:   len(rows),
		MaxColumns: maxCols,
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.InputSettings) error {
	comma, err := config.ParseDelimiter(settings.Delimiter)
	if err != nil {
		return err
	}
	reader.Comma = comma

	// Rows with stray delimiters are expected; the repairer handles them.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false
	return nil
}

// =============================================================================
// ENCODING
// =============================================================================

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decode converts data to UTF-8 and reports the encoding used.
func decode(data []byte, name string) ([]byte, string, error) {
	switch normalizeEncodingName(name) {
	case "", "utf8":
		switch {
		case bytes.HasPrefix(data, bomUTF8):
			return data[len(bomUTF8):], "utf-8", nil
		case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
			out, err := transformAll(data, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM))
			return out, "utf-16", err
		case utf8.Valid(data):
			return data, "utf-8", nil
		}
		out, err := transformAll(data, charmap.Windows1252)
		return out, "windows-1252", err
	case "utf16":
		out, err := transformAll(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))
		return out, "utf-16", err
	case "latin1", "iso88591":
		out, err := transformAll(data, charmap.ISO8859_1)
		return out, "latin1", err
	case "windows1252", "cp1252":
		out, err := transformAll(data, charmap.Windows1252)
		return out, "windows-1252", err
	}
	return nil, "", fmt.Errorf("unsupported encoding %q", name)
}

func normalizeEncodingName(name string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}

func transformAll(data []byte, enc encoding.Encoding) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return nil, err
	}
	return out, nil
}

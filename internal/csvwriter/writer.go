// =============================================================================
// Sport Passport Converter - CSV Writer Module
// =============================================================================
//
// This module writes the converted rows in the format the Sport Passport
// import expects:
//
//   "Sport Passport ID","First Name*","Surname*",...,"CourseID"\r\n
//   "","John","Smith",...,"101"\r\n
//
//   - every field is double-quoted, including empty ones
//   - embedded double quotes are doubled
//   - CRLF line endings
//   - UTF-8 with no byte-order mark
//
// encoding/csv only quotes fields that need it, so the quoting is done here.
//
// =============================================================================

package csvwriter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// OUTPUT OPTIONS
// =============================================================================

// Options controls the output format.
type Options struct {
	// Delimiter separates fields. Default: ','
	Delimiter rune

	// LineEnding terminates every record. Default: "\r\n"
	LineEnding string

	// IncludeBOM prefixes the file with a UTF-8 byte-order mark.
	// Default: false
	IncludeBOM bool
}

// DefaultOptions returns the Sport Passport import format.
func DefaultOptions() Options {
	return Options{
		Delimiter:  ',',
		LineEnding: "\r\n",
	}
}

// =============================================================================
// CSV GENERATION FUNCTIONS
// =============================================================================

// Generate renders the header and rows as a quote-all CSV document.
func Generate(headers []string, rows [][]string) ([]byte, error) {
	return GenerateWithOptions(headers, rows, DefaultOptions())
}

// GenerateWithOptions renders the header and rows with custom options.
//
// PARAMETERS:
//   - headers: The header record.
//   - rows: The data records. Each must have len(headers) fields.
//   - options: Delimiter, line ending, and BOM settings.
//
// RETURNS:
//   - The document bytes.
//   - An error if a row has the wrong width or the options are invalid.
func GenerateWithOptions(headers []string, rows [][]string, options Options) ([]byte, error) {
	var buffer bytes.Buffer
	if err := Write(&buffer, headers, rows, options); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Write streams the document to w.
func Write(w io.Writer, headers []string, rows [][]string, options Options) error {
	if options.Delimiter == 0 {
		options.Delimiter = ','
	}
	if options.LineEnding == "" {
		options.LineEnding = "\r\n"
	}
	if options.Delimiter == '"' || options.Delimiter == '\r' || options.Delimiter == '\n' || !utf8.ValidRune(options.Delimiter) {
		return fmt.Errorf("invalid delimiter %q", options.Delimiter)
	}

	var buffer bytes.Buffer
	if options.IncludeBOM {
		buffer.Write([]byte{0xEF, 0xBB, 0xBF})
	}

	writeRecord(&buffer, headers, options)
	for i, row := range rows {
		if len(row) != len(headers) {
			return fmt.Errorf("row %d has %d fields, want %d", i+1, len(row), len(headers))
		}
		writeRecord(&buffer, row, options)
	}

	if _, err := w.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// WriteFile writes the document to path. The file is written to a
// temporary name in the same directory and renamed into place, so a failed
// run never leaves a partial file behind.
func WriteFile(path string, headers []string, rows [][]string) error {
	data, err := Generate(headers, rows)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}
	return nil
}

// writeRecord writes one quoted record.
func writeRecord(buffer *bytes.Buffer, fields []string, options Options) {
	for i, field := range fields {
		if i > 0 {
			buffer.WriteRune(options.Delimiter)
		}
		buffer.WriteString(quoteField(field))
	}
	buffer.WriteString(options.LineEnding)
}

// quoteField wraps a value in double quotes, doubling embedded quotes.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

package csvparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/sport-passport-converter/internal/config"
)

func settings(enc, delim string) config.InputSettings {
	return config.InputSettings{Encoding: enc, Delimiter: delim}
}

func TestParseBytes(t *testing.T) {
	data := []byte("First Name*,Surname*,MedicalConditions,Address1\n" +
		"John,Smith,Asthma, hay fever,12 High Street\n" +
		"\"Jane\",\"Doe\",\"Nut allergy, mild\",\n")
	got, err := ParseBytes(data, settings("utf-8", "comma"))
	if err != nil {
		t.Fatal(err)
	}
	if got.RowCount != 3 || got.MaxColumns != 5 || got.Encoding != "utf-8" {
		t.Fatalf("got rows=%d cols=%d enc=%s; want 3,5,utf-8", got.RowCount, got.MaxColumns, got.Encoding)
	}
	if len(got.Rows[1]) != 5 || got.Rows[1][3] != "hay fever" {
		t.Errorf("split row got=%q", got.Rows[1])
	}
	if len(got.Rows[2]) != 4 || got.Rows[2][2] != "Nut allergy, mild" {
		t.Errorf("quoted row got=%q", got.Rows[2])
	}
}

func TestParseBytesEncodings(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		enc     string
		want    string
		wantEnc string
	}{
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Zoë;Brontë\n")...), "utf-8", "Zoë", "utf-8"},
		{"utf-16le bom", []byte{0xFF, 0xFE, 'Z', 0, 'o', 0, 0xEB, 0, ';', 0, 'B', 0, '\n', 0}, "utf-8", "Zoë", "utf-16"},
		{"windows-1252 fallback", []byte("Zo\xeb;Bront\xeb\n"), "utf-8", "Zoë", "windows-1252"},
		{"latin1", []byte("Zo\xeb;Bront\xeb\n"), "latin1", "Zoë", "latin1"},
		{"cp1252 name", []byte("Zo\xeb;B\n"), "Windows-1252", "Zoë", "windows-1252"},
	}
	for _, tt := range tests {
		got, err := ParseBytes(tt.data, settings(tt.enc, "semicolon"))
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got.Rows[0][0] != tt.want || got.Encoding != tt.wantEnc {
			t.Errorf("%s: got=%q,%s; want %q,%s", tt.name, got.Rows[0][0], got.Encoding, tt.want, tt.wantEnc)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := ParseBytes([]byte(""), settings("utf-8", "comma")); err == nil {
		t.Error("empty file: expected an error")
	}
	if _, err := ParseBytes([]byte("a,b\n"), settings("ebcdic", "comma")); err == nil {
		t.Error("unknown encoding: expected an error")
	}
	if _, err := Parse(filepath.Join(t.TempDir(), "missing.csv"), settings("", "")); err == nil {
		t.Error("missing file: expected an error")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pupils.csv")
	if err := os.WriteFile(path, []byte("a\tb\r\n1\t2\r\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Parse(path, settings("", "tab"))
	if err != nil {
		t.Fatal(err)
	}
	if got.SourceFile != path || got.RowCount != 2 || got.Rows[1][1] != "2" {
		t.Errorf("got=%+v", got)
	}
}

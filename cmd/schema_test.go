package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ginjaninja78/sport-passport-converter/internal/matcher"
	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
)

func TestPrintSchema(t *testing.T) {
	var out bytes.Buffer
	printSchema(&out, schema.Default(), matcher.DefaultVariations())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if got, want := len(lines), schema.Default().Len()+1; got != want {
		t.Fatalf("lines got=%d; want %d", got, want)
	}
	if !strings.HasPrefix(lines[1], "1 ") || !strings.Contains(lines[1], "Sport Passport ID") {
		t.Errorf("first row got=%q", lines[1])
	}
}

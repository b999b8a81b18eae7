package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/ginjaninja78/sport-passport-converter/internal/config"
	"github.com/ginjaninja78/sport-passport-converter/internal/ledgerstore"
	"github.com/ginjaninja78/sport-passport-converter/pkg/utils"
)

const pupilsCSV = "Pupil export,,,,,,\n" +
	"First Name,Surname,Gender,DOB,Post Code,E-mail,SchoolYear\n" +
	"john,SMITH,m,12/16/2001,e19br,John@X.com,7\n" +
	"Jane,Doe,Female,05/06/2002,SW1A 1AA,jane@x.com,8.0\n" +
	"Total 2 pupils,,,,,,\n"

func TestRunConvertAutoConfirm(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pupils.csv")
	if err := os.WriteFile(input, []byte(pupilsCSV), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.AutoConfirm = true
	cfg.Output.CorrectionsLog = true
	cfg.Output.SummaryLog = true
	cfg.Output.LedgerDB = filepath.Join(dir, "ledger.db")

	output := filepath.Join(dir, "out", "import.csv")
	var out bytes.Buffer
	if err := runConvert(context.Background(), cfg, input, output, strings.NewReader(""), &out); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{output, utils.CorrectionsLogPath(output), utils.SummaryLogPath(output)} {
		if !utils.FileExists(path) {
			t.Errorf("missing %s", path)
		}
	}
	if !strings.Contains(out.String(), "Processing Complete") {
		t.Errorf("summary not printed: %s", out.String())
	}

	store, err := ledgerstore.Open(context.Background(), cfg.Output.LedgerDB)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	runs, err := store.Runs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].WrittenRows != 2 || runs[0].OutputPath != output {
		t.Errorf("got=%+v; want one run with 2 rows", runs)
	}
}

func TestRunConvertMissingInput(t *testing.T) {
	err := runConvert(context.Background(), config.Default(), filepath.Join(t.TempDir(), "nope.csv"), "", strings.NewReader(""), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "input file not found") {
		t.Errorf("got=%v; want not found", err)
	}
}

func TestConvertFlagKeysAreBound(t *testing.T) {
	for key, name := range convertFlagKeys {
		if convertCmd.Flags().Lookup(name) == nil {
			t.Errorf("%s: flag --%s is not registered", key, name)
		}
	}

	flag := convertCmd.Flags().Lookup("sheet")
	t.Cleanup(func() {
		flag.Value.Set("")
		flag.Changed = false
	})
	if err := convertCmd.Flags().Set("sheet", "Pupils"); err != nil {
		t.Fatal(err)
	}
	if got := viper.GetString("input.sheet"); got != "Pupils" {
		t.Errorf("input.sheet got=%q; want Pupils", got)
	}
}

func TestSetLogLevel(t *testing.T) {
	if err := setLogLevel("warn"); err != nil {
		t.Errorf("got=%v; want nil", err)
	}
	if err := setLogLevel("loud"); err == nil {
		t.Error("got=nil; want error")
	}
	InitLogging(false)
}

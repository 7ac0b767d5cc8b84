package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lysyi3m/standards-comb/app/cfg"
	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/database"
	"github.com/lysyi3m/standards-comb/app/report"
)

const officialPage = `<table>
	<tr><th>Reference and title</th><th>Date of publication</th></tr>
	<tr><td>EN 55032:2015 Electromagnetic compatibility of multimedia equipment</td><td>2017-07-13</td></tr>
	<tr><td>EN 55035:2017 Immunity requirements</td><td>2019-03-01</td></tr>
</table>`

func newTestApplication(t *testing.T) (*application, *bytes.Buffer) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(officialPage))
	}))
	t.Cleanup(upstream.Close)

	configDir := t.TempDir()
	directivesDir := filepath.Join(configDir, config.DirectivesDir)
	if err := os.MkdirAll(directivesDir, 0755); err != nil {
		t.Fatal(err)
	}
	directive := fmt.Sprintf("name: \"EMC Directive\"\ndirective: \"2014/30/EU\"\nurl: \"%s/emc\"\nsettings:\n  enabled: true\n", upstream.URL)
	if err := os.WriteFile(filepath.Join(directivesDir, "EMC.yml"), []byte(directive), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := newApplication(&cfg.Cfg{
		ConfigDir: configDir,
		DBPath:    database.MemoryPath,
		CacheTTL:  3600,
		UserAgent: "standards-comb-test",
		Timeout:   5,
		Format:    "csv",
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Close)

	var buf bytes.Buffer
	a.writer = report.NewWriter(&buf, report.FormatCSV)
	return a, &buf
}

func TestApplication_Run_Directives(t *testing.T) {
	a, out := newTestApplication(t)

	if err := a.Run(context.Background(), []string{"directives"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "EMC,EMC Directive,2014/30/EU") {
		t.Errorf("Expected EMC row, got %q", out.String())
	}
}

func TestApplication_Run_Official(t *testing.T) {
	a, out := newTestApplication(t)

	if err := a.Run(context.Background(), []string{"official", "emc"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "EN 55032,2015") || !strings.Contains(out.String(), "EN 55035,2017") {
		t.Errorf("Expected both standards, got %q", out.String())
	}
}

func TestApplication_Run_Compare(t *testing.T) {
	a, out := newTestApplication(t)

	path := filepath.Join(t.TempDir(), "scope.txt")
	if err := os.WriteFile(path, []byte("EN 55032:2015 Multimedia equipment emissions\nIEC 61000-4-2 ESD"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := a.Run(context.Background(), []string{"compare", path, "EMC"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out.String(), "Matched") {
		t.Errorf("Expected a matched row, got %q", out.String())
	}

	out.Reset()
	if err := a.Run(context.Background(), []string{"history"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "EMC,"+path) {
		t.Errorf("Expected the comparison in history, got %q", out.String())
	}
}

func TestApplication_Run_Usage(t *testing.T) {
	a, _ := newTestApplication(t)

	tests := [][]string{
		{"unknown"},
		{"official"},
		{"extract", "a", "b"},
		{"compare"},
		{"history", "a", "b"},
	}

	for _, args := range tests {
		if err := a.Run(context.Background(), args); !errors.Is(err, errUsage) {
			t.Errorf("Expected usage error for %v, got %v", args, err)
		}
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const oneRubric = `
- id: "1-4"
  kind: choice
  topic: the main element
  pass_score: 10
  choice:
    answer: C
`

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(good, []byte(oneRubric), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		flag     string
		fallback string
		wantLen  int
		wantErr  bool
	}{
		{"built-in", "", "", 14, false},
		{"fallback file", "", good, 1, false},
		{"flag wins over fallback", good, filepath.Join(dir, "missing.yaml"), 1, false},
		{"missing file", filepath.Join(dir, "missing.yaml"), "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rubricFile = tt.flag
			defer func() { rubricFile = "" }()

			c, _, err := loadCatalog(tt.fallback)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadCatalog() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", c.Len(), tt.wantLen)
			}
		})
	}
}

func TestRubricsCommand(t *testing.T) {
	t.Setenv("RUBRIC_FILE", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"rubrics"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "catalog: built-in (14 exercises)") {
		t.Errorf("output missing header:\n%s", got)
	}
	for _, id := range []string{"1-1", "2-3", "4-3"} {
		if !strings.Contains(got, id) {
			t.Errorf("output missing exercise %s", id)
		}
	}
}

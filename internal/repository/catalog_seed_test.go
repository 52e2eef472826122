package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCatalogSeed(t *testing.T) {
	path := writeSeed(t, `{
		"references": [{"line": " L1 ", "reference": "REF-A", "cycleTimeSeconds": 10}],
		"phases": [{"line": "L1", "phase": "assembly"}]
	}`)

	seed, err := LoadCatalogSeed(path)
	if err != nil {
		t.Fatalf("LoadCatalogSeed: %v", err)
	}
	if len(seed.References) != 1 || seed.References[0].Line != "L1" || seed.References[0].CycleTimeSeconds != 10 {
		t.Fatalf("references = %+v", seed.References)
	}
	if len(seed.Phases) != 1 || seed.Phases[0].Phase != "assembly" {
		t.Fatalf("phases = %+v", seed.Phases)
	}
}

func TestLoadCatalogSeedRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed", content: `{"references": [`, wantErr: "decode"},
		{name: "missing line", content: `{"references": [{"reference": "REF-A"}]}`, wantErr: "required"},
		{name: "negative cycle time", content: `{"references": [{"line": "L1", "reference": "REF-A", "cycleTimeSeconds": -1}]}`, wantErr: "negative"},
		{name: "duplicate", content: `{"references": [{"line": "L1", "reference": "REF-A"}, {"line": "L1", "reference": "REF-A"}]}`, wantErr: "duplicate"},
		{name: "blank phase", content: `{"phases": [{"line": "L1", "phase": " "}]}`, wantErr: "phase"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCatalogSeed(writeSeed(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want %q", err, tc.wantErr)
			}
		})
	}

	if _, err := LoadCatalogSeed(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

package gamedef

import (
	"os"
	"path/filepath"
	"testing"
)

func validDefinitionJSON() []byte {
	return []byte(`{
		"meta": {"schemaVersion": "1.0", "gameId": "test-game"},
		"layers": [
			{"id": "progress", "type": "progressLayer"}
		]
	}`)
}

func TestParseValidDefinition(t *testing.T) {
	def, err := Parse(validDefinitionJSON())
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if def.Meta.GameID != "test-game" {
		t.Fatalf("expected gameId %q, got %q", "test-game", def.Meta.GameID)
	}
	if len(def.Layers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(def.Layers))
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte("{")); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestParseRejectsValidationFailure(t *testing.T) {
	raw := []byte(`{"meta": {"schemaVersion": "1.0", "gameId": ""}, "layers": []}`)
	_, err := Parse(raw)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if _, ok := err.(ValidationErrors); !ok {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
}

func TestLoadFileReadsAndParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "definition.json")
	if err := os.WriteFile(path, validDefinitionJSON(), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	def, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: unexpected error: %v", err)
	}
	if def.Meta.GameID != "test-game" {
		t.Fatalf("expected gameId %q, got %q", "test-game", def.Meta.GameID)
	}
}

func TestLoadFileMissingPath(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

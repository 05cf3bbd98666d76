package gamedef

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads a JSON-authored Game Definition from path and validates it.
// It never returns a non-nil Definition alongside a non-nil error: a caller
// gets either a validated definition or the reason it was rejected.
func LoadFile(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gamedef: LoadFile: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a JSON-authored Game Definition from raw bytes.
func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("gamedef: Parse: %w", err)
	}
	if errs := Validate(&def); errs != nil {
		return nil, errs
	}
	return &def, nil
}

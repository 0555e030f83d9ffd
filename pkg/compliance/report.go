package compliance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveReport writes a document compliance report to path as indented JSON.
func SaveReport(report *Report, path string) error {
	return saveJSON(report, path)
}

// SaveMatrix writes a compliance matrix to path as indented JSON.
func SaveMatrix(matrix *Matrix, path string) error {
	return saveJSON(matrix, path)
}

func saveJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

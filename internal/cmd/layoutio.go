package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caddyglow/glovebox/internal/model"
)

// loadLayoutDocument reads a layout document JSON file.
func loadLayoutDocument(path string) (*model.LayoutDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc model.LayoutDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &doc, nil
}

// writeLayoutDocument writes doc as indented JSON to path, or stdout when
// path is empty.
func writeLayoutDocument(doc *model.LayoutDocument, path string) error {
	return writeJSON(doc, path)
}

// writeJSON writes data as indented JSON to path, or stdout when path is empty.
func writeJSON(data interface{}, path string) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err := os.Stdout.Write(append(out, '\n'))
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}

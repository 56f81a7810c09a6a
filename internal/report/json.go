// Package report renders a results bundle into on-disk artifacts. All
// writers are pure functions of the bundle.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/metassr/bench/internal/results"
)

// WriteJSON persists the bundle losslessly; results.Load reads it back
// into a deep-equal bundle.
func WriteJSON(b results.Bundle, path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

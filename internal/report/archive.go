package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/metassr/bench/internal/results"
)

// WriteRawArchive stores every raw generator output in one gzipped text
// file for audit. Stress runs can emit megabytes of error lines, hence
// the compression.
func WriteRawArchive(b results.Bundle, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create raw archive: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	for _, e := range b.Entries {
		for _, r := range e.Results {
			if r.Metrics == nil {
				continue
			}
			header := fmt.Sprintf("==== %s / %s ====\n", e.Candidate.Key, r.Scenario.Name)
			if _, err := zw.Write([]byte(header + r.Metrics.Raw + "\n\n")); err != nil {
				return fmt.Errorf("failed to write raw archive: %w", err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish raw archive: %w", err)
	}
	return nil
}

package importer

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveTrainingFiles stages an uploaded bundle under dir for the event
// worker to pick up. A previous upload's files are cleared first so the
// worker never reads a mix of two bundles.
func SaveTrainingFiles(dir string, files map[string][]byte) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear training data dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create training data dir: %w", err)
	}
	for name, data := range files {
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

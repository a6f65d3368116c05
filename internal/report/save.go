package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Save writes document verbatim to path, creating parent directories.
// The file is closed on every path; write and close errors are both returned.
func Save(document, path string) (err error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if _, err := io.WriteString(f, document); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

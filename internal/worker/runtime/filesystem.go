package runtime

import (
	"fmt"
	"os"
)

// OSFilesystem implements Filesystem on the host's temporary directory.
type OSFilesystem struct {
	// Dir is the parent of created files and directories. Empty means os.TempDir().
	Dir string
}

func (f OSFilesystem) CreateTempFile(prefix string, content []byte) (string, error) {
	file, err := os.CreateTemp(f.Dir, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := file.Write(content); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to write temporary file %s: %w", file.Name(), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to close temporary file %s: %w", file.Name(), err)
	}
	return file.Name(), nil
}

func (f OSFilesystem) CreateTempDirectory(prefix string) (string, error) {
	dir, err := os.MkdirTemp(f.Dir, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	return dir, nil
}

// Delete removes path and, for a directory, everything below it. Deleting a path that
// does not exist is not an error.
func (f OSFilesystem) Delete(path string) error {
	return os.RemoveAll(path)
}

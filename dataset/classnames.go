package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteClassNames writes names as one comma separated line to dir/name.txt
// and returns the file path.
func WriteClassNames(names []string, name, dir string) (string, error) {
	path := filepath.Join(dir, name+".txt")
	if err := os.WriteFile(path, []byte(strings.Join(names, ",")), 0644); err != nil {
		return "", fmt.Errorf("failed to write class names: %w", err)
	}
	return path, nil
}

// ReadClassNames reads the first line of path and splits it on commas,
// trimming surrounding whitespace from every name.
func ReadClassNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class names: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read class names: %w", err)
	}
	parts := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = strings.TrimSpace(p)
	}
	return names, nil
}

package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed templates/*.prompt.yml
var defaultTemplates embed.FS

const defaultSuffix = ".prompt.yml"

// Defaults returns the bundled templates keyed by step identifier.
func Defaults() (map[string][]byte, error) {
	entries, err := fs.ReadDir(defaultTemplates, "templates")
	if err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := defaultTemplates.ReadFile("templates/" + e.Name())
		if err != nil {
			return nil, err
		}
		out[strings.TrimSuffix(e.Name(), defaultSuffix)] = data
	}
	return out, nil
}

// WriteDefaults writes a bundled template into dir for every step that has
// one. nameFor maps a step to its template file name. Existing files are
// left alone. Returns the paths written.
func WriteDefaults(dir string, steps []string, nameFor func(step string) (string, error)) ([]string, error) {
	defaults, err := Defaults()
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled templates: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	var written []string
	for _, step := range steps {
		data, ok := defaults[step]
		if !ok {
			continue
		}
		name, err := nameFor(step)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}

	sort.Strings(written)
	return written, nil
}

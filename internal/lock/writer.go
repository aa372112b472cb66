package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aisdlc/internal/fsutil"
)

// Writer persists the lock file atomically.
type Writer struct {
	path string
}

// NewWriter creates a [Writer] for the lock file at path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write replaces the lock file with rec.
func (w *Writer) Write(rec Record) error {
	if rec.Slug == "" || rec.CurrentStep == "" {
		return errors.New("lock record requires slug and current_step")
	}

	fr := fileRecord{
		Slug:        rec.Slug,
		CurrentStep: rec.CurrentStep,
	}
	if !rec.CreatedAt.IsZero() {
		fr.CreatedAt = rec.CreatedAt.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(fr, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock: %w", err)
	}
	return w.writeAtomic(append(data, '\n'))
}

// Clear writes the empty record.
func (w *Writer) Clear() error {
	return w.writeAtomic([]byte("{}\n"))
}

// writeAtomic replaces the lock so readers never see a partial file.
func (w *Writer) writeAtomic(data []byte) error {
	if err := fsutil.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write lock: %w", err)
	}
	return nil
}

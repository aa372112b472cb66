// Package workstream manages per-feature directories under the active and
// done roots.
//
// A workstream directory is named by its slug and holds one markdown file
// per completed step, named "<step>-<slug>.md".
package workstream

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Sentinel errors for workstream operations.
var (
	// ErrExists indicates a directory for the slug already exists.
	ErrExists = errors.New("workstream already exists")

	// ErrNotFound indicates the active workstream directory is missing.
	ErrNotFound = errors.New("workstream directory not found")

	// ErrIncomplete indicates one or more step files are missing.
	ErrIncomplete = errors.New("workstream is incomplete")
)

// IncompleteError lists the steps whose files are missing.
type IncompleteError struct {
	Slug    string
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("workstream %q is missing steps: %s", e.Slug, strings.Join(e.Missing, ", "))
}

// Unwrap allows errors.Is(err, ErrIncomplete).
func (e *IncompleteError) Unwrap() error {
	return ErrIncomplete
}

// Manager creates, inspects and archives workstream directories.
type Manager struct {
	activeRoot string
	doneRoot   string
}

// NewManager creates a [Manager] for the given active and done roots.
func NewManager(activeRoot, doneRoot string) *Manager {
	return &Manager{activeRoot: activeRoot, doneRoot: doneRoot}
}

// Dir returns the active directory for slug.
func (m *Manager) Dir(slug string) string {
	return filepath.Join(m.activeRoot, slug)
}

// ArchivedDir returns the done directory for slug.
func (m *Manager) ArchivedDir(slug string) string {
	return filepath.Join(m.doneRoot, slug)
}

// StepFileName returns the "<step>-<slug>.md" file name.
func StepFileName(step, slug string) string {
	return fmt.Sprintf("%s-%s.md", step, slug)
}

// PromptFileName returns the manual-mode prompt file name for step.
func PromptFileName(step string) string {
	return fmt.Sprintf("_prompt-%s.md", step)
}

// StepFile returns the path of step's output file in the active directory.
func (m *Manager) StepFile(slug, step string) string {
	return filepath.Join(m.Dir(slug), StepFileName(step, slug))
}

// PromptFile returns the path of step's manual-mode prompt file.
func (m *Manager) PromptFile(slug, step string) string {
	return filepath.Join(m.Dir(slug), PromptFileName(step))
}

// Skeleton returns the scaffold written as the first step's file.
func Skeleton(title string) string {
	return fmt.Sprintf("# %s\n\n## Problem\n\n## Solution\n\n## Rabbit Holes\n", title)
}

// Create makes the directory for slug and writes the first step's skeleton.
//
// Returns [ErrExists] if the directory is already present in either the
// active or done root. A failure after the directory was created is reported
// with its path so it can be removed by hand.
func (m *Manager) Create(slug, firstStep, title string) (string, error) {
	dir := m.Dir(slug)
	if !within(m.activeRoot, dir) {
		return "", fmt.Errorf("workstream path %s escapes %s", dir, m.activeRoot)
	}

	for _, candidate := range []string{dir, m.ArchivedDir(slug)} {
		if _, err := os.Stat(candidate); err == nil {
			return "", fmt.Errorf("%w: %s", ErrExists, candidate)
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
	}

	if err := os.MkdirAll(m.activeRoot, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", m.activeRoot, err)
	}
	if err := os.Mkdir(dir, 0755); err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%w: %s", ErrExists, dir)
		}
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := m.StepFile(slug, firstStep)
	if err := os.WriteFile(path, []byte(Skeleton(title)), 0644); err != nil {
		return "", fmt.Errorf("created %s but failed to write %s (remove the directory and retry): %w", dir, path, err)
	}

	return path, nil
}

// Exists reports whether the active directory for slug exists.
func (m *Manager) Exists(slug string) bool {
	info, err := os.Stat(m.Dir(slug))
	return err == nil && info.IsDir()
}

// Missing returns the steps whose output files are absent, in step order.
func (m *Manager) Missing(slug string, steps []string) []string {
	var missing []string
	for _, step := range steps {
		if _, err := os.Stat(m.StepFile(slug, step)); err != nil {
			missing = append(missing, step)
		}
	}
	return missing
}

// Archive moves the slug's directory from the active root to the done root.
//
// Refuses with an [*IncompleteError] if any step file is missing, and with
// [ErrExists] if the destination is taken; in both cases nothing is moved.
func (m *Manager) Archive(slug string, steps []string) (string, error) {
	src := m.Dir(slug)
	if !m.Exists(slug) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, src)
	}

	if missing := m.Missing(slug, steps); len(missing) > 0 {
		return "", &IncompleteError{Slug: slug, Missing: missing}
	}

	dst := m.ArchivedDir(slug)
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, dst)
	}

	if err := os.MkdirAll(m.doneRoot, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", m.doneRoot, err)
	}

	if err := os.Rename(src, dst); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return "", fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
		}
		if err := copyTree(src, dst); err != nil {
			os.RemoveAll(dst)
			return "", fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
		}
		if err := os.RemoveAll(src); err != nil {
			return "", fmt.Errorf("copied to %s but failed to remove %s: %w", dst, src, err)
		}
	}

	return dst, nil
}

// within reports whether path is inside root.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

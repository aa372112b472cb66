// Package project locates the aisdlc project root and derives the canonical
// paths of files and directories inside it.
package project

import (
	"os"
	"path/filepath"

	"aisdlc/internal/config"
)

// LockFileName is the lock file name at the project root.
const LockFileName = ".aisdlc.lock"

// RootEnvVar overrides project root discovery.
const RootEnvVar = "AISDLC_ROOT"

// FindRoot returns the directory containing the manifest.
//
// Resolution order:
//  1. AISDLC_ROOT environment variable (used as-is if set)
//  2. start and each of its parents, nearest first
//  3. start itself, so commands report a missing manifest there
func FindRoot(start string) string {
	if env := os.Getenv(RootEnvVar); env != "" {
		return env
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}

	for dir := abs; ; {
		if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		dir = parent
	}
}

// Paths resolves project-relative locations for a loaded [config.Config].
type Paths struct {
	Root string
	cfg  *config.Config
}

// NewPaths creates [Paths] for root. cfg may be nil before init.
func NewPaths(root string, cfg *config.Config) *Paths {
	return &Paths{Root: root, cfg: cfg}
}

// Manifest returns the path of the .aisdlc file.
func (p *Paths) Manifest() string {
	return filepath.Join(p.Root, config.FileName)
}

// Lock returns the path of the lock file.
func (p *Paths) Lock() string {
	return filepath.Join(p.Root, LockFileName)
}

// PromptDir returns the prompt template directory.
func (p *Paths) PromptDir() string {
	return filepath.Join(p.Root, p.cfg.PromptDir)
}

// ActiveDir returns the root of in-progress workstreams.
func (p *Paths) ActiveDir() string {
	return filepath.Join(p.Root, p.cfg.ActiveDir)
}

// DoneDir returns the root of archived workstreams.
func (p *Paths) DoneDir() string {
	return filepath.Join(p.Root, p.cfg.DoneDir)
}

// PromptTemplate returns the template path for step.
func (p *Paths) PromptTemplate(step string) (string, error) {
	name, err := p.cfg.PromptFileName(step)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.PromptDir(), name), nil
}

// History returns the history database path.
func (p *Paths) History() string {
	if filepath.IsAbs(p.cfg.History.Path) {
		return p.cfg.History.Path
	}
	return filepath.Join(p.Root, p.cfg.History.Path)
}

// Package lock persists the pointer to the single active workstream.
//
// The lock file is a small JSON object at the project root:
//
//	{"slug": "hello-world", "current_step": "01-prd", "created_at": "2025-01-02T15:04:05Z"}
//
// An empty object means no workstream is active. Reads never fail: a missing
// file is the empty state, and an unparseable file is reported through a
// warning callback and treated as empty without being rewritten.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Record is the persisted state of the active workstream.
type Record struct {
	Slug        string
	CurrentStep string
	CreatedAt   time.Time
}

// IsEmpty reports whether no workstream is active.
func (r Record) IsEmpty() bool {
	return r.Slug == "" && r.CurrentStep == ""
}

// fileRecord is the on-disk shape. The short keys are written by older
// releases and accepted on read only.
type fileRecord struct {
	Slug        string `json:"slug,omitempty"`
	CurrentStep string `json:"current_step,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	Current     string `json:"current,omitempty"`
	Created     string `json:"created,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// WarnFunc receives a message when the lock file is unusable.
type WarnFunc func(msg string)

// Reader reads the lock file.
type Reader struct {
	path string
	warn WarnFunc
}

// NewReader creates a [Reader] for the lock file at path. warn may be nil.
func NewReader(path string, warn WarnFunc) *Reader {
	return &Reader{path: path, warn: warn}
}

// Path returns the lock file location.
func (r *Reader) Path() string {
	return r.path
}

// Read returns the current record, or the empty record when the file is
// missing, unreadable or corrupt.
func (r *Reader) Read() Record {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.warnf("could not read lock file %s: %v; treating as no active workstream", r.path, err)
		}
		return Record{}
	}

	if strings.TrimSpace(string(data)) == "" {
		return Record{}
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		r.warnf("lock file %s is corrupted: %v; treating as no active workstream", r.path, err)
		return Record{}
	}

	rec := Record{
		Slug:        fr.Slug,
		CurrentStep: firstNonEmpty(fr.CurrentStep, fr.Current),
		CreatedAt:   parseTime(firstNonEmpty(fr.CreatedAt, fr.Created)),
	}

	if rec.IsEmpty() {
		return Record{}
	}
	if rec.Slug == "" || rec.CurrentStep == "" {
		r.warnf("lock file %s is incomplete (slug=%q, current_step=%q); treating as no active workstream", r.path, rec.Slug, rec.CurrentStep)
		return Record{}
	}

	return rec
}

func (r *Reader) warnf(format string, args ...any) {
	if r.warn != nil {
		r.warn(fmt.Sprintf(format, args...))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Package libdetect finds library and framework mentions in workstream documents.
package libdetect

import (
	"regexp"
	"sort"
	"strings"

	"aisdlc/internal/config"
)

// aliases maps every recognised spelling to its canonical library name.
var aliases = map[string]string{
	"react":         "react",
	"reactjs":       "react",
	"vue":           "vue",
	"vuejs":         "vue",
	"angular":       "angular",
	"svelte":        "svelte",
	"next":          "nextjs",
	"nextjs":        "nextjs",
	"next.js":       "nextjs",
	"express":       "express",
	"expressjs":     "express",
	"fastapi":       "fastapi",
	"django":        "django",
	"flask":         "flask",
	"rails":         "rails",
	"ruby on rails": "rails",
	"postgres":      "postgresql",
	"postgresql":    "postgresql",
	"mysql":         "mysql",
	"mongodb":       "mongodb",
	"mongo":         "mongodb",
	"redis":         "redis",
	"jest":          "jest",
	"pytest":        "pytest",
	"mocha":         "mocha",
	"vitest":        "vitest",
	"cypress":       "cypress",
	"redux":         "redux",
	"mobx":          "mobx",
	"zustand":       "zustand",
	"pinia":         "pinia",
	"webpack":       "webpack",
	"vite":          "vite",
	"rollup":        "rollup",
	"parcel":        "parcel",
	"prisma":        "prisma",
	"sqlalchemy":    "sqlalchemy",
	"typeorm":       "typeorm",
	"sequelize":     "sequelize",
}

// phrases capture the word following an introducing phrase such as "built with".
var phrases = []*regexp.Regexp{
	regexp.MustCompile(`using\s+(\w+)`),
	regexp.MustCompile(`built\s+with\s+(\w+)`),
	regexp.MustCompile(`based\s+on\s+(\w+)`),
	regexp.MustCompile(`framework[:\s]+(\w+)`),
	regexp.MustCompile(`library[:\s]+(\w+)`),
	regexp.MustCompile(`database[:\s]+(\w+)`),
	regexp.MustCompile(`leveraging\s+(\w+)`),
}

var mentions = compileMentions()

// recommended lists libraries worth considering per step label.
var recommended = map[string][]string{
	"system-template":  {"react", "vue", "angular", "fastapi", "django", "express"},
	"systems-patterns": {"redux", "mobx", "sqlalchemy", "prisma"},
	"tests":            {"pytest", "jest", "vitest", "cypress", "mocha"},
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

func compileMentions() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(aliases))
	for variant := range aliases {
		m[variant] = regexp.MustCompile(`\b` + regexp.QuoteMeta(variant) + `\b`)
	}
	return m
}

// Detect returns the canonical names of libraries mentioned in text, sorted.
func Detect(text string) []string {
	lower := strings.ToLower(text)
	found := make(map[string]struct{})

	for variant, re := range mentions {
		if re.MatchString(lower) {
			found[aliases[variant]] = struct{}{}
		}
	}
	for _, re := range phrases {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			if canonical, ok := aliases[m[1]]; ok {
				found[canonical] = struct{}{}
			}
		}
	}

	libs := make([]string, 0, len(found))
	for lib := range found {
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	return libs
}

// ForStep returns the libraries usually relevant when writing step. Matching is
// done on the step label, so "03-system-template" and "3-system-template" agree.
func ForStep(step string) []string {
	return append([]string(nil), recommended[config.StepLabel(step)]...)
}

// ValidName reports whether name is acceptable as a user-supplied library name.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Missing returns the entries of want that are not in have, preserving order.
func Missing(want, have []string) []string {
	seen := make(map[string]struct{}, len(have))
	for _, h := range have {
		seen[h] = struct{}{}
	}
	var out []string
	for _, w := range want {
		if _, ok := seen[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

// Package jobs provides read-only registries of known job names.
package jobs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrNoJobsDir is returned by LoadDir when <home>/jobs does not exist.
var ErrNoJobsDir = errors.New("jobs directory not found")

// Registry lists every known job name in a stable order.
// Implementations must be safe for concurrent reads.
type Registry interface {
	Names() []string
}

// Static is an immutable, ordered set of job names.
type Static struct {
	names []string
}

// NewStatic builds a registry from names, dropping empty names and
// duplicates while keeping first-seen order.
func NewStatic(names ...string) *Static {
	seen := make(map[string]struct{}, len(names))
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		kept = append(kept, name)
	}
	return &Static{names: kept}
}

// Names returns a copy of the job names.
func (s *Static) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of jobs.
func (s *Static) Len() int {
	return len(s.names)
}

// Concat merges registries in argument order. Nil registries are skipped.
func Concat(regs ...Registry) *Static {
	var all []string
	for _, r := range regs {
		if r == nil {
			continue
		}
		all = append(all, r.Names()...)
	}
	return NewStatic(all...)
}

// jobsFile is the on-disk job list shape shared by the YAML and TOML formats.
type jobsFile struct {
	Jobs []string `yaml:"jobs" toml:"jobs"`
}

// LoadFile reads a job list. Files ending in .toml are TOML, anything else is
// YAML. Both use a top-level "jobs" array; YAML also accepts a bare list.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var f jobsFile
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse jobs file %s: %w", path, err)
		}
		return NewStatic(f.Jobs...), nil
	}

	if isYAMLList(data) {
		var names []string
		if err := yaml.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("parse jobs file %s: %w", path, err)
		}
		return NewStatic(names...), nil
	}

	var f jobsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse jobs file %s: %w", path, err)
	}
	return NewStatic(f.Jobs...), nil
}

// isYAMLList reports whether the first significant line starts a sequence.
func isYAMLList(data []byte) bool {
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == '#' || bytes.Equal(trimmed, []byte("---")) {
			continue
		}
		return trimmed[0] == '-' || trimmed[0] == '['
	}
	return false
}

// LoadDir lists the job directories under <home>/jobs, the layout a Jenkins
// home uses. Names come back in lexical order.
func LoadDir(home string) (*Static, error) {
	dir := filepath.Join(home, "jobs")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoJobsDir, dir)
		}
		return nil, fmt.Errorf("read jobs directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return NewStatic(names...), nil
}

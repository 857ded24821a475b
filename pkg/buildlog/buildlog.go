// Package buildlog provides build log sources for annotation.
package buildlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Build is one execution of a job whose console log can be read in full.
type Build interface {
	// ID identifies the build; resolution results are cached per ID.
	ID() string
	// OpenLog opens the complete log. The caller closes it.
	OpenLog() (io.ReadCloser, error)
}

// File is a build whose log lives in a file.
type File struct {
	id   string
	path string
}

// NewFile returns a file-backed build. An empty id defaults to the path.
func NewFile(id, path string) *File {
	if id == "" {
		id = path
	}
	return &File{id: id, path: path}
}

// ID implements Build.
func (f *File) ID() string { return f.id }

// Path returns the log file path.
func (f *File) Path() string { return f.path }

// OpenLog implements Build.
func (f *File) OpenLog() (io.ReadCloser, error) {
	file, err := os.Open(filepath.Clean(f.path))
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return file, nil
}

// Bytes is a build whose log is already in memory, such as piped stdin.
type Bytes struct {
	id   string
	data []byte
}

// NewBytes returns an in-memory build. data is not copied.
func NewBytes(id string, data []byte) *Bytes {
	return &Bytes{id: id, data: data}
}

// ID implements Build.
func (b *Bytes) ID() string { return b.id }

// OpenLog implements Build.
func (b *Bytes) OpenLog() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// JenkinsLogPath returns <home>/jobs/<job>/builds/<number>/log.
func JenkinsLogPath(home, job string, number int) string {
	return filepath.Join(home, "jobs", job, "builds", strconv.Itoa(number), "log")
}

// Jenkins returns the file build for job #number under a Jenkins home.
// Its ID is "<job>#<number>".
func Jenkins(home, job string, number int) *File {
	return NewFile(job+"#"+strconv.Itoa(number), JenkinsLogPath(home, job, number))
}

package buildlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

var (
	// ErrLogRemoved is returned by Follow when the followed file is removed or renamed.
	ErrLogRemoved = errors.New("log removed")

	// ErrLineTooLong is returned by Follow when a line exceeds the length limit.
	ErrLineTooLong = errors.New("line too long")
)

// Follow reads path from the start and calls onLines with every complete line
// (terminator included) as the file grows. Lines longer than maxLineLength
// bytes, terminator excluded, stop it with ErrLineTooLong; a non-positive
// maxLineLength means no limit. An error from onLines stops it and is
// returned. It returns nil when ctx is done, after flushing any trailing
// partial line.
func Follow(ctx context.Context, path string, maxLineLength int, onLines func([]string) error) error {
	path = filepath.Clean(path)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch log: %w", err)
	}

	t := &tail{file: f, buf: make([]byte, 32*1024), maxLineLength: maxLineLength}
	if err := t.drain(onLines); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if len(t.pending) > 0 {
				return onLines([]string{string(t.pending)})
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				return fmt.Errorf("%w: %s", ErrLogRemoved, path)
			case ev.Has(fsnotify.Write):
				if err := t.drain(onLines); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch log: %w", err)
		}
	}
}

type tail struct {
	file          *os.File
	offset        int64
	pending       []byte
	buf           []byte
	maxLineLength int
}

// drain reads everything appended since the last call and emits complete
// lines one read at a time, so at most one line and one read stay buffered.
func (t *tail) drain(onLines func([]string) error) error {
	if info, err := t.file.Stat(); err == nil && info.Size() < t.offset {
		// truncated; start over
		if _, err := t.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind log: %w", err)
		}
		t.offset = 0
		t.pending = t.pending[:0]
	}

	for {
		n, err := t.file.Read(t.buf)
		if n > 0 {
			t.offset += int64(n)
			t.pending = append(t.pending, t.buf[:n]...)
			if err := t.emit(onLines); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read log: %w", err)
		}
	}
}

// emit passes the complete lines in pending to onLines and keeps the rest.
func (t *tail) emit(onLines func([]string) error) error {
	var lines []string
	for {
		i := bytes.IndexByte(t.pending, '\n')
		if i < 0 {
			break
		}
		if t.tooLong(bytes.TrimSuffix(t.pending[:i], []byte("\r"))) {
			return fmt.Errorf("%w: more than %d bytes", ErrLineTooLong, t.maxLineLength)
		}
		lines = append(lines, string(t.pending[:i+1]))
		t.pending = t.pending[i+1:]
	}
	if t.tooLong(t.pending) {
		return fmt.Errorf("%w: more than %d bytes", ErrLineTooLong, t.maxLineLength)
	}
	if len(lines) == 0 {
		return nil
	}
	return onLines(lines)
}

func (t *tail) tooLong(line []byte) bool {
	return t.maxLineLength > 0 && len(line) > t.maxLineLength
}

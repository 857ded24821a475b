package buildlog

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_OpenLog_ReadsContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	require.NoError(t, os.WriteFile(path, []byte("Started by user\r\n"), 0o600))

	b := NewFile("", path)
	rc, err := b.OpenLog()
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "Started by user\r\n", string(data))
	assert.Equal(t, path, b.ID(), "empty id defaults to path")
}

func TestFile_OpenLog_ReturnsError_When_Missing(t *testing.T) {
	t.Parallel()

	_, err := NewFile("x", filepath.Join(t.TempDir(), "missing")).OpenLog()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBytes_OpenLog_CanBeReopened(t *testing.T) {
	t.Parallel()

	b := NewBytes("stdin", []byte("m02 #3"))
	for i := 0; i < 2; i++ {
		rc, err := b.OpenLog()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "m02 #3", string(data))
	}
	assert.Equal(t, "stdin", b.ID())
}

func TestJenkins_UsesHomeLayout(t *testing.T) {
	t.Parallel()

	b := Jenkins("/var/jenkins", "job03", 12)

	assert.Equal(t, "job03#12", b.ID())
	assert.Equal(t, filepath.Join("/var/jenkins", "jobs", "job03", "builds", "12", "log"), b.Path())
}

// lineCollector gathers lines emitted by Follow.
type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) add(lines []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, lines...)
	return nil
}

func (c *lineCollector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestFollow_EmitsAppendedLines_When_FileGrows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got lineCollector
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, 0, got.add) }()

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("second\r\npartial")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return len(got.snapshot()) == 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop after cancel")
	}

	assert.Equal(t, []string{"first\n", "second\r\n", "partial"}, got.snapshot())
}

func TestFollow_ReturnsError_When_Missing(t *testing.T) {
	t.Parallel()

	err := Follow(context.Background(), filepath.Join(t.TempDir(), "missing"), 0, func([]string) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFollow_ReturnsErrLineTooLong_When_LineExceedsLimit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	require.NoError(t, os.WriteFile(path, []byte("short\r\n"+strings.Repeat("x", 64)+"\n"), 0o600))

	var got lineCollector
	err := Follow(context.Background(), path, 16, got.add)

	require.ErrorIs(t, err, ErrLineTooLong)
	assert.Empty(t, got.snapshot())
}

func TestFollow_ReturnsErrLineTooLong_When_UnterminatedTextExceedsLimit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	require.NoError(t, os.WriteFile(path, []byte("ok\n"+strings.Repeat("x", 64)), 0o600))

	var got lineCollector
	err := Follow(context.Background(), path, 16, got.add)

	require.ErrorIs(t, err, ErrLineTooLong)
	assert.Empty(t, got.snapshot())
}

func TestFollow_AcceptsLineAtLimit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	line := strings.Repeat("x", 16) + "\r\n"
	require.NoError(t, os.WriteFile(path, []byte(line), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var got lineCollector
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, 16, got.add) }()

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{line}, got.snapshot())
}

func TestFollow_ReturnsCallbackError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o600))

	errClosed := errors.New("write: broken pipe")
	err := Follow(context.Background(), path, 0, func([]string) error { return errClosed })

	assert.ErrorIs(t, err, errClosed)
}

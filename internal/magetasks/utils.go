package magetasks

import (
	"errors"
	"io/fs"
	"os/exec"
	"strings"
)

// IsCommandNotFound reports whether err means a tool could not be started
// because it is not installed. sh.RunV flattens exec errors into its message,
// so the message is checked when no *exec.Error is in the chain.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return errors.Is(execErr.Err, exec.ErrNotFound) || errors.Is(execErr.Err, fs.ErrNotExist)
	}
	msg := err.Error()
	return strings.Contains(msg, exec.ErrNotFound.Error()) || strings.Contains(msg, fs.ErrNotExist.Error())
}

package os

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

var ErrNotExist = os.ErrNotExist

func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func CheckCreateDir(path string) error {
	if !Exists(path) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// ExpectTermination returns a context cancelled on SIGINT or SIGTERM.
func ExpectTermination(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// CreateFile creates a file along with its missing parent dirs.
func CreateFile(name string) (*os.File, error) {
	if dir := filepath.Dir(name); dir != "." {
		if err := CheckCreateDir(dir); err != nil {
			return nil, err
		}
	}
	return os.Create(name)
}

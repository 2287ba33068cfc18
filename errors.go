package gisconvert

import (
	"errors"
	"fmt"
	"os"
)

// Failures every tool can surface.
var (
	// ErrSourceNotFound indicates an input file or directory is missing.
	ErrSourceNotFound = errors.New("gisconvert: source not found")
	// ErrToolFailed indicates an external binary could not run or exited non-zero.
	ErrToolFailed = errors.New("gisconvert: tool invocation failed")
	// ErrOutputExists indicates the output would overwrite existing data.
	ErrOutputExists = errors.New("gisconvert: output already exists")
)

// RequireSource returns ErrSourceNotFound when path does not exist.
func RequireSource(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return err
	}
	return nil
}

// RequireAbsent returns ErrOutputExists when path already exists.
func RequireAbsent(path string) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrOutputExists, path)
	case os.IsNotExist(err):
		return nil
	default:
		return err
	}
}

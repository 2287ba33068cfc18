// Package tools drives the GDAL/OGR command line utilities: ogr2ogr for
// shapefile <-> PostGIS transfers and reprojection, gdal_translate and
// gdalinfo for DEM heightmaps, gdal_polygonize.py for raster vectorizing.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/godeepar/gisconvert"
)

// Runner executes an external binary and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ToolError describes a binary that could not be started or exited non-zero.
// It matches gisconvert.ErrToolFailed with errors.Is.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s could not run: %v", e.Tool, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{gisconvert.ErrToolFailed}
	}
	return []error{gisconvert.ErrToolFailed, e.Err}
}

// ExecRunner runs binaries with os/exec.
type ExecRunner struct {
	Logger *zap.Logger
}

// NewExecRunner returns a runner logging to logger. A nil logger is a no-op.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{Logger: nopIfNil(logger)}
}

// Run executes name with args. Standard error is captured separately and
// attached to the returned *ToolError.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	nopIfNil(r.Logger).Debug("running external tool", zap.String("tool", name), zap.Strings("args", args))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return stdout.Bytes(), &ToolError{
			Tool:     name,
			Args:     args,
			ExitCode: code,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	return stdout.Bytes(), nil
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

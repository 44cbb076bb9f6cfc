// Package gdal wraps the GDAL command line tools used to reproject and resample raster layers, along
// with a pure Go fallback for resampling when GDAL is not installed.
package gdal

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Runner executes an external program, returning its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	// Path is an optional directory containing the GDAL binaries.
	Path string
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {

	if r.Path != "" {
		name = strings.TrimRight(r.Path, "/") + "/" + name
	}

	slog.Debug("Run command", "name", name, "args", strings.Join(args, " "))

	var out bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()

	if err != nil {
		return out.Bytes(), fmt.Errorf("Failed to run %s, %w (%s)", name, err, strings.TrimSpace(out.String()))
	}

	return out.Bytes(), nil
}

// Package validation holds the preflight checks the pipeline runs before
// any archive is opened: the input directory must exist and every output
// location must be writable. A year of archives takes a while to load, and
// a run must not get that far only to fail on its first write.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"flightprep/internal/pipeline"
)

// Preflight validates the pipeline's filesystem surroundings.
type Preflight struct {
	logger *slog.Logger
}

// NewPreflight creates a new preflight checker
func NewPreflight(logger *slog.Logger) *Preflight {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preflight{logger: logger}
}

// CheckInputDir verifies the archive directory exists and is a directory.
// Whether it holds any archives is the harvester's call.
func (p *Preflight) CheckInputDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return pipeline.NewIOError(pipeline.StagePreflight,
			fmt.Sprintf("input directory %s does not exist", dir), err)
	}
	if err != nil {
		return pipeline.NewIOError(pipeline.StagePreflight,
			fmt.Sprintf("failed to stat input directory %s", dir), err)
	}
	if !info.IsDir() {
		return pipeline.NewIOError(pipeline.StagePreflight,
			fmt.Sprintf("input path %s is not a directory", dir), nil)
	}

	p.logger.Debug("input directory validated", slog.String("directory", dir))
	return nil
}

// CheckOutputPath ensures the parent directory of path exists, creating it
// if needed, and proves it is writable. An empty path means the output is
// disabled and passes.
func (p *Preflight) CheckOutputPath(path string) error {
	if path == "" {
		return nil
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return pipeline.NewIOError(pipeline.StagePreflight,
			fmt.Sprintf("output path %s is a directory", path), nil)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pipeline.NewIOError(pipeline.StagePreflight,
			fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Probe with a scratch file; permission bits alone don't prove a
	// network mount or read-only volume will take the write.
	probe := filepath.Join(dir, ".write_test")
	f, err := os.Create(probe)
	if err != nil {
		return pipeline.NewIOError(pipeline.StagePreflight,
			fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	f.Close()
	os.Remove(probe)

	p.logger.Debug("output path validated", slog.String("path", path))
	return nil
}

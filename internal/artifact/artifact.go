// Package artifact persists the typed table as an Arrow IPC file and loads
// it back. The file carries its schema, so nothing is re-inferred on load:
// a date32 column comes back as dates, never as text.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"flightprep/internal/pipeline"
)

// Schema metadata keys stamped on every artifact.
const (
	MetaRunID     = "flightprep:run_id"
	MetaCreatedAt = "flightprep:created_at"
	MetaTarget    = "flightprep:target"
	MetaArchives  = "flightprep:archives"
	MetaRowsIn    = "flightprep:rows_in"
)

// Writer persists typed tables
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a new artifact writer
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Write persists the record to path, creating parent directories as
// needed. An existing file is replaced only on success of the create.
func (w *Writer) Write(ctx context.Context, path string, record arrow.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pipeline.NewIOError(pipeline.StagePersist,
			fmt.Sprintf("failed to create directory %s", dir), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return pipeline.NewIOError(pipeline.StagePersist,
			fmt.Sprintf("failed to create artifact %s", path), err)
	}
	defer f.Close()

	fw, err := ipc.NewFileWriter(f,
		ipc.WithSchema(record.Schema()),
		ipc.WithAllocator(memory.DefaultAllocator),
	)
	if err != nil {
		return pipeline.NewIOError(pipeline.StagePersist,
			fmt.Sprintf("failed to open artifact writer for %s", path), err)
	}

	if err := fw.Write(record); err != nil {
		fw.Close()
		return pipeline.NewIOError(pipeline.StagePersist,
			fmt.Sprintf("failed to write artifact %s", path), err)
	}
	if err := fw.Close(); err != nil {
		return pipeline.NewIOError(pipeline.StagePersist,
			fmt.Sprintf("failed to finalize artifact %s", path), err)
	}

	w.logger.InfoContext(ctx, "artifact written",
		slog.String("path", path),
		slog.Int64("rows", record.NumRows()),
		slog.Int64("columns", record.NumCols()))

	return nil
}

// Dataset is a loaded artifact. Release must be called when done.
type Dataset struct {
	Schema  *arrow.Schema
	Records []arrow.Record
	Rows    int64
}

// Release releases the dataset's records.
func (d *Dataset) Release() {
	for _, rec := range d.Records {
		rec.Release()
	}
	d.Records = nil
}

// Metadata returns the artifact's schema metadata as a map.
func (d *Dataset) Metadata() map[string]string {
	md := d.Schema.Metadata()
	out := make(map[string]string, md.Len())
	for i, key := range md.Keys() {
		out[key] = md.Values()[i]
	}
	return out
}

// Reader loads typed tables
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a new artifact reader
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read loads the artifact at path.
func (r *Reader) Read(ctx context.Context, path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeline.NewIOError(pipeline.StagePersist,
			fmt.Sprintf("failed to open artifact %s", path), err)
	}
	defer f.Close()

	fr, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, pipeline.NewIOError(pipeline.StagePersist,
			fmt.Sprintf("failed to read artifact %s", path), err)
	}
	defer fr.Close()

	ds := &Dataset{Schema: fr.Schema()}
	for {
		rec, err := fr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			ds.Release()
			return nil, pipeline.NewIOError(pipeline.StagePersist,
				fmt.Sprintf("failed to read record from artifact %s", path), err)
		}
		rec.Retain()
		ds.Records = append(ds.Records, rec)
		ds.Rows += rec.NumRows()
	}

	r.logger.DebugContext(ctx, "artifact loaded",
		slog.String("path", path),
		slog.Int64("rows", ds.Rows),
		slog.Int("records", len(ds.Records)))

	return ds, nil
}

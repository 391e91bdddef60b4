// Package harvest discovers the publisher's monthly zip archives and loads
// every CSV member into an untyped string frame, one table per member.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/klauspost/compress/zip"

	"flightprep/internal/pipeline"
)

// nanValues are the cell texts treated as missing. The feed encodes
// missing values as empty fields; NA and NaN appear in hand-edited files.
var nanValues = []string{"", "NA", "NaN"}

// Archive represents one discovered monthly archive
type Archive struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Table is the untyped contents of one archive's CSV member
type Table struct {
	Archive string
	Member  string
	Frame   dataframe.DataFrame
}

// Harvester loads monthly archives from a directory
type Harvester struct {
	logger *slog.Logger
}

// NewHarvester creates a new harvester
func NewHarvester(logger *slog.Logger) *Harvester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{logger: logger}
}

// FindArchives finds all zip archives in the specified directory, sorted
// by file name so a rerun always processes months in the same order.
func (h *Harvester) FindArchives(dir string) ([]Archive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pipeline.NewIOError(pipeline.StageHarvest,
			fmt.Sprintf("failed to read directory %s", dir), err)
	}

	var archives []Archive
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".zip") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		archives = append(archives, Archive{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	if len(archives) == 0 {
		return nil, pipeline.NewIOError(pipeline.StageHarvest,
			fmt.Sprintf("no zip archives found in %s", dir), nil)
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].Name < archives[j].Name
	})

	return archives, nil
}

// HarvestArchive opens one archive and loads each CSV member in archive
// order. Other members (readme files and the like) are ignored; an archive
// with no CSV member at all is malformed, since every monthly archive must
// contribute a table.
func (h *Harvester) HarvestArchive(ctx context.Context, archive Archive) ([]Table, error) {
	reader, err := zip.OpenReader(archive.Path)
	if err != nil {
		return nil, pipeline.NewIOError(pipeline.StageHarvest,
			fmt.Sprintf("failed to open archive %s", archive.Name), err)
	}
	defer reader.Close()

	var tables []Table
	for _, f := range reader.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		table, err := h.parseMember(ctx, archive, f)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	if len(tables) == 0 {
		return nil, pipeline.NewParseError(pipeline.StageHarvest,
			fmt.Sprintf("archive %s contains no CSV member", archive.Name), nil)
	}

	return tables, nil
}

func (h *Harvester) parseMember(ctx context.Context, archive Archive, member *zip.File) (Table, error) {
	rc, err := member.Open()
	if err != nil {
		return Table{}, pipeline.NewIOError(pipeline.StageHarvest,
			fmt.Sprintf("failed to open member %s of %s", member.Name, archive.Name), err)
	}
	defer rc.Close()

	// Everything is read as text. Typing happens once, after the
	// missing-data rules have run on the consolidated table.
	frame := dataframe.ReadCSV(rc,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
		dataframe.WithLazyQuotes(true),
	)
	if frame.Error() != nil {
		return Table{}, pipeline.NewParseError(pipeline.StageHarvest,
			fmt.Sprintf("failed to parse member %s of %s", member.Name, archive.Name), frame.Error())
	}
	if frame.Nrow() == 0 {
		return Table{}, pipeline.NewParseError(pipeline.StageHarvest,
			fmt.Sprintf("member %s of %s has no data rows", member.Name, archive.Name), nil)
	}

	h.logger.DebugContext(ctx, "harvested member",
		slog.String("archive", archive.Name),
		slog.String("member", member.Name),
		slog.Int("rows", frame.Nrow()),
		slog.Int("columns", frame.Ncol()))

	return Table{
		Archive: archive.Name,
		Member:  member.Name,
		Frame:   frame,
	}, nil
}

// HarvestAll discovers and loads every archive under dir in name order.
// The progress callback, if non-nil, is invoked after each archive has
// been read with the count of archives processed so far.
func (h *Harvester) HarvestAll(ctx context.Context, dir string, progress func(current, total int, name string)) ([]Table, error) {
	archives, err := h.FindArchives(dir)
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "starting harvest",
		slog.String("dir", dir),
		slog.Int("archives", len(archives)))

	tables := make([]Table, 0, len(archives))
	for i, archive := range archives {
		if err := ctx.Err(); err != nil {
			return nil, pipeline.NewIOError(pipeline.StageHarvest, "harvest cancelled", err)
		}

		these, err := h.HarvestArchive(ctx, archive)
		if err != nil {
			return nil, err
		}
		tables = append(tables, these...)

		if progress != nil {
			progress(i+1, len(archives), archive.Name)
		}
	}

	return tables, nil
}

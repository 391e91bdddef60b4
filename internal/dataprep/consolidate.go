package dataprep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gota/gota/dataframe"

	"flightprep/internal/harvest"
	"flightprep/internal/infrastructure"
	"flightprep/internal/pipeline"
)

// Consolidate concatenates the monthly tables, in the order given, into a
// single frame whose column set is the union of all monthly column sets.
// Cells for columns a month never reported are missing values.
func Consolidate(ctx context.Context, tables []harvest.Table) (dataframe.DataFrame, error) {
	logger := infrastructure.LoggerWithContext(ctx)

	if len(tables) == 0 {
		return dataframe.DataFrame{}, pipeline.NewInvariantError(pipeline.StageConsolidate,
			"no tables to consolidate")
	}

	wantRows := 0
	for _, t := range tables {
		wantRows += t.Frame.Nrow()
	}

	combined := tables[0].Frame
	for _, t := range tables[1:] {
		combined = combined.Concat(t.Frame)
		if combined.Err != nil {
			return dataframe.DataFrame{}, pipeline.NewInvariantError(pipeline.StageConsolidate,
				fmt.Sprintf("failed to concatenate %s: %v", t.Archive, combined.Err))
		}
	}

	if combined.Nrow() != wantRows {
		return dataframe.DataFrame{}, pipeline.NewInvariantError(pipeline.StageConsolidate,
			fmt.Sprintf("consolidated table has %d rows, monthly tables sum to %d",
				combined.Nrow(), wantRows))
	}

	logger.InfoContext(ctx, "consolidated monthly tables",
		slog.Int("tables", len(tables)),
		slog.Int("rows", combined.Nrow()),
		slog.Int("columns", combined.Ncol()))

	return combined, nil
}

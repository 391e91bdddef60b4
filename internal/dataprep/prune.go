package dataprep

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"flightprep/internal/infrastructure"
	"flightprep/internal/pipeline"
)

// MissingProfile counts missing values per column, in table order.
func MissingProfile(df dataframe.DataFrame) []pipeline.ColumnStat {
	nrow := df.Nrow()
	stats := make([]pipeline.ColumnStat, 0, df.Ncol())

	for _, name := range df.Names() {
		missing := 0
		for _, isNaN := range df.Col(name).IsNaN() {
			if isNaN {
				missing++
			}
		}

		ratio := 0.0
		if nrow > 0 {
			ratio = float64(missing) / float64(nrow)
		}

		stats = append(stats, pipeline.ColumnStat{
			Name:    name,
			Missing: missing,
			Ratio:   ratio,
		})
	}

	return stats
}

// PruneColumns drops every column whose missing ratio exceeds threshold.
// The target column is exempt no matter how sparse it is; its rows are
// handled by the gate and the row rule instead. The returned stats cover
// all columns of the input table, with the dropped ones flagged.
func PruneColumns(ctx context.Context, df dataframe.DataFrame, target string, threshold float64) (dataframe.DataFrame, []pipeline.ColumnStat, error) {
	logger := infrastructure.LoggerWithContext(ctx)

	if df.Nrow() == 0 {
		return df, nil, pipeline.NewInvariantError(pipeline.StagePrune, "table has no rows")
	}
	if !hasColumn(df, target) {
		return df, nil, pipeline.NewInvariantError(pipeline.StagePrune,
			fmt.Sprintf("target column %q not present in consolidated table", target))
	}

	stats := MissingProfile(df)

	var drop []string
	for i := range stats {
		if stats[i].Name == target {
			continue
		}
		if stats[i].Ratio > threshold {
			stats[i].Dropped = true
			drop = append(drop, stats[i].Name)
		}
	}

	if len(drop) == 0 {
		return df, stats, nil
	}

	pruned := df.Drop(drop)
	if pruned.Err != nil {
		return df, nil, pipeline.NewInvariantError(pipeline.StagePrune,
			fmt.Sprintf("failed to drop columns: %v", pruned.Err))
	}

	logger.InfoContext(ctx, "dropped sparse columns",
		slog.Int("dropped", len(drop)),
		slog.Int("kept", pruned.Ncol()),
		slog.Float64("threshold", threshold))

	return pruned, stats, nil
}

// DropRowsMissingTarget removes the rows whose target cell is missing,
// preserving the order of the survivors. Call it only after the gate has
// approved the drop.
func DropRowsMissingTarget(ctx context.Context, df dataframe.DataFrame, target string) (dataframe.DataFrame, int, error) {
	logger := infrastructure.LoggerWithContext(ctx)

	col := df.Col(target)
	if col.Err != nil {
		return df, 0, pipeline.NewInvariantError(pipeline.StagePrune,
			fmt.Sprintf("target column %q not present: %v", target, col.Err))
	}

	missing := col.IsNaN()
	keep := make([]bool, len(missing))
	dropped := 0
	for i, isNaN := range missing {
		keep[i] = !isNaN
		if isNaN {
			dropped++
		}
	}

	if dropped == 0 {
		return df, 0, nil
	}
	if dropped == len(missing) {
		return df, 0, pipeline.NewInvariantError(pipeline.StagePrune,
			fmt.Sprintf("every row is missing target %q", target))
	}

	subset := df.Subset(keep)
	if subset.Err != nil {
		return df, 0, pipeline.NewInvariantError(pipeline.StagePrune,
			fmt.Sprintf("failed to drop rows: %v", subset.Err))
	}

	logger.InfoContext(ctx, "dropped rows missing target",
		slog.String("target", target),
		slog.Int("dropped", dropped),
		slog.Int("kept", subset.Nrow()))

	return subset, dropped, nil
}

// AssertComplete verifies the postcondition of the cleaning rules: not a
// single missing value anywhere in the table.
func AssertComplete(df dataframe.DataFrame) error {
	var leftovers []string
	total, affected := 0, 0

	for _, stat := range MissingProfile(df) {
		if stat.Missing == 0 {
			continue
		}
		total += stat.Missing
		affected++
		if len(leftovers) < 5 {
			leftovers = append(leftovers, fmt.Sprintf("%s=%d", stat.Name, stat.Missing))
		}
	}

	if total == 0 {
		return nil
	}

	detail := strings.Join(leftovers, ", ")
	if affected > len(leftovers) {
		detail += ", ..."
	}
	return pipeline.NewInvariantError(pipeline.StagePrune,
		fmt.Sprintf("%d missing values remain after cleaning: %s", total, detail))
}

// hasColumn reports whether the frame has a column with the given name
func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

package dataprep

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightprep/internal/pipeline"
)

// sparseRows builds a 20-row table with known missingness:
//
//	Full       0/20 missing
//	Borderline 1/20 missing (5%, exactly at the threshold)
//	Sparse     2/20 missing (10%)
//	ArrDel15  10/20 missing (target)
func sparseRows(t *testing.T) [][]string {
	t.Helper()

	records := [][]string{{"Full", "Borderline", "Sparse", "ArrDel15"}}
	for i := 0; i < 20; i++ {
		row := []string{fmt.Sprintf("f%d", i), "b", "s", "0.00"}
		if i == 0 {
			row[1] = ""
		}
		if i < 2 {
			row[2] = ""
		}
		if i%2 == 0 {
			row[3] = ""
		}
		records = append(records, row)
	}
	return records
}

func TestMissingProfile(t *testing.T) {
	df := stringFrame(t, sparseRows(t))

	stats := MissingProfile(df)
	require.Len(t, stats, 4)

	assert.Equal(t, pipeline.ColumnStat{Name: "Full", Missing: 0, Ratio: 0}, stats[0])
	assert.Equal(t, pipeline.ColumnStat{Name: "Borderline", Missing: 1, Ratio: 0.05}, stats[1])
	assert.Equal(t, pipeline.ColumnStat{Name: "Sparse", Missing: 2, Ratio: 0.10}, stats[2])
	assert.Equal(t, pipeline.ColumnStat{Name: "ArrDel15", Missing: 10, Ratio: 0.50}, stats[3])
}

func TestPruneColumns(t *testing.T) {
	df := stringFrame(t, sparseRows(t))

	pruned, stats, err := PruneColumns(context.Background(), df, "ArrDel15", 0.05)
	require.NoError(t, err)

	// Only strictly-above-threshold columns go. Borderline sits exactly at
	// 5% and stays; the target stays no matter how sparse it is.
	assert.Equal(t, []string{"Full", "Borderline", "ArrDel15"}, pruned.Names())
	assert.Equal(t, 20, pruned.Nrow())

	require.Len(t, stats, 4)
	assert.False(t, stats[0].Dropped)
	assert.False(t, stats[1].Dropped)
	assert.True(t, stats[2].Dropped)
	assert.False(t, stats[3].Dropped)

	// Re-running on the pruned output drops nothing further.
	again, stats, err := PruneColumns(context.Background(), pruned, "ArrDel15", 0.05)
	require.NoError(t, err)
	assert.Equal(t, pruned.Names(), again.Names())
	assert.Equal(t, 20, again.Nrow())
	for _, s := range stats {
		assert.False(t, s.Dropped)
	}
}

func TestPruneColumnsNothingToDrop(t *testing.T) {
	df := stringFrame(t, [][]string{
		{"Year", "ArrDel15"},
		{"2022", "0.00"},
		{"2022", "1.00"},
	})

	pruned, stats, err := PruneColumns(context.Background(), df, "ArrDel15", 0.05)
	require.NoError(t, err)
	assert.Equal(t, df.Names(), pruned.Names())
	for _, s := range stats {
		assert.False(t, s.Dropped)
	}
}

func TestPruneColumnsTargetAbsent(t *testing.T) {
	df := stringFrame(t, [][]string{
		{"Year"},
		{"2022"},
	})

	_, _, err := PruneColumns(context.Background(), df, "ArrDel15", 0.05)
	require.Error(t, err)
	assert.True(t, pipeline.IsKind(err, pipeline.ErrorKindInvariant))
	assert.Contains(t, err.Error(), "ArrDel15")
}

func TestDropRowsMissingTarget(t *testing.T) {
	df := stringFrame(t, [][]string{
		{"Origin", "ArrDel15"},
		{"JFK", "0.00"},
		{"LGA", ""},
		{"BUF", "1.00"},
		{"ALB", ""},
		{"ROC", "0.00"},
	})

	kept, dropped, err := DropRowsMissingTarget(context.Background(), df, "ArrDel15")
	require.NoError(t, err)

	assert.Equal(t, 2, dropped)
	assert.Equal(t, 3, kept.Nrow())
	// Survivors keep their order.
	assert.Equal(t, []string{"JFK", "BUF", "ROC"}, kept.Col("Origin").Records())

	// Idempotent on a complete table.
	again, dropped, err := DropRowsMissingTarget(context.Background(), kept, "ArrDel15")
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, 3, again.Nrow())
}

func TestDropRowsEveryTargetMissing(t *testing.T) {
	df := stringFrame(t, [][]string{
		{"Origin", "ArrDel15"},
		{"JFK", ""},
		{"LGA", ""},
	})

	_, _, err := DropRowsMissingTarget(context.Background(), df, "ArrDel15")
	require.Error(t, err)
	assert.True(t, pipeline.IsKind(err, pipeline.ErrorKindInvariant))
}

func TestAssertComplete(t *testing.T) {
	t.Run("complete table passes", func(t *testing.T) {
		df := stringFrame(t, [][]string{
			{"Year", "ArrDel15"},
			{"2022", "0.00"},
			{"2022", "1.00"},
		})
		assert.NoError(t, AssertComplete(df))
	})

	t.Run("residual missing value fails", func(t *testing.T) {
		df := stringFrame(t, [][]string{
			{"Year", "Origin", "ArrDel15"},
			{"2022", "", "0.00"},
			{"2022", "LGA", "1.00"},
			{"", "BUF", "0.00"},
		})

		err := AssertComplete(df)
		require.Error(t, err)
		assert.True(t, pipeline.IsKind(err, pipeline.ErrorKindInvariant))
		assert.Contains(t, err.Error(), "Year=1")
		assert.Contains(t, err.Error(), "Origin=1")
		assert.Contains(t, err.Error(), "2 missing values remain")
	})
}

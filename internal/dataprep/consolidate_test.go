package dataprep

import (
	"context"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightprep/internal/harvest"
	"flightprep/internal/pipeline"
)

// stringFrame builds an untyped frame the way the harvester loads one.
func stringFrame(t *testing.T, records [][]string) dataframe.DataFrame {
	t.Helper()

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"", "NA", "NaN"}),
	)
	require.NoError(t, df.Err)
	return df
}

func TestConsolidateColumnUnion(t *testing.T) {
	january := stringFrame(t, [][]string{
		{"Year", "Origin", "ArrDel15"},
		{"2022", "JFK", "0.00"},
		{"2022", "LGA", "1.00"},
	})
	february := stringFrame(t, [][]string{
		{"Year", "Dest", "ArrDel15"},
		{"2022", "ORD", "0.00"},
		{"2022", "DEN", "0.00"},
		{"2022", "SEA", "1.00"},
	})

	combined, err := Consolidate(context.Background(), []harvest.Table{
		{Archive: "On_Time_2022_1.zip", Frame: january},
		{Archive: "On_Time_2022_2.zip", Frame: february},
	})
	require.NoError(t, err)

	// Union of columns, first-seen order.
	assert.Equal(t, []string{"Year", "Origin", "ArrDel15", "Dest"}, combined.Names())
	assert.Equal(t, 5, combined.Nrow())

	// Cells for columns a month never reported are missing.
	assert.Equal(t, []bool{false, false, true, true, true}, combined.Col("Origin").IsNaN())
	assert.Equal(t, []bool{true, true, false, false, false}, combined.Col("Dest").IsNaN())

	// Rows keep harvest order.
	assert.Equal(t, []string{"JFK", "LGA", "NaN", "NaN", "NaN"}, combined.Col("Origin").Records())
	assert.Equal(t, []string{"0.00", "1.00", "0.00", "0.00", "1.00"}, combined.Col("ArrDel15").Records())
}

func TestConsolidateSingleTable(t *testing.T) {
	only := stringFrame(t, [][]string{
		{"Year", "ArrDel15"},
		{"2022", "0.00"},
	})

	combined, err := Consolidate(context.Background(), []harvest.Table{
		{Archive: "On_Time_2022_1.zip", Frame: only},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, combined.Nrow())
	assert.Equal(t, []string{"Year", "ArrDel15"}, combined.Names())
}

func TestConsolidateNoTables(t *testing.T) {
	_, err := Consolidate(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, pipeline.IsKind(err, pipeline.ErrorKindInvariant))
}

// Two three-row months, one carrying an extra column X. After the union, X
// is half missing and the pruner must take it out while every row survives.
func TestUnionColumnPrunedWhenHalfMissing(t *testing.T) {
	withX := stringFrame(t, [][]string{
		{"Year", "Origin", "ArrDel15", "X"},
		{"2022", "JFK", "0.00", "1"},
		{"2022", "LGA", "1.00", "2"},
		{"2022", "EWR", "0.00", "3"},
	})
	withoutX := stringFrame(t, [][]string{
		{"Year", "Origin", "ArrDel15"},
		{"2022", "ORD", "0.00"},
		{"2022", "DEN", "1.00"},
		{"2022", "SEA", "0.00"},
	})

	combined, err := Consolidate(context.Background(), []harvest.Table{
		{Archive: "On_Time_2022_1.zip", Frame: withX},
		{Archive: "On_Time_2022_2.zip", Frame: withoutX},
	})
	require.NoError(t, err)
	require.Equal(t, 6, combined.Nrow())
	assert.Equal(t, []string{"1", "2", "3", "NaN", "NaN", "NaN"}, combined.Col("X").Records())

	pruned, stats, err := PruneColumns(context.Background(), combined, "ArrDel15", 0.05)
	require.NoError(t, err)

	assert.Equal(t, 6, pruned.Nrow())
	assert.Equal(t, []string{"Year", "Origin", "ArrDel15"}, pruned.Names())

	for _, s := range stats {
		if s.Name == "X" {
			assert.InDelta(t, 0.5, s.Ratio, 1e-9)
			assert.True(t, s.Dropped)
		} else {
			assert.False(t, s.Dropped)
		}
	}
}

func TestConsolidateIdenticalColumns(t *testing.T) {
	a := stringFrame(t, [][]string{
		{"Year", "Month", "ArrDel15"},
		{"2022", "1", "0.00"},
	})
	b := stringFrame(t, [][]string{
		{"Year", "Month", "ArrDel15"},
		{"2022", "2", "1.00"},
	})

	combined, err := Consolidate(context.Background(), []harvest.Table{
		{Archive: "a.zip", Frame: a},
		{Archive: "b.zip", Frame: b},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, combined.Nrow())
	assert.Equal(t, 3, combined.Ncol())
	assert.Equal(t, []string{"1", "2"}, combined.Col("Month").Records())

	// Nothing was filled in.
	for _, name := range combined.Names() {
		for _, isNaN := range combined.Col(name).IsNaN() {
			assert.False(t, isNaN)
		}
	}
}

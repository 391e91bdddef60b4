package dataprep

import (
	"context"
	"testing"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightprep/internal/pipeline"
)

func TestNormalizeTypes(t *testing.T) {
	df := stringFrame(t, [][]string{
		{"Year", "CRSDepTime", "FlightDate", "Origin", "ArrDel15"},
		{"2022", "0559", "2022-01-15", "JFK", "0.00"},
		{"2022", "1730", "2022-03-15", "LGA", "1.00"},
		{"2022", "2359", "2022-12-31", "SEA", "0.00"},
	})

	record, err := Normalize(context.Background(), df, nil)
	require.NoError(t, err)
	defer record.Release()

	assert.Equal(t, int64(3), record.NumRows())
	assert.Equal(t, int64(5), record.NumCols())

	schema := record.Schema()
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(1).Type)
	assert.Equal(t, arrow.FixedWidthTypes.Date32, schema.Field(2).Type)
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(3).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Float64, schema.Field(4).Type)
	for _, f := range schema.Fields() {
		assert.False(t, f.Nullable)
	}

	years := record.Column(0).(*array.Int64)
	assert.Equal(t, int64(2022), years.Value(0))

	// Leading zeros on clock times parse as plain integers.
	clocks := record.Column(1).(*array.Int64)
	assert.Equal(t, int64(559), clocks.Value(0))
	assert.Equal(t, int64(2359), clocks.Value(2))

	dates := record.Column(2).(*array.Date32)
	assert.Equal(t, "2022-01-15", dates.Value(0).ToTime().Format("2006-01-02"))
	assert.Equal(t, time.Date(2022, time.March, 15, 0, 0, 0, 0, time.UTC), dates.Value(1).ToTime())
	assert.Equal(t, "2022-12-31", dates.Value(2).ToTime().Format("2006-01-02"))

	origins := record.Column(3).(*array.String)
	assert.Equal(t, "LGA", origins.Value(1))

	targets := record.Column(4).(*array.Float64)
	assert.Equal(t, 0.0, targets.Value(0))
	assert.Equal(t, 1.0, targets.Value(1))
}

func TestNormalizeMetadata(t *testing.T) {
	df := stringFrame(t, [][]string{
		{"Year", "ArrDel15"},
		{"2022", "0.00"},
	})

	record, err := Normalize(context.Background(), df, map[string]string{
		"run_id":     "run-123",
		"created_at": time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
	})
	require.NoError(t, err)
	defer record.Release()

	md := record.Schema().Metadata()
	idx := md.FindKey("run_id")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "run-123", md.Values()[idx])
}

func TestNormalizeRejectsMalformedDates(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{"slash separators", "2022/01/15"},
		{"us ordering", "01-15-2022"},
		{"unpadded month and day", "2022-1-5"},
		{"datetime suffix", "2022-01-15 00:00:00"},
		{"compact form", "20220115"},
		{"day out of range", "2022-02-30"},
		{"month and day out of range", "2022-13-50"},
		{"surrounding space", " 2022-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			df := stringFrame(t, [][]string{
				{"FlightDate", "ArrDel15"},
				{tt.date, "0.00"},
			})

			_, err := Normalize(context.Background(), df, nil)
			require.Error(t, err)
			assert.True(t, pipeline.IsKind(err, pipeline.ErrorKindParse))
			assert.Contains(t, err.Error(), "FlightDate")
		})
	}
}

func TestNormalizeRejectsBadNumbers(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		row      []string
		offender string
	}{
		{
			name:     "float text in int column",
			header:   []string{"Year", "ArrDel15"},
			row:      []string{"2022.0", "0.00"},
			offender: "Year",
		},
		{
			name:     "word in int column",
			header:   []string{"Quarter", "ArrDel15"},
			row:      []string{"first", "0.00"},
			offender: "Quarter",
		},
		{
			name:     "word in float column",
			header:   []string{"Year", "ArrDel15"},
			row:      []string{"2022", "late"},
			offender: "ArrDel15",
		},
		{
			name:     "infinite float",
			header:   []string{"Year", "ArrDel15"},
			row:      []string{"2022", "Inf"},
			offender: "ArrDel15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			df := stringFrame(t, [][]string{tt.header, tt.row})

			_, err := Normalize(context.Background(), df, nil)
			require.Error(t, err)
			assert.True(t, pipeline.IsKind(err, pipeline.ErrorKindParse))
			assert.Contains(t, err.Error(), tt.offender)
		})
	}
}

func TestNormalizeRejectsUndeclaredColumn(t *testing.T) {
	df := stringFrame(t, [][]string{
		{"Year", "WindSpeed", "ArrDel15"},
		{"2022", "12", "0.00"},
	})

	_, err := Normalize(context.Background(), df, nil)
	require.Error(t, err)
	assert.True(t, pipeline.IsKind(err, pipeline.ErrorKindParse))
	assert.Contains(t, err.Error(), "WindSpeed")
}

func TestNormalizeRejectsMissingCell(t *testing.T) {
	df := stringFrame(t, [][]string{
		{"Year", "ArrDel15"},
		{"2022", "0.00"},
		{"", "1.00"},
	})

	_, err := Normalize(context.Background(), df, nil)
	require.Error(t, err)
	assert.True(t, pipeline.IsKind(err, pipeline.ErrorKindInvariant))
	assert.Contains(t, err.Error(), "Year")
}

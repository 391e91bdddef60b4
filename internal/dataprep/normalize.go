package dataprep

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/go-gota/gota/dataframe"

	"flightprep/internal/infrastructure"
	"flightprep/internal/pipeline"
	"flightprep/internal/schema"
)

// Normalize parses every cell of the complete table into its declared
// type and returns an Arrow record with the given schema metadata. Cell
// text must parse exactly: no trimming, no locale forms, no unit
// suffixes, dates only as YYYY-MM-DD. The caller owns the record and
// must Release it.
func Normalize(ctx context.Context, df dataframe.DataFrame, metadata map[string]string) (arrow.Record, error) {
	logger := infrastructure.LoggerWithContext(ctx)

	fields, err := schema.Fields(df.Names())
	if err != nil {
		return nil, pipeline.NewParseError(pipeline.StageNormalize,
			"retained column is not in the dataset dictionary", err)
	}

	var md *arrow.Metadata
	if len(metadata) > 0 {
		m := arrow.MetadataFrom(metadata)
		md = &m
	}
	arrowSchema := arrow.NewSchema(fields, md)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, arrowSchema)
	defer builder.Release()

	nrow := df.Nrow()
	for j, name := range df.Names() {
		kind, _ := schema.Lookup(name)
		col := df.Col(name)

		for i := 0; i < nrow; i++ {
			elem := col.Elem(i)
			if elem.IsNA() {
				return nil, pipeline.NewInvariantError(pipeline.StageNormalize,
					fmt.Sprintf("column %s row %d is missing; cleaning must run before typing", name, i))
			}
			text := elem.String()

			switch kind {
			case schema.KindInt:
				v, err := strconv.ParseInt(text, 10, 64)
				if err != nil {
					return nil, pipeline.NewParseError(pipeline.StageNormalize,
						fmt.Sprintf("column %s row %d: %q is not a valid integer", name, i, text), err)
				}
				builder.Field(j).(*array.Int64Builder).Append(v)

			case schema.KindFloat:
				v, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, pipeline.NewParseError(pipeline.StageNormalize,
						fmt.Sprintf("column %s row %d: %q is not a valid float", name, i, text), err)
				}
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, pipeline.NewParseError(pipeline.StageNormalize,
						fmt.Sprintf("column %s row %d: %q is not finite", name, i, text), nil)
				}
				builder.Field(j).(*array.Float64Builder).Append(v)

			case schema.KindDate:
				t, err := time.Parse(schema.DateLayout, text)
				if err != nil {
					return nil, pipeline.NewParseError(pipeline.StageNormalize,
						fmt.Sprintf("column %s row %d: %q is not a %s date", name, i, text, schema.DateLayout), err)
				}
				builder.Field(j).(*array.Date32Builder).Append(arrow.Date32FromTime(t))

			default:
				builder.Field(j).(*array.StringBuilder).Append(text)
			}
		}
	}

	record := builder.NewRecord()

	logger.InfoContext(ctx, "normalized table",
		slog.Int64("rows", record.NumRows()),
		slog.Int64("columns", record.NumCols()))

	return record, nil
}

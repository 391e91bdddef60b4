package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"flightprep/internal/artifact"
	"flightprep/internal/config"
	"flightprep/internal/schema"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#888888")).Width(12)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3C3C3C"))
)

func main() {
	artifactPath := flag.String("artifact", "", "path to a typed artifact (defaults to the configured artifact path)")
	configPath := flag.String("config", "", "path to configuration file (defaults to flightprep.yaml)")
	headRows := flag.Int("rows", 5, "number of data rows to preview (0 disables)")
	showStats := flag.Bool("stats", false, "compute per-column statistics")
	flag.Parse()

	if *artifactPath == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		*artifactPath = cfg.Pipeline.ArtifactPath
	}

	// This is a display tool; keep the reader's logging out of the way.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	reader := artifact.NewReader(quiet)

	ds, err := reader.Read(context.Background(), *artifactPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ds.Release()

	fmt.Println(titleStyle.Render("Artifact " + *artifactPath))
	fmt.Println(labelStyle.Render("Rows") + strconv.FormatInt(ds.Rows, 10))
	fmt.Println(labelStyle.Render("Columns") + strconv.Itoa(len(ds.Schema.Fields())))
	fmt.Println(labelStyle.Render("Batches") + strconv.Itoa(len(ds.Records)))

	meta := ds.Metadata()
	if len(meta) > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render("Metadata"))
		keys := make([]string, 0, len(meta))
		for k := range meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s = %s\n", k, meta[k])
		}
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Schema"))
	fmt.Println(schemaTable(ds))

	if *headRows > 0 && ds.Rows > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render("Head"))
		fmt.Println(headTable(ds, *headRows))
	}

	if *showStats {
		fmt.Println()
		fmt.Println(titleStyle.Render("Statistics"))
		fmt.Println(statsTable(ds))
	}
}

func schemaTable(ds *artifact.Dataset) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("#", "COLUMN", "TYPE")
	for i, f := range ds.Schema.Fields() {
		t.Row(strconv.Itoa(i+1), f.Name, f.Type.Name())
	}
	return t
}

func headTable(ds *artifact.Dataset, n int) *table.Table {
	fields := ds.Schema.Fields()
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Name
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)

	remaining := n
	for _, rec := range ds.Records {
		for i := 0; i < int(rec.NumRows()) && remaining > 0; i++ {
			cells := make([]string, len(headers))
			for j := range headers {
				cells[j] = cellValue(rec.Column(j), i)
			}
			t.Row(cells...)
			remaining--
		}
		if remaining == 0 {
			break
		}
	}
	return t
}

func cellValue(col arrow.Array, i int) string {
	switch c := col.(type) {
	case *array.Int64:
		return strconv.FormatInt(c.Value(i), 10)
	case *array.Float64:
		return strconv.FormatFloat(c.Value(i), 'g', -1, 64)
	case *array.Date32:
		return c.Value(i).ToTime().Format(schema.DateLayout)
	case *array.String:
		return c.Value(i)
	default:
		return col.ValueStr(i)
	}
}

// columnStats accumulates over every record batch in the artifact.
type columnStats struct {
	name     string
	kind     string
	n        int
	sum      float64
	min, max float64
	minDate  arrow.Date32
	maxDate  arrow.Date32
	distinct map[string]struct{}
}

func statsTable(ds *artifact.Dataset) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("COLUMN", "TYPE", "MIN", "MAX", "MEAN", "DISTINCT")

	for j, f := range ds.Schema.Fields() {
		cs := collectColumn(ds, j)
		cs.name = f.Name
		cs.kind = f.Type.Name()
		t.Row(cs.row()...)
	}
	return t
}

func collectColumn(ds *artifact.Dataset, j int) columnStats {
	cs := columnStats{distinct: make(map[string]struct{})}
	for _, rec := range ds.Records {
		switch col := rec.Column(j).(type) {
		case *array.Int64:
			for i := 0; i < col.Len(); i++ {
				cs.observe(float64(col.Value(i)))
			}
		case *array.Float64:
			for i := 0; i < col.Len(); i++ {
				cs.observe(col.Value(i))
			}
		case *array.Date32:
			for i := 0; i < col.Len(); i++ {
				cs.observeDate(col.Value(i))
			}
		case *array.String:
			for i := 0; i < col.Len(); i++ {
				cs.distinct[col.Value(i)] = struct{}{}
				cs.n++
			}
		}
	}
	return cs
}

func (c *columnStats) observe(v float64) {
	if c.n == 0 || v < c.min {
		c.min = v
	}
	if c.n == 0 || v > c.max {
		c.max = v
	}
	c.sum += v
	c.n++
}

func (c *columnStats) observeDate(v arrow.Date32) {
	if c.n == 0 || v < c.minDate {
		c.minDate = v
	}
	if c.n == 0 || v > c.maxDate {
		c.maxDate = v
	}
	c.n++
}

func (c *columnStats) row() []string {
	switch c.kind {
	case "int64", "float64":
		mean := 0.0
		if c.n > 0 {
			mean = c.sum / float64(c.n)
		}
		return []string{c.name, c.kind,
			fmt.Sprintf("%g", c.min),
			fmt.Sprintf("%g", c.max),
			fmt.Sprintf("%.4g", mean),
			"-"}
	case "date32":
		return []string{c.name, c.kind,
			c.minDate.ToTime().Format(schema.DateLayout),
			c.maxDate.ToTime().Format(schema.DateLayout),
			"-", "-"}
	default:
		return []string{c.name, c.kind, "-", "-", "-",
			strconv.Itoa(len(c.distinct))}
	}
}

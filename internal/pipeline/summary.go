package pipeline

import "time"

// ArchiveCount records what one harvested archive member contributed.
type ArchiveCount struct {
	Archive string `json:"archive"`
	Member  string `json:"member"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// ColumnStat records missingness for one column of the consolidated
// table, and whether the drop rule removed it.
type ColumnStat struct {
	Name    string  `json:"name"`
	Missing int     `json:"missing"`
	Ratio   float64 `json:"ratio"`
	Dropped bool    `json:"dropped"`
}

// GroupRatio records target missingness within one group of a gate dimension.
type GroupRatio struct {
	Dimension string  `json:"dimension"`
	Group     string  `json:"group"`
	Rows      int     `json:"rows"`
	Missing   int     `json:"missing"`
	Ratio     float64 `json:"ratio"`
	Skew      float64 `json:"skew"`
}

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// RunSummary aggregates what a run did, for the final log line, the
// cleaning workbook and the artifact metadata.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Archives  []ArchiveCount `json:"archives"`
	RowsIn    int            `json:"rows_in"`
	ColumnsIn int            `json:"columns_in"`

	// Columns holds one entry per consolidated column, in table order.
	Columns []ColumnStat `json:"columns"`

	TargetColumn       string       `json:"target_column"`
	TargetMissing      int          `json:"target_missing"`
	TargetMissingRatio float64      `json:"target_missing_ratio"`
	GroupRatios        []GroupRatio `json:"group_ratios"`

	RowsDropped int `json:"rows_dropped"`
	RowsOut     int `json:"rows_out"`
	ColumnsOut  int `json:"columns_out"`

	ArtifactPath string        `json:"artifact_path"`
	ReportPath   string        `json:"report_path,omitempty"`
	Timings      []StageTiming `json:"timings"`
}

// Duration returns the wall-clock duration of the run.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// DroppedColumns returns the columns the drop rule removed, in table order.
func (s *RunSummary) DroppedColumns() []ColumnStat {
	var dropped []ColumnStat
	for _, c := range s.Columns {
		if c.Dropped {
			dropped = append(dropped, c)
		}
	}
	return dropped
}

// KeptColumns returns the names of the columns that survived, in table order.
func (s *RunSummary) KeptColumns() []string {
	var kept []string
	for _, c := range s.Columns {
		if !c.Dropped {
			kept = append(kept, c.Name)
		}
	}
	return kept
}

// RecordTiming appends a stage timing.
func (s *RunSummary) RecordTiming(stage string, d time.Duration) {
	s.Timings = append(s.Timings, StageTiming{Stage: stage, Duration: d})
}

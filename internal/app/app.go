package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"flightprep/internal/artifact"
	"flightprep/internal/config"
	"flightprep/internal/dataprep"
	"flightprep/internal/harvest"
	"flightprep/internal/infrastructure"
	"flightprep/internal/pipeline"
	"flightprep/internal/report"
	"flightprep/internal/validation"
)

const (
	VERSION = "1.2.0"
	AppName = "flightprep"
)

// Application holds the wired pipeline components.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Checks    *validation.Preflight
	Harvester *harvest.Harvester
	Artifacts *artifact.Writer
	Reports   *report.Generator

	// OnProgress, when set, receives progress callbacks: per-archive
	// counts during harvest and one callback per completed stage.
	OnProgress func(stage string, current, total int, message string)
}

// NewApplication loads configuration from configPath (empty means the
// default search locations) and wires the pipeline components.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewApplicationWithConfig(cfg)
}

// NewApplicationWithConfig wires the pipeline components around an
// already validated configuration.
func NewApplicationWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("input_dir", cfg.Pipeline.InputDir),
		slog.String("artifact", cfg.Pipeline.ArtifactPath))

	return &Application{
		Config:    cfg,
		Logger:    logger,
		Checks:    validation.NewPreflight(infrastructure.WithComponent(logger, "preflight")),
		Harvester: harvest.NewHarvester(infrastructure.WithComponent(logger, "harvest")),
		Artifacts: artifact.NewWriter(infrastructure.WithComponent(logger, "artifact")),
		Reports:   report.NewGenerator(infrastructure.WithComponent(logger, "report")),
	}, nil
}

// Run executes the whole preparation pipeline once. Stages run strictly in
// order and the first failure aborts the run; the returned summary carries
// whatever was measured up to that point.
func (a *Application) Run(ctx context.Context) (*pipeline.RunSummary, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)

	summary := &pipeline.RunSummary{
		RunID:        runID,
		StartedAt:    time.Now(),
		TargetColumn: a.Config.Policy.TargetColumn,
		ArtifactPath: a.Config.Pipeline.ArtifactPath,
		ReportPath:   a.Config.Pipeline.ReportPath,
	}

	totalSteps := 8
	if a.Config.Pipeline.ReportPath == "" {
		totalSteps = 7
	}
	tracker := pipeline.NewProgressTracker("pipeline", totalSteps)

	a.Logger.InfoContext(ctx, "pipeline starting",
		slog.String("input_dir", a.Config.Pipeline.InputDir),
		slog.String("target", a.Config.Policy.TargetColumn),
		slog.Int("steps", totalSteps))

	// Fail on bad filesystem surroundings before opening any archive.
	if err := a.Checks.CheckInputDir(a.Config.Pipeline.InputDir); err != nil {
		return summary, err
	}
	if err := a.Checks.CheckOutputPath(a.Config.Pipeline.ArtifactPath); err != nil {
		return summary, err
	}
	if err := a.Checks.CheckOutputPath(a.Config.Pipeline.ReportPath); err != nil {
		return summary, err
	}

	// Harvest: one untyped table per archive member.
	stageStart := time.Now()
	tables, err := a.Harvester.HarvestAll(ctx, a.Config.Pipeline.InputDir, func(current, total int, name string) {
		a.notify(pipeline.StageHarvest, current, total, name)
	})
	if err != nil {
		return summary, err
	}
	archives := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		archives[t.Archive] = struct{}{}
		summary.Archives = append(summary.Archives, pipeline.ArchiveCount{
			Archive: t.Archive,
			Member:  t.Member,
			Rows:    t.Frame.Nrow(),
			Columns: t.Frame.Ncol(),
		})
	}
	summary.RecordTiming(pipeline.StageHarvest, time.Since(stageStart))
	a.step(ctx, tracker, fmt.Sprintf("harvested %d tables from %d archives", len(tables), len(archives)))

	// Consolidate: column union, archives concatenated in name order.
	if err := cancelled(ctx, pipeline.StageConsolidate); err != nil {
		return summary, err
	}
	stageStart = time.Now()
	frame, err := dataprep.Consolidate(ctx, tables)
	if err != nil {
		return summary, err
	}
	summary.RowsIn = frame.Nrow()
	summary.ColumnsIn = frame.Ncol()
	summary.RecordTiming(pipeline.StageConsolidate, time.Since(stageStart))
	a.step(ctx, tracker, fmt.Sprintf("consolidated %d rows, %d columns", frame.Nrow(), frame.Ncol()))

	// Prune: drop columns too sparse to train on. The target column is
	// exempt here; its missing rows are handled after the gate.
	if err := cancelled(ctx, pipeline.StagePrune); err != nil {
		return summary, err
	}
	stageStart = time.Now()
	frame, columnStats, err := dataprep.PruneColumns(ctx, frame,
		a.Config.Policy.TargetColumn, a.Config.Policy.ColumnDropThreshold)
	if err != nil {
		return summary, err
	}
	summary.Columns = columnStats
	pruneElapsed := time.Since(stageStart)
	a.step(ctx, tracker, fmt.Sprintf("dropped %d sparse columns", len(summary.DroppedColumns())))

	// Gate: refuse to drop rows whose absence would bias the dataset.
	if err := cancelled(ctx, pipeline.StageGate); err != nil {
		return summary, err
	}
	stageStart = time.Now()
	gate, err := dataprep.CheckTargetGate(ctx, frame, a.Config.Policy)
	if gate != nil {
		summary.TargetMissing = gate.TargetMissing
		summary.TargetMissingRatio = gate.OverallRatio
		summary.GroupRatios = gate.Groups
	}
	if err != nil {
		return summary, err
	}
	summary.RecordTiming(pipeline.StageGate, time.Since(stageStart))
	a.step(ctx, tracker, fmt.Sprintf("gate passed, %d rows missing %s",
		gate.TargetMissing, a.Config.Policy.TargetColumn))

	// Drop the gated rows, then hold the zero-missing postcondition.
	if err := cancelled(ctx, pipeline.StagePrune); err != nil {
		return summary, err
	}
	stageStart = time.Now()
	frame, dropped, err := dataprep.DropRowsMissingTarget(ctx, frame, a.Config.Policy.TargetColumn)
	if err != nil {
		return summary, err
	}
	summary.RowsDropped = dropped
	if err := dataprep.AssertComplete(frame); err != nil {
		return summary, err
	}
	summary.RowsOut = frame.Nrow()
	summary.ColumnsOut = frame.Ncol()
	pruneElapsed += time.Since(stageStart)
	summary.RecordTiming(pipeline.StagePrune, pruneElapsed)
	a.step(ctx, tracker, fmt.Sprintf("dropped %d rows missing %s",
		dropped, a.Config.Policy.TargetColumn))

	// Normalize: coerce every retained column to its dictionary type.
	if err := cancelled(ctx, pipeline.StageNormalize); err != nil {
		return summary, err
	}
	stageStart = time.Now()
	record, err := dataprep.Normalize(ctx, frame, map[string]string{
		artifact.MetaRunID:     runID,
		artifact.MetaCreatedAt: time.Now().UTC().Format(time.RFC3339),
		artifact.MetaTarget:    a.Config.Policy.TargetColumn,
		artifact.MetaArchives:  strconv.Itoa(len(archives)),
		artifact.MetaRowsIn:    strconv.Itoa(summary.RowsIn),
	})
	if err != nil {
		return summary, err
	}
	defer record.Release()
	summary.RecordTiming(pipeline.StageNormalize, time.Since(stageStart))
	a.step(ctx, tracker, fmt.Sprintf("typed %d columns", frame.Ncol()))

	// Persist the typed artifact.
	if err := cancelled(ctx, pipeline.StagePersist); err != nil {
		return summary, err
	}
	stageStart = time.Now()
	if err := a.Artifacts.Write(ctx, a.Config.Pipeline.ArtifactPath, record); err != nil {
		return summary, err
	}
	summary.RecordTiming(pipeline.StagePersist, time.Since(stageStart))
	summary.FinishedAt = time.Now()
	a.step(ctx, tracker, fmt.Sprintf("artifact written to %s", a.Config.Pipeline.ArtifactPath))

	// Report is documentation for humans; an empty path disables it.
	if a.Config.Pipeline.ReportPath != "" {
		if err := cancelled(ctx, pipeline.StageReport); err != nil {
			return summary, err
		}
		stageStart = time.Now()
		if err := a.Reports.Write(ctx, a.Config.Pipeline.ReportPath, summary); err != nil {
			return summary, err
		}
		summary.RecordTiming(pipeline.StageReport, time.Since(stageStart))
		a.step(ctx, tracker, fmt.Sprintf("report written to %s", a.Config.Pipeline.ReportPath))
	}

	a.Logger.InfoContext(ctx, "pipeline complete",
		slog.Int("rows_out", summary.RowsOut),
		slog.Int("columns_out", summary.ColumnsOut),
		slog.Int("rows_dropped", summary.RowsDropped),
		slog.Duration("duration", summary.Duration()),
		slog.String("artifact", summary.ArtifactPath))

	return summary, nil
}

// step advances the run tracker and reports the completed stage.
func (a *Application) step(ctx context.Context, tracker *pipeline.ProgressTracker, message string) {
	tracker.Increment(message)
	current, total, percentage, _ := tracker.GetProgress()

	a.Logger.InfoContext(ctx, "stage complete",
		slog.String("message", message),
		slog.Int("step", current),
		slog.Int("total_steps", total),
		slog.Float64("percentage", percentage),
		slog.String("eta", tracker.GetETA()))

	a.notify("pipeline", current, total, message)
}

func (a *Application) notify(stage string, current, total int, message string) {
	if a.OnProgress != nil {
		a.OnProgress(stage, current, total, message)
	}
}

func cancelled(ctx context.Context, stage string) error {
	select {
	case <-ctx.Done():
		return pipeline.NewIOError(stage, "pipeline cancelled", ctx.Err())
	default:
		return nil
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"flightprep/internal/app"
	"flightprep/internal/config"
	"flightprep/internal/infrastructure"
	"flightprep/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults to flightprep.yaml)")
	inDir := flag.String("in", "", "input directory of monthly zip archives (overrides configuration)")
	outPath := flag.String("out", "", "output path for the typed artifact (overrides configuration)")
	reportPath := flag.String("report", "", "output path for the cleaning workbook (overrides configuration)")
	noReport := flag.Bool("no-report", false, "skip the cleaning workbook")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *inDir != "" {
		cfg.Pipeline.InputDir = *inDir
	}
	if *outPath != "" {
		cfg.Pipeline.ArtifactPath = *outPath
	}
	if *reportPath != "" {
		cfg.Pipeline.ReportPath = *reportPath
	}
	if *noReport {
		cfg.Pipeline.ReportPath = ""
	}

	application, err := app.NewApplicationWithConfig(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	// Progress messages on stdout; structured logs go to the configured
	// log outputs.
	application.OnProgress = func(stage string, current, total int, message string) {
		if stage == pipeline.StageHarvest {
			fmt.Printf("Harvested archive %d of %d: %s\n", current, total, message)
			return
		}
		fmt.Printf("[%d/%d] %s\n", current, total, message)
	}

	summary, err := application.Run(context.Background())
	if err != nil {
		infrastructure.WithError(application.Logger, err).Error("Pipeline failed",
			slog.String("kind", string(pipeline.KindOf(err))))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Processing complete: %d tables\n", len(summary.Archives))
	fmt.Printf("Rows: %d in, %d out (%d dropped missing %s)\n",
		summary.RowsIn, summary.RowsOut, summary.RowsDropped, summary.TargetColumn)
	fmt.Printf("Columns: %d in, %d out (%d dropped)\n",
		summary.ColumnsIn, summary.ColumnsOut, len(summary.DroppedColumns()))
	fmt.Printf("Artifact written to %s\n", summary.ArtifactPath)
	if summary.ReportPath != "" {
		fmt.Printf("Report written to %s\n", summary.ReportPath)
	}
}

package dataprep

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"

	"flightprep/internal/config"
	"flightprep/internal/infrastructure"
	"flightprep/internal/pipeline"
)

// GateResult holds what the distributional gate measured.
type GateResult struct {
	// TargetMissing is the number of rows with no target value.
	TargetMissing int
	// OverallRatio is TargetMissing over the row count.
	OverallRatio float64
	// Groups holds per-group target missingness for every gate dimension,
	// sorted by dimension then group.
	Groups []pipeline.GroupRatio
}

// CheckTargetGate verifies, before any row is dropped, that rows missing
// the target are both rare overall and spread evenly across the gate
// dimensions. A group whose missing ratio exceeds the overall ratio by
// more than the configured skew factor means the missingness is
// systematic there, and silently dropping those rows would bias the
// dataset, so the run fails instead. On a gate rejection the returned
// result still carries everything measured up to the failed check.
func CheckTargetGate(ctx context.Context, df dataframe.DataFrame, policy config.PolicyConfig) (*GateResult, error) {
	logger := infrastructure.LoggerWithContext(ctx)

	col := df.Col(policy.TargetColumn)
	if col.Err != nil {
		return nil, pipeline.NewInvariantError(pipeline.StageGate,
			fmt.Sprintf("target column %q not present: %v", policy.TargetColumn, col.Err))
	}

	nrow := df.Nrow()
	if nrow == 0 {
		return nil, pipeline.NewInvariantError(pipeline.StageGate, "table has no rows")
	}

	missingMask := col.IsNaN()
	missing := 0
	for _, isNaN := range missingMask {
		if isNaN {
			missing++
		}
	}
	overall := float64(missing) / float64(nrow)

	result := &GateResult{
		TargetMissing: missing,
		OverallRatio:  overall,
	}

	if overall > policy.MaxTargetMissing {
		return result, pipeline.NewGateError(pipeline.StageGate,
			fmt.Sprintf("%.2f%% of rows are missing target %q, limit is %.2f%%",
				overall*100, policy.TargetColumn, policy.MaxTargetMissing*100),
			map[string]interface{}{
				"target":  policy.TargetColumn,
				"missing": missing,
				"ratio":   overall,
				"limit":   policy.MaxTargetMissing,
			})
	}

	var offenders []string
	for _, dim := range policy.GateDimensions {
		dimCol := df.Col(dim)
		if dimCol.Err != nil {
			return nil, pipeline.NewInvariantError(pipeline.StageGate,
				fmt.Sprintf("gate dimension %q not present: %v", dim, dimCol.Err))
		}

		// Records renders missing group keys as "NaN", which groups the
		// unknowns together instead of losing them.
		keys := dimCol.Records()

		rows := make(map[string]int)
		miss := make(map[string]int)
		for i, key := range keys {
			rows[key]++
			if missingMask[i] {
				miss[key]++
			}
		}

		groups := make([]string, 0, len(rows))
		for key := range rows {
			groups = append(groups, key)
		}
		sort.Strings(groups)

		for _, key := range groups {
			ratio := float64(miss[key]) / float64(rows[key])
			skew := 0.0
			if overall > 0 {
				skew = ratio / overall
			}

			result.Groups = append(result.Groups, pipeline.GroupRatio{
				Dimension: dim,
				Group:     key,
				Rows:      rows[key],
				Missing:   miss[key],
				Ratio:     ratio,
				Skew:      skew,
			})

			if skew > policy.MaxGroupSkew {
				offenders = append(offenders, fmt.Sprintf("%s=%s ratio=%.4f skew=%.1fx",
					dim, key, ratio, skew))
			}
		}
	}

	if len(offenders) > 0 {
		return result, pipeline.NewGateError(pipeline.StageGate,
			fmt.Sprintf("target missingness is concentrated: %d group(s) exceed %.0fx the overall ratio of %.4f",
				len(offenders), policy.MaxGroupSkew, overall),
			map[string]interface{}{
				"overall_ratio": overall,
				"max_skew":      policy.MaxGroupSkew,
				"offenders":     offenders,
			})
	}

	maxSkew := 0.0
	if len(result.Groups) > 0 {
		skews := make([]float64, len(result.Groups))
		for i, g := range result.Groups {
			skews[i] = g.Skew
		}
		maxSkew = floats.Max(skews)
	}

	logger.InfoContext(ctx, "target gate passed",
		slog.String("target", policy.TargetColumn),
		slog.Int("missing", missing),
		slog.Float64("overall_ratio", overall),
		slog.Int("groups", len(result.Groups)),
		slog.Float64("max_skew", maxSkew))

	return result, nil
}

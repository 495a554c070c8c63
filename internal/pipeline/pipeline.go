// Package pipeline wires the five stages together: normalize, resolve,
// enrich, aggregate, serialize. Execution is deliberately sequential; the
// only throttle is the shared API rate limiter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/biosleuth/ko2pathway/internal/chart"
	"github.com/biosleuth/ko2pathway/internal/config"
	"github.com/biosleuth/ko2pathway/internal/enrich"
	"github.com/biosleuth/ko2pathway/internal/normalize"
	"github.com/biosleuth/ko2pathway/internal/resolve"
	"github.com/biosleuth/ko2pathway/internal/summary"
)

// Service is the external lookup surface the pipeline depends on, satisfied
// by kegg.Client.
type Service interface {
	resolve.Linker
	enrich.Describer
}

// Stats summarizes one run for logging and assertions.
type Stats struct {
	Records     int
	UniqueCodes int
	Edges       int
	Pathways    int
	SummaryRows int
	ChartRows   int
}

// Pipeline executes one batch run end to end.
type Pipeline struct {
	cfg     *config.Config
	service Service
	logger  *zap.Logger
}

// New builds a Pipeline.
func New(cfg *config.Config, service Service, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, service: service, logger: logger.Named("Pipeline")}
}

// Run executes the pipeline and writes the summary artifact (and optionally
// the chart). An empty summary is a valid terminal state: the artifact is
// still written and the chart step reports no data instead of failing.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	run := p.cfg.Run

	input, err := normalize.ParseFile(run.Input)
	if err != nil {
		return Stats{}, err
	}
	// Worst case every code and pathway is a live call; with the mandatory
	// inter-request delay that bounds run time, so say it up front.
	p.logger.Info("Input normalized",
		zap.Int("records", len(input.Records)),
		zap.Int("unique_codes", len(input.Codes)),
		zap.Duration("worst_case_api_time",
			time.Duration(len(input.Codes))*p.cfg.KEGG.RequestInterval))

	resolver := resolve.New(p.service, run.CachePath, p.logger)
	edges, err := resolver.Resolve(ctx, input.Codes)
	if err != nil {
		return Stats{}, err
	}

	pathwayIDs := uniquePathways(edges)
	descs, err := enrich.New(p.service, p.logger).Describe(ctx, pathwayIDs)
	if err != nil {
		return Stats{}, err
	}

	var exclusions []string
	if run.ExcludeFile != "" {
		exclusions, err = summary.LoadExclusions(run.ExcludeFile)
		if err != nil {
			return Stats{}, err
		}
		p.logger.Info("Loaded exclusion terms", zap.Int("terms", len(exclusions)))
	}

	rows := summary.Build(edges, descs, exclusions)
	if err := summary.WriteFile(run.Output, run.Format, rows); err != nil {
		return Stats{}, err
	}
	p.logger.Info("Summary written",
		zap.String("path", run.Output),
		zap.String("format", run.Format),
		zap.Int("rows", len(rows)))

	stats := Stats{
		Records:     len(input.Records),
		UniqueCodes: len(input.Codes),
		Edges:       len(edges),
		Pathways:    len(pathwayIDs),
		SummaryRows: len(rows),
	}

	if run.Plot {
		top := summary.Top(rows, run.TopN)
		stats.ChartRows = len(top)
		if err := p.renderChart(top, run.PlotFile); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (p *Pipeline) renderChart(top []summary.Row, path string) error {
	entries := make([]chart.Entry, len(top))
	for i, row := range top {
		entries[i] = chart.Entry{Label: row.Description, Count: row.KOCount}
	}

	opts := chart.Options{Size: p.cfg.Chart.Size, FontPath: p.cfg.Chart.FontPath}
	if err := chart.RenderFile(entries, opts, path); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			p.logger.Warn("Summary is empty after filtering, skipping chart",
				zap.String("path", path))
			return nil
		}
		return fmt.Errorf("rendering chart: %w", err)
	}
	p.logger.Info("Chart written",
		zap.String("path", path), zap.Int("bars", len(entries)))
	return nil
}

// uniquePathways returns the distinct pathway ids in edge order, which keeps
// downstream grouping deterministic.
func uniquePathways(edges []resolve.Edge) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range edges {
		if _, dup := seen[e.PathwayID]; dup {
			continue
		}
		seen[e.PathwayID] = struct{}{}
		ids = append(ids, e.PathwayID)
	}
	return ids
}

// Package engine assesses normality, picks parametric or nonparametric
// procedures for each analysis family and renders the result.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"statsmed/domain/analysis"
	"statsmed/domain/core"
	"statsmed/internal"
	"statsmed/internal/config"
	"statsmed/internal/errors"
	"statsmed/internal/estimate"
	"statsmed/internal/hypotest"
	"statsmed/internal/metrics"
	"statsmed/internal/normality"
	"statsmed/internal/rankdist"
	"statsmed/internal/report"
	"statsmed/ports"
)

// Engine runs analyses. It is safe for concurrent use; the only shared
// state is the distribution table cache.
type Engine struct {
	cfg       *config.Config
	logger    *internal.Logger
	cache     *rankdist.Cache
	estimator *estimate.Estimator
	tester    *hypotest.Tester
	assessor  *normality.Assessor
	formatter *report.Formatter
	figures   ports.FigureRenderer
	metrics   *metrics.Metrics
}

// Option configures an Engine
type Option func(*Engine)

func WithLogger(l *internal.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCache shares a distribution table cache between engines.
func WithCache(c *rankdist.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithFigureRenderer attaches the plotting collaborator. Without one,
// reports carry no figure.
func WithFigureRenderer(r ports.FigureRenderer) Option {
	return func(e *Engine) { e.figures = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *metrics.Metrics
)

// New validates cfg (config.Default() when nil) and wires the engine.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		if cfg.Log.Level == "" {
			e.logger = internal.NewDefaultLogger()
		} else {
			e.logger = internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
		}
	}
	if e.metrics == nil && cfg.Metrics.Enabled {
		defaultMetricsOnce.Do(func() {
			defaultMetrics = metrics.NewMetrics(prometheus.DefaultRegisterer)
		})
		e.metrics = defaultMetrics
	}
	if e.cache == nil {
		var policy rankdist.EvictionPolicy = rankdist.NoEviction{}
		if cfg.Cache.Capacity > 0 {
			policy = rankdist.NewLRUPolicy(cfg.Cache.Capacity)
		}
		e.cache = rankdist.NewCache(
			rankdist.WithEvictionPolicy(policy),
			rankdist.WithMaxCells(cfg.Cache.MaxCells),
			rankdist.WithLogger(e.logger),
			rankdist.WithMetrics(e.metrics),
		)
	}

	dist := rankdist.NewDistributions(e.cache)
	e.estimator = estimate.NewEstimator(dist)
	e.tester = hypotest.NewTester(dist)
	e.assessor = normality.NewAssessor(cfg.Analysis.NormalityAlpha, e.logger)
	e.formatter = report.NewFormatter(cfg.Analysis.Precision)
	return e, nil
}

// Cache returns the distribution table cache.
func (e *Engine) Cache() *rankdist.Cache { return e.cache }

// ParseMode resolves a mode name; the empty string selects the configured
// default mode.
func (e *Engine) ParseMode(name string) (analysis.Mode, error) {
	if name == "" {
		name = e.cfg.Analysis.DefaultMode
	}
	mode, err := analysis.ParseMode(name)
	if err != nil {
		return mode, errors.ParameterCause("engine.parse_mode", err, errors.Inputs{"mode": name})
	}
	return mode, nil
}

// Run analyses the request and renders its report. Any error aborts the
// whole call; no partial report is returned.
func (e *Engine) Run(ctx context.Context, req analysis.Request) (*analysis.TestReport, error) {
	start := time.Now()
	logger := e.logger.With("family", string(req.Family), "mode", req.Mode.String())
	rep, err := e.run(ctx, req)
	if err != nil {
		e.metrics.RecordError(string(req.Family), errors.GetCode(err))
		logger.Warn("analysis failed: %v", err)
		return nil, err
	}
	elapsed := time.Since(start)
	e.metrics.RecordAnalysis(string(req.Family), req.Mode.String(), elapsed)
	logger.Debug("report %s rendered in %s", rep.ID, elapsed)
	return rep, nil
}

func (e *Engine) run(ctx context.Context, req analysis.Request) (*analysis.TestReport, error) {
	outcome, err := e.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep, err := e.formatter.Render(outcome)
	if err != nil {
		return nil, err
	}

	if outcome.Figure != nil && e.figures != nil {
		ref, err := e.figures.Render(ctx, *outcome.Figure)
		if err != nil {
			return nil, errors.Wrapf(err, "rendering %s figure", outcome.Figure.Kind)
		}
		rep.Figure = &ref
	}
	return rep, nil
}

// Analyze computes the outcome of a request without rendering it.
func (e *Engine) Analyze(ctx context.Context, req analysis.Request) (*analysis.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Mode.Valid() {
		return nil, errors.ParameterCause("engine.analyze", core.ErrUnknownMode, errors.Inputs{"mode": int(req.Mode)})
	}

	switch req.Family {
	case analysis.FamilyNormality:
		return e.Normality(req)
	case analysis.FamilyDescriptive:
		return e.Describe(req)
	case analysis.FamilyComparison:
		return e.Compare(req)
	case analysis.FamilyCorrelation:
		return e.Correlate(req)
	case analysis.FamilyNonInferiority:
		return e.NonInferiority(req)
	case analysis.FamilyNonSuperiority:
		return e.NonSuperiority(req)
	case analysis.FamilyRelativeDifference:
		return e.RelativeDifference(req)
	case analysis.FamilyAgreement:
		return e.Agreement(req)
	case analysis.FamilySampleSize:
		return e.SampleSize(req)
	default:
		return nil, errors.ParameterCause("engine.analyze", core.ErrUnknownFamily, errors.Inputs{"family": string(req.Family)})
	}
}

// RunBatch runs requests concurrently on at most Batch.Workers
// goroutines. Reports keep the order of reqs. The first error cancels the
// remaining requests and is returned.
func (e *Engine) RunBatch(ctx context.Context, reqs []analysis.Request) ([]*analysis.TestReport, error) {
	reports := make([]*analysis.TestReport, len(reqs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Batch.Workers)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rep, err := e.Run(gCtx, req)
			if err != nil {
				return errors.Wrapf(err, "request %d (%s)", i, req.Family)
			}
			reports[i] = rep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("batch of %d analyses completed", len(reqs))
	return reports, nil
}

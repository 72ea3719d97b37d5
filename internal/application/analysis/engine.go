// Package analysis orchestrates analysis runs: the Engine turns a request
// snapshot (and optional social posts) into a Document, and the Service wraps
// it with loading, sanitation, caching, archival and event publication.
package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
	"github.com/turtacn/CivicPulse/pkg/types/common"
)

// Stage names used in logs and the stage duration metric.
const (
	StageClustering    = "clustering"
	StageHotspots      = "hotspots"
	StageCategories    = "categories"
	StageNeighborhoods = "neighborhoods"
	StageGaps          = "gaps"
)

// Metric names recorded by this package.
const (
	metricRunsTotal            = "analysis_runs_total"
	metricRunDuration          = "analysis_run_duration_seconds"
	metricStageDuration        = "analysis_stage_duration_seconds"
	metricInputRecords         = "analysis_input_records"
	metricHotspots             = "analysis_hotspots"
	metricHighPriorityHotspots = "analysis_high_priority_hotspots"
	metricGapNeighborhoods     = "analysis_gap_neighborhoods"
	metricCacheRequests        = "cache_requests_total"
)

// Input is one engine invocation. Posts == nil means the weak-signal dataset
// is absent; the gap list is then empty.
type Input struct {
	Requests *servicerequest.Dataset
	Posts    []servicerequest.WeakSignalPost
}

// Engine runs the analysis pipeline. It holds no per-run state and is safe
// for concurrent use.
type Engine struct {
	params      domainanalysis.Parameters
	categorizer *servicerequest.Categorizer
	logger      logging.Logger
	metrics     MetricsCollector
	now         func() time.Time
	newRunID    func() common.RunID
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m MetricsCollector) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock replaces time.Now; the neighborhood windows and generated_at are
// measured against it.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithCategorizer overrides the request type rules.
func WithCategorizer(c *servicerequest.Categorizer) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.categorizer = c
		}
	}
}

// WithRunIDGenerator overrides run id generation.
func WithRunIDGenerator(fn func() common.RunID) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// NewEngine validates params and returns an Engine.
func NewEngine(params domainanalysis.Parameters, opts ...EngineOption) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidParameters, "invalid analysis parameters")
	}
	e := &Engine{
		params:      params,
		categorizer: servicerequest.NewCategorizer(nil),
		logger:      logging.NewNopLogger(),
		metrics:     noopMetrics{},
		now:         time.Now,
		newRunID:    common.NewRunID,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Parameters returns the policy the engine runs with.
func (e *Engine) Parameters() domainanalysis.Parameters {
	return e.params
}

// Analyze runs one analysis with a fresh run id.
func (e *Engine) Analyze(ctx context.Context, in Input) (*domainanalysis.Document, error) {
	return e.AnalyzeRun(ctx, e.newRunID(), in)
}

// AnalyzeRun runs one analysis under the given run id.
func (e *Engine) AnalyzeRun(ctx context.Context, runID common.RunID, in Input) (doc *domainanalysis.Document, err error) {
	start := time.Now()
	log := e.logger.Named("engine").With(logging.String("run_id", runID.String()))
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
			if errors.IsInputError(err) {
				status = "rejected"
			}
		}
		e.metrics.IncCounter(metricRunsTotal, map[string]string{"status": status})
		e.metrics.ObserveHistogram(metricRunDuration, time.Since(start).Seconds(), nil)
	}()

	if err := checkInput(in); err != nil {
		log.Warn("input rejected", logging.Err(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCanceled, "analysis canceled")
	}

	ds := in.Requests
	now := e.now().UTC()
	log.Info("analysis started",
		logging.Int("requests", ds.Len()),
		logging.Int("posts", len(in.Posts)),
		logging.Bool("posts_present", in.Posts != nil),
		logging.Strings("columns", ds.Fields.Names()))

	var (
		hotspots      []domainanalysis.Hotspot
		categories    domainanalysis.CategoryStats
		neighborhoods map[string]domainanalysis.NeighborhoodSummary
		gaps          []domainanalysis.GapRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var assignment domainanalysis.Assignment
		e.stage(log, StageClustering, func() int {
			clusterer := domainanalysis.NewClusterer(e.params.EpsMeters, e.params.MinSamples, e.params.UseSpatialIndex)
			assignment = clusterer.Cluster(domainanalysis.PointsFromDataset(ds))
			return assignment.Clusters
		})

		var buildErr error
		e.stage(log, StageHotspots, func() int {
			builder := domainanalysis.NewHotspotBuilder(domainanalysis.PolicyFromParameters(e.params), e.params.Workers)
			hotspots, buildErr = builder.Build(gctx, ds, assignment)
			return len(hotspots)
		})
		if buildErr != nil {
			return buildErr
		}

		e.stage(log, StageCategories, func() int {
			categories = domainanalysis.NewCategoryCalculator(e.categorizer).Calculate(ds, hotspots)
			return len(categories)
		})
		return nil
	})
	g.Go(func() error {
		e.stage(log, StageNeighborhoods, func() int {
			neighborhoods = domainanalysis.NewNeighborhoodAggregator(e.params.TrendWindowDays).Aggregate(ds, now)
			return len(neighborhoods)
		})
		return nil
	})
	g.Go(func() error {
		e.stage(log, StageGaps, func() int {
			gaps = domainanalysis.NewGapAnalyzer(e.params.GapMinSignal, e.params.GapMeanFraction).Analyze(ds, in.Posts)
			return len(gaps)
		})
		return nil
	})
	if werr := g.Wait(); werr != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(werr, errors.ErrCodeCanceled, "analysis canceled")
		}
		return nil, errors.Wrap(werr, errors.ErrCodeAnalysisFailed, "analysis failed")
	}

	doc = &domainanalysis.Document{
		Summary:       buildSummary(runID, ds, hotspots, neighborhoods, gaps, now),
		Hotspots:      hotspots,
		Neighborhoods: neighborhoods,
		Gaps:          gaps,
		CategoryStats: categories,
	}
	doc.Normalize()

	e.metrics.SetGauge(metricInputRecords, float64(ds.Len()), nil)
	e.metrics.SetGauge(metricHotspots, float64(doc.Summary.ChronicHotspots), nil)
	e.metrics.SetGauge(metricHighPriorityHotspots, float64(doc.Summary.HighPriorityHotspots), nil)
	e.metrics.SetGauge(metricGapNeighborhoods, float64(doc.Summary.GapNeighborhoods), nil)

	log.Info("analysis finished",
		logging.Int("chronic_hotspots", doc.Summary.ChronicHotspots),
		logging.Int("high_priority_hotspots", doc.Summary.HighPriorityHotspots),
		logging.Int("neighborhoods", doc.Summary.NeighborhoodsAnalyzed),
		logging.Int("gap_neighborhoods", doc.Summary.GapNeighborhoods),
		logging.Duration("elapsed", time.Since(start)))
	return doc, nil
}

// stage runs fn, which returns its output size, and records its duration.
func (e *Engine) stage(log logging.Logger, name string, fn func() int) {
	start := time.Now()
	n := fn()
	elapsed := time.Since(start)
	e.metrics.ObserveHistogram(metricStageDuration, elapsed.Seconds(), map[string]string{"stage": name})
	log.Debug("stage finished",
		logging.String("stage", name),
		logging.Int("results", n),
		logging.Duration("elapsed", elapsed))
}

func checkInput(in Input) error {
	if in.Requests.Len() == 0 {
		return errors.New(errors.ErrCodeEmptyDataset, "no service requests to analyze")
	}
	if in.Requests.CountWithCoordinates() == 0 {
		return errors.New(errors.ErrCodeMissingCoordinates, "no service request has usable coordinates")
	}
	return nil
}

func buildSummary(
	runID common.RunID,
	ds *servicerequest.Dataset,
	hotspots []domainanalysis.Hotspot,
	neighborhoods map[string]domainanalysis.NeighborhoodSummary,
	gaps []domainanalysis.GapRecord,
	now time.Time,
) domainanalysis.Summary {
	s := domainanalysis.Summary{
		RunID:                 runID.String(),
		TotalRequests:         ds.Len(),
		ChronicHotspots:       len(hotspots),
		NeighborhoodsAnalyzed: len(neighborhoods),
		GapNeighborhoods:      len(gaps),
		GeneratedAt:           now,
	}
	if start, end, ok := ds.DateRange(); ok {
		s.DateRange = domainanalysis.DateRange{Start: &start, End: &end}
	}
	for i := range hotspots {
		if hotspots[i].IsHighPriority {
			s.HighPriorityHotspots++
		}
	}
	return s
}

//Personal.AI order the ending

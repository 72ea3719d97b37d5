package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
	"github.com/turtacn/CivicPulse/pkg/types/common"
)

const (
	defaultCacheTTL     = time.Hour
	cacheKeyPrefixDoc   = "analysis:doc:"
	cacheKeyLatest      = "analysis:latest"
	latestCacheTTL      = 7 * 24 * time.Hour
	inputNameRequests   = "requests.json"
	inputNamePosts      = "posts.json"
	inputNameSanitation = "sanitize.json"
)

// ServiceConfig holds tuneable parameters.
type ServiceConfig struct {
	// Bounds drops requests outside the box before analysis; zero disables.
	Bounds servicerequest.BoundingBox
	// DefaultSource names the SourceSet used when a request names none.
	DefaultSource string
	CacheTTL      time.Duration
}

// RunRequest parameterises Service.Run.
type RunRequest struct {
	RunID       common.RunID
	Source      string
	NoCache     bool
	Archive     bool
	TriggeredBy string
}

// RunResult is the outcome of a successful run.
type RunResult struct {
	RunID      common.RunID
	Document   *domainanalysis.Document
	Sanitize   servicerequest.SanitizeReport
	Digest     string
	CacheHit   bool
	ArchiveKey string
}

// Service loads inputs and runs the engine around them.
type Service struct {
	engine    atomic.Pointer[Engine]
	cache     Cache
	archive   Archive
	publisher EventPublisher
	indexer   DocumentIndexer
	logger    logging.Logger
	metrics   MetricsCollector
	config    ServiceConfig

	mu      sync.RWMutex
	sources map[string]SourceSet

	flight singleflight.Group
	latest atomic.Pointer[domainanalysis.Document]
}

// NewService wires a Service. cache, archive and publisher are optional.
func NewService(
	engine *Engine,
	cache Cache,
	archive Archive,
	publisher EventPublisher,
	logger logging.Logger,
	metrics MetricsCollector,
	config ServiceConfig,
) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaultCacheTTL
	}
	s := &Service{
		cache:     cache,
		archive:   archive,
		publisher: publisher,
		logger:    logger.Named("analysis"),
		metrics:   metrics,
		config:    config,
		sources:   make(map[string]SourceSet),
	}
	s.engine.Store(engine)
	return s
}

// Engine returns the current engine.
func (s *Service) Engine() *Engine {
	return s.engine.Load()
}

// SetEngine swaps the engine used by subsequent runs.
func (s *Service) SetEngine(e *Engine) {
	if e != nil {
		s.engine.Store(e)
		s.logger.Info("analysis parameters updated")
	}
}

// SetIndexer attaches an indexer that receives every document produced by
// Run or Analyze. Indexing failures are logged and do not fail the run.
func (s *Service) SetIndexer(idx DocumentIndexer) {
	s.indexer = idx
}

// RegisterSource makes a named input location available to Run.
func (s *Service) RegisterSource(name string, set SourceSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[name] = set
}

// Sources lists registered source names.
func (s *Service) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sources))
	for name := range s.sources {
		out = append(out, name)
	}
	return out
}

func (s *Service) source(name string) (SourceSet, error) {
	if name == "" {
		name = s.config.DefaultSource
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sources[name]
	if !ok || set.Requests == nil {
		return SourceSet{}, errors.Newf(errors.ErrCodeSourceUnavailable, "input source %q is not configured", name)
	}
	return set, nil
}

// Run loads the inputs from the requested source and analyzes them. Unless
// NoCache is set, a document computed earlier the same day from identical
// inputs is reused; concurrent runs over identical inputs share one engine
// invocation.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.RunID == "" {
		req.RunID = common.NewRunID()
	}
	log := s.logger.With(logging.String("run_id", req.RunID.String()), logging.String("source", req.Source))

	set, err := s.source(req.Source)
	if err != nil {
		return nil, err
	}
	in, report, err := s.load(ctx, set)
	if err != nil {
		log.Error("loading inputs failed", logging.Err(err))
		return nil, err
	}
	log.Info("inputs loaded",
		logging.Int("input", report.Input),
		logging.Int("kept", report.Kept),
		logging.Int("dropped_no_coordinates", report.DroppedNoCoords),
		logging.Int("dropped_out_of_bounds", report.DroppedOutOfBounds),
		logging.Int("dropped_duplicates", report.DroppedDuplicates),
		logging.Int("posts", len(in.Posts)))

	res, err := s.Analyze(ctx, req, in)
	if err != nil {
		return nil, err
	}
	res.Sanitize = report

	if req.Archive && s.archive != nil {
		s.archiveInputs(ctx, log, req.RunID, in, report)
	}
	return res, nil
}

// Analyze runs the engine on already loaded inputs with caching, archival
// and the latest-document bookkeeping of Run.
func (s *Service) Analyze(ctx context.Context, req RunRequest, in Input) (*RunResult, error) {
	if req.RunID == "" {
		req.RunID = common.NewRunID()
	}
	log := s.logger.With(logging.String("run_id", req.RunID.String()))
	engine := s.Engine()
	res := &RunResult{RunID: req.RunID}

	digest, derr := InputDigest(in, engine.Parameters(), engine.now())
	if derr != nil {
		log.Warn("input digest failed, caching disabled for this run", logging.Err(derr))
	}
	res.Digest = digest
	useCache := !req.NoCache && s.cache != nil && digest != ""

	if useCache {
		if doc, ok := s.cached(ctx, log, cacheKeyPrefixDoc+digest); ok {
			res.Document = doc
			res.CacheHit = true
		}
	}

	if res.Document == nil {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCanceled, "analysis canceled")
		}
		key := digest
		if key == "" || req.NoCache {
			key = req.RunID.String()
		}
		// The shared computation outlives any one caller; each caller stops
		// waiting on its own context.
		ch := s.flight.DoChan(key, func() (interface{}, error) {
			fctx := context.WithoutCancel(ctx)
			doc, err := engine.AnalyzeRun(fctx, req.RunID, in)
			if err == nil && useCache {
				s.store(fctx, log, cacheKeyPrefixDoc+digest, doc, s.config.CacheTTL)
			}
			return doc, err
		})
		select {
		case <-ctx.Done():
			log.Warn("run abandoned before analysis finished", logging.Err(ctx.Err()))
			return nil, errors.Wrap(ctx.Err(), errors.ErrCodeCanceled, "analysis canceled")
		case r := <-ch:
			if r.Err != nil {
				return nil, r.Err
			}
			if r.Shared {
				log.Debug("joined concurrent run over identical inputs")
			}
			res.Document = r.Val.(*domainanalysis.Document)
		}
	}
	res.Document = stampRun(res.Document, req.RunID)

	if req.Archive && s.archive != nil {
		data, err := EncodeDocument(res.Document, FormatJSON, false)
		if err != nil {
			return nil, err
		}
		key, err := s.archive.StoreDocument(ctx, req.RunID.String(), data)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeArchiveError, "archive document")
		}
		res.ArchiveKey = key
		log.Info("document archived", logging.String("key", key))
	}

	s.latest.Store(res.Document)
	if s.cache != nil {
		s.store(ctx, log, cacheKeyLatest, res.Document, latestCacheTTL)
	}
	if s.indexer != nil {
		if err := s.indexer.IndexDocument(ctx, req.RunID.String(), res.Document); err != nil {
			log.Warn("indexing document failed", logging.Err(err))
		}
	}
	return res, nil
}

// stampRun returns a shallow copy of doc carrying runID. Cached and shared
// documents keep the id of the run that computed them.
func stampRun(doc *domainanalysis.Document, runID common.RunID) *domainanalysis.Document {
	if doc.Summary.RunID == runID.String() {
		return doc
	}
	out := *doc
	out.Summary.RunID = runID.String()
	return &out
}

// Latest returns the most recent document known to this process, the cache
// or the archive, in that order.
func (s *Service) Latest(ctx context.Context) (*domainanalysis.Document, error) {
	if doc := s.latest.Load(); doc != nil {
		return doc, nil
	}
	if s.cache != nil {
		if doc, ok := s.cached(ctx, s.logger, cacheKeyLatest); ok {
			return doc, nil
		}
	}
	if s.archive != nil {
		data, err := s.archive.LatestDocument(ctx)
		switch {
		case err == nil:
			return DecodeDocument(data)
		case !errors.IsNotFound(err):
			return nil, errors.Wrap(err, errors.ErrCodeArchiveError, "read latest document")
		}
	}
	return nil, errors.New(errors.ErrCodeDocumentNotFound, "no analysis has completed yet")
}

// Preview sanitizes and analyzes in without consulting or updating the
// cache, the archive or the latest document.
func (s *Service) Preview(ctx context.Context, in Input) (*domainanalysis.Document, servicerequest.SanitizeReport, error) {
	ds, report := servicerequest.Sanitize(in.Requests, servicerequest.SanitizeOptions{Bounds: s.config.Bounds})
	doc, err := s.Engine().Analyze(ctx, Input{Requests: ds, Posts: in.Posts})
	if err != nil {
		return nil, report, err
	}
	return doc, report, nil
}

// HandleRunRequested runs a queued request and publishes its outcome. Input
// rejections are reported on the bus and not returned, so the message is not
// retried.
func (s *Service) HandleRunRequested(ctx context.Context, msg RunRequested) error {
	runID := common.RunID(msg.RunID)
	if !runID.Valid() {
		runID = common.NewRunID()
	}
	res, err := s.Run(ctx, RunRequest{
		RunID:       runID,
		Source:      msg.Source,
		NoCache:     msg.NoCache,
		Archive:     msg.Archive,
		TriggeredBy: msg.TriggeredBy,
	})

	if s.publisher != nil {
		evt := completedEvent(runID.String(), res, err, time.Now().UTC())
		if perr := s.publisher.PublishRunCompleted(ctx, evt); perr != nil {
			s.logger.Warn("publishing run completion failed",
				logging.String("run_id", runID.String()), logging.Err(perr))
		}
	}
	if err != nil && errors.IsInputError(err) {
		s.logger.Warn("run rejected", logging.String("run_id", runID.String()), logging.Err(err))
		return nil
	}
	return err
}

func (s *Service) load(ctx context.Context, set SourceSet) (Input, servicerequest.SanitizeReport, error) {
	raw, err := set.Requests.LoadRequests(ctx)
	if err != nil {
		return Input{}, servicerequest.SanitizeReport{}, sourceError(err, "load service requests")
	}
	var posts []servicerequest.WeakSignalPost
	if set.Posts != nil {
		posts, err = set.Posts.LoadPosts(ctx)
		if err != nil {
			return Input{}, servicerequest.SanitizeReport{}, sourceError(err, "load weak-signal posts")
		}
	}
	ds, report := servicerequest.Sanitize(raw, servicerequest.SanitizeOptions{Bounds: s.config.Bounds})
	return Input{Requests: ds, Posts: posts}, report, nil
}

// sourceError keeps coded errors and classifies the rest as unavailable.
func sourceError(err error, msg string) error {
	if errors.GetCode(err) != errors.ErrCodeUnknown {
		return err
	}
	return errors.Wrap(err, errors.ErrCodeSourceUnavailable, msg)
}

func (s *Service) cached(ctx context.Context, log logging.Logger, key string) (*domainanalysis.Document, bool) {
	data, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
	case errors.IsNotFound(err):
		s.metrics.IncCounter(metricCacheRequests, map[string]string{"result": "miss"})
		return nil, false
	default:
		s.metrics.IncCounter(metricCacheRequests, map[string]string{"result": "error"})
		log.Warn("cache read failed", logging.String("key", key), logging.Err(err))
		return nil, false
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		s.metrics.IncCounter(metricCacheRequests, map[string]string{"result": "error"})
		log.Warn("discarding undecodable cache entry", logging.String("key", key), logging.Err(err))
		return nil, false
	}
	s.metrics.IncCounter(metricCacheRequests, map[string]string{"result": "hit"})
	return doc, true
}

func (s *Service) store(ctx context.Context, log logging.Logger, key string, doc *domainanalysis.Document, ttl time.Duration) {
	data, err := json.Marshal(doc)
	if err == nil {
		err = s.cache.Set(ctx, key, data, ttl)
	}
	if err != nil {
		log.Warn("cache write failed", logging.String("key", key), logging.Err(err))
	}
}

func (s *Service) archiveInputs(ctx context.Context, log logging.Logger, runID common.RunID, in Input, report servicerequest.SanitizeReport) {
	items := []struct {
		name string
		v    interface{}
	}{
		{inputNameRequests, in.Requests},
		{inputNameSanitation, report},
	}
	if in.Posts != nil {
		items = append(items, struct {
			name string
			v    interface{}
		}{inputNamePosts, in.Posts})
	}
	for _, it := range items {
		data, err := json.Marshal(it.v)
		if err != nil {
			log.Warn("encoding archived input failed", logging.String("name", it.name), logging.Err(err))
			continue
		}
		if _, err := s.archive.StoreInput(ctx, runID.String(), it.name, data); err != nil {
			log.Warn("archiving input failed", logging.String("name", it.name), logging.Err(err))
		}
	}
}

// String implements fmt.Stringer for log output.
func (r *RunResult) String() string {
	if r == nil || r.Document == nil {
		return "<nil>"
	}
	return fmt.Sprintf("run %s: %d hotspots, cache_hit=%t", r.RunID, len(r.Document.Hotspots), r.CacheHit)
}

//Personal.AI order the ending

// Package scheduler enqueues periodic analysis runs on a cron schedule.
// Every replica may run a scheduler; a short Redis lease per tick makes sure
// only one of them enqueues the run.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
	"github.com/turtacn/CivicPulse/pkg/types/common"
)

// TriggeredBy marks run requests the scheduler enqueued.
const TriggeredBy = "scheduler"

const tickTimeout = 30 * time.Second

// Leaser grants a named lease for ttl. *redis.LockFactory implements it.
type Leaser interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// Scheduler fires RequestRun on every tick of its cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	schedule  cron.Schedule
	spec      string
	location  *time.Location
	requester analysis.RunRequester
	leaser    Leaser
	source    string
	archive   bool
	lockTTL   time.Duration
	logger    logging.Logger
	now       func() time.Time

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// New parses cfg.Cron in cfg.Timezone. leaser may be nil, in which case
// every replica enqueues on every tick.
func New(cfg config.SchedulerConfig, requester analysis.RunRequester, leaser Leaser, log logging.Logger) (*Scheduler, error) {
	if requester == nil {
		return nil, errors.New(errors.ErrCodeInvalidParam, "scheduler requires a run requester")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigurationErr, "load scheduler timezone").WithDetail(cfg.Timezone)
		}
		loc = l
	}
	schedule, err := cron.ParseStandard(cfg.Cron)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigurationErr, "parse cron schedule").WithDetail(cfg.Cron)
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = config.DefaultSchedulerLockTTL
	}

	log = log.Named("scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
			cron.WithLogger(cronLogger{log}),
		),
		schedule:  schedule,
		spec:      cfg.Cron,
		location:  loc,
		requester: requester,
		leaser:    leaser,
		source:    cfg.Source,
		archive:   cfg.Archive,
		lockTTL:   ttl,
		logger:    log,
		now:       time.Now,
	}, nil
}

// Start registers the job and starts the cron loop. Calling it twice is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.entryID = s.cron.Schedule(s.schedule, cron.FuncJob(s.fire))
	s.cron.Start()
	s.started = true
	s.logger.Info("Scheduler started",
		logging.String("cron", s.spec),
		logging.String("timezone", s.location.String()),
		logging.Time("next", s.Next()))
}

// Stop halts the loop and returns a context that is done once the running
// tick, if any, has finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	s.started = false
	s.cron.Remove(s.entryID)
	return s.cron.Stop()
}

// Next returns the next activation after now in the schedule's timezone.
func (s *Scheduler) Next() time.Time {
	return s.schedule.Next(s.now().In(s.location))
}

func (s *Scheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()
	if _, err := s.Tick(ctx, s.now()); err != nil {
		s.logger.Error("scheduled run not enqueued", logging.Err(err))
	}
}

// Tick enqueues the run for the activation at `at`. It reports false when
// another replica already holds the lease for that activation.
func (s *Scheduler) Tick(ctx context.Context, at time.Time) (bool, error) {
	slot := at.In(s.location).Truncate(time.Minute)
	if s.leaser != nil {
		ok, err := s.leaser.Acquire(ctx, LeaseName(slot), s.lockTTL)
		if err != nil {
			return false, err
		}
		if !ok {
			s.logger.Debug("tick handled by another replica", logging.Time("slot", slot))
			return false, nil
		}
	}

	req := analysis.RunRequested{
		RunID:       common.NewRunID().String(),
		Source:      s.source,
		Archive:     s.archive,
		TriggeredBy: TriggeredBy,
		RequestedAt: at.UTC(),
	}
	if err := s.requester.RequestRun(ctx, req); err != nil {
		return false, err
	}
	s.logger.Info("Scheduled run enqueued",
		logging.String("run_id", req.RunID),
		logging.Time("slot", slot))
	return true, nil
}

// LeaseName is the lease key for one activation minute.
func LeaseName(slot time.Time) string {
	return "scheduler:" + slot.UTC().Format("200601021504")
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(kvFields(keysAndValues), logging.Err(err))...)
}

func kvFields(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, logging.Any(key, kv[i+1]))
	}
	return fields
}

//Personal.AI order the ending

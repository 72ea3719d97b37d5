package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// DefaultRecentRuns is the page size Recent uses when limit is not positive.
const DefaultRecentRuns = 20

type runRow struct {
	RunID                string    `db:"run_id"`
	Status               string    `db:"status"`
	ErrorCode            string    `db:"error_code"`
	ErrorMessage         string    `db:"error_message"`
	Digest               string    `db:"digest"`
	CacheHit             bool      `db:"cache_hit"`
	ArchiveKey           string    `db:"archive_key"`
	TotalRequests        int       `db:"total_requests"`
	ChronicHotspots      int       `db:"chronic_hotspots"`
	HighPriorityHotspots int       `db:"high_priority_hotspots"`
	GapNeighborhoods     int       `db:"gap_neighborhoods"`
	CompletedAt          time.Time `db:"completed_at"`
}

const (
	upsertRunSQL = `
		INSERT INTO analysis_runs (
			run_id, status, error_code, error_message, digest, cache_hit, archive_key,
			total_requests, chronic_hotspots, high_priority_hotspots, gap_neighborhoods, completed_at
		) VALUES (
			:run_id, :status, :error_code, :error_message, :digest, :cache_hit, :archive_key,
			:total_requests, :chronic_hotspots, :high_priority_hotspots, :gap_neighborhoods, :completed_at
		)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			error_code = EXCLUDED.error_code,
			error_message = EXCLUDED.error_message,
			digest = EXCLUDED.digest,
			cache_hit = EXCLUDED.cache_hit,
			archive_key = EXCLUDED.archive_key,
			total_requests = EXCLUDED.total_requests,
			chronic_hotspots = EXCLUDED.chronic_hotspots,
			high_priority_hotspots = EXCLUDED.high_priority_hotspots,
			gap_neighborhoods = EXCLUDED.gap_neighborhoods,
			completed_at = EXCLUDED.completed_at`

	selectRecentRunsSQL = `
		SELECT run_id, status, error_code, error_message, digest, cache_hit, archive_key,
		       total_requests, chronic_hotspots, high_priority_hotspots, gap_neighborhoods, completed_at
		FROM analysis_runs
		ORDER BY completed_at DESC
		LIMIT $1`
)

// RunRepository keeps the history of finished runs. It satisfies
// analysis.EventPublisher so it can sit next to the broker publisher.
type RunRepository struct {
	db  *sqlx.DB
	log logging.Logger
}

// NewRunRepository binds the repository to conn.
func NewRunRepository(conn *postgres.Connection, log logging.Logger) *RunRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &RunRepository{db: conn.DBX(), log: log}
}

var _ analysis.EventPublisher = (*RunRepository)(nil)

// Record stores evt, replacing an earlier record of the same run.
func (r *RunRepository) Record(ctx context.Context, evt analysis.RunCompleted) error {
	if evt.RunID == "" {
		return errors.New(errors.ErrCodeValidation, "run id is required")
	}
	row := runRow{
		RunID:                evt.RunID,
		Status:               evt.Status,
		ErrorCode:            evt.ErrorCode,
		ErrorMessage:         evt.Error,
		Digest:               evt.Digest,
		CacheHit:             evt.CacheHit,
		ArchiveKey:           evt.ArchiveKey,
		TotalRequests:        evt.TotalRequests,
		ChronicHotspots:      evt.ChronicHotspots,
		HighPriorityHotspots: evt.HighPriorityHotspots,
		GapNeighborhoods:     evt.GapNeighborhoods,
		CompletedAt:          evt.CompletedAt.UTC(),
	}
	if _, err := sqlx.NamedExecContext(ctx, r.db, upsertRunSQL, row); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record analysis run").WithDetail(evt.RunID)
	}
	r.log.Debug("Recorded analysis run", logging.String("run_id", evt.RunID), logging.String("status", evt.Status))
	return nil
}

// PublishRunCompleted records evt.
func (r *RunRepository) PublishRunCompleted(ctx context.Context, evt analysis.RunCompleted) error {
	return r.Record(ctx, evt)
}

// Recent returns the newest runs first.
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]analysis.RunCompleted, error) {
	if limit <= 0 {
		limit = DefaultRecentRuns
	}
	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, selectRecentRunsSQL, limit); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list analysis runs")
	}
	out := make([]analysis.RunCompleted, len(rows))
	for i, row := range rows {
		out[i] = analysis.RunCompleted{
			RunID:                row.RunID,
			Status:               row.Status,
			ErrorCode:            row.ErrorCode,
			Error:                row.ErrorMessage,
			Digest:               row.Digest,
			CacheHit:             row.CacheHit,
			ArchiveKey:           row.ArchiveKey,
			TotalRequests:        row.TotalRequests,
			ChronicHotspots:      row.ChronicHotspots,
			HighPriorityHotspots: row.HighPriorityHotspots,
			GapNeighborhoods:     row.GapNeighborhoods,
			CompletedAt:          row.CompletedAt.UTC(),
		}
	}
	return out, nil
}

//Personal.AI order the ending

package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

type postRow struct {
	ID            string         `db:"post_id"`
	Category      string         `db:"category"`
	Title         string         `db:"title"`
	Body          string         `db:"body"`
	CreatedAt     sql.NullTime   `db:"created_at"`
	LocationHints pq.StringArray `db:"location_hints"`
}

func toPostRow(p *servicerequest.WeakSignalPost) postRow {
	hints := pq.StringArray(p.LocationHints)
	if hints == nil {
		hints = pq.StringArray{}
	}
	return postRow{
		ID:            p.ID,
		Category:      p.Category,
		Title:         p.Title,
		Body:          p.Text,
		CreatedAt:     nullTime(p.CreatedAt),
		LocationHints: hints,
	}
}

func (row *postRow) toDomain() servicerequest.WeakSignalPost {
	hints := []string(row.LocationHints)
	if hints == nil {
		hints = []string{}
	}
	return servicerequest.WeakSignalPost{
		ID:            row.ID,
		Category:      row.Category,
		Title:         row.Title,
		Text:          row.Body,
		CreatedAt:     timePtr(row.CreatedAt),
		LocationHints: hints,
	}
}

const (
	selectPostsSQL = `
		SELECT post_id, category, title, body, created_at, location_hints
		FROM weak_signal_posts
		ORDER BY post_id`

	upsertPostSQL = `
		INSERT INTO weak_signal_posts (post_id, category, title, body, created_at, location_hints)
		VALUES (:post_id, :category, :title, :body, :created_at, :location_hints)
		ON CONFLICT (post_id) DO UPDATE SET
			category = EXCLUDED.category,
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			created_at = EXCLUDED.created_at,
			location_hints = EXCLUDED.location_hints,
			imported_at = NOW()`
)

// PostRepository stores weak-signal posts. It is a servicerequest.PostSource.
type PostRepository struct {
	db  *sqlx.DB
	log logging.Logger
}

// NewPostRepository binds the repository to conn.
func NewPostRepository(conn *postgres.Connection, log logging.Logger) *PostRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &PostRepository{db: conn.DBX(), log: log}
}

var _ servicerequest.PostSource = (*PostRepository)(nil)

// LoadPosts returns the staged posts, or nil when none are staged.
func (r *PostRepository) LoadPosts(ctx context.Context) ([]servicerequest.WeakSignalPost, error) {
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, selectPostsSQL); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "failed to load weak-signal posts")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	posts := make([]servicerequest.WeakSignalPost, len(rows))
	for i := range rows {
		posts[i] = rows[i].toDomain()
	}
	return posts, nil
}

// Import upserts posts in one transaction.
func (r *PostRepository) Import(ctx context.Context, posts []servicerequest.WeakSignalPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, upsertPostSQL)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to prepare post upsert")
		}
		defer stmt.Close()

		for i := range posts {
			if posts[i].ID == "" {
				return errors.Newf(errors.ErrCodeValidation, "post %d has no id", i)
			}
			if _, err := stmt.ExecContext(ctx, toPostRow(&posts[i])); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert post").WithDetail(posts[i].ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.log.Info("Imported weak-signal posts", logging.Int("count", len(posts)))
	return len(posts), nil
}

//Personal.AI order the ending

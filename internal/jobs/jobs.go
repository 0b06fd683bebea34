// Package jobs stores job-post submissions collected by the /postajob flow.
// Submissions wait for admin review before being published to the channel.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/habtamu-tamere/Bot/internal/logging"
)

// Job is one submitted job post.
type Job struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Username    string    `db:"username"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Contact     string    `db:"contact_info"`
	CreatedAt   time.Time `db:"created_at"`
}

// ErrNotFound is returned when a job id does not exist.
var ErrNotFound = errors.New("jobs: not found")

// Repository persists job submissions.
type Repository interface {
	Create(ctx context.Context, j Job) (int64, error)
	Get(ctx context.Context, id int64) (Job, error)
	List(ctx context.Context) ([]Job, error)
}

// SQLRepository is the sqlx-backed job store.
type SQLRepository struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewSQLRepository wraps an open database handle.
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db:  db,
		log: logging.Component("repo.jobs"),
	}
}

// Create inserts a submission and returns its id.
func (r *SQLRepository) Create(ctx context.Context, j Job) (int64, error) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`
		INSERT INTO jobs (user_id, username, title, description, contact_info, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)
	var id int64
	if err := r.db.GetContext(ctx, &id, query,
		j.UserID, j.Username, j.Title, j.Description, j.Contact, j.CreatedAt,
	); err != nil {
		return 0, err
	}
	r.log.LogAttrs(ctx, slog.LevelInfo, "job.insert",
		slog.String("status", "ok"),
		slog.Int64("job_id", id),
		slog.Int64("user_id", j.UserID),
	)
	return id, nil
}

// Get loads one submission by id.
func (r *SQLRepository) Get(ctx context.Context, id int64) (Job, error) {
	var j Job
	query := r.db.Rebind(`SELECT * FROM jobs WHERE id = ?`)
	if err := r.db.GetContext(ctx, &j, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return j, nil
}

// List returns submissions newest first.
func (r *SQLRepository) List(ctx context.Context) ([]Job, error) {
	var out []Job
	if err := r.db.SelectContext(ctx, &out, `SELECT * FROM jobs ORDER BY id DESC`); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Repository = (*SQLRepository)(nil)

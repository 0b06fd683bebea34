// Package cvs stores CV drafts collected by the /makecv flow and renders them
// into the text users copy into job applications.
package cvs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/habtamu-tamere/Bot/internal/logging"
)

// CV is one draft collected from a user.
type CV struct {
	ID         int64
	UserID     int64
	FullName   string
	Headline   string
	Skills     []string
	Experience string
	CreatedAt  time.Time
}

// ParseSkills splits a comma-separated skills line into trimmed entries.
func ParseSkills(line string) []string {
	parts := strings.Split(line, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Render formats the CV as plain text for the user to copy.
func (c CV) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 PROFESSIONAL CV — %s\n", c.FullName)
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "🎯 %s\n\n", c.Headline)
	b.WriteString("🛠️ SKILLS:\n")
	for _, s := range c.Skills {
		fmt.Fprintf(&b, "• %s\n", s)
	}
	b.WriteString("\n💼 EXPERIENCE:\n")
	b.WriteString(c.Experience)
	b.WriteString("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	return b.String()
}

// Repository persists CV drafts.
type Repository interface {
	Create(ctx context.Context, cv CV) (int64, error)
}

// SQLRepository is the sqlx-backed draft store.
type SQLRepository struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewSQLRepository wraps an open database handle.
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db:  db,
		log: logging.Component("repo.cvs"),
	}
}

type cvRow struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	FullName   string    `db:"full_name"`
	Headline   string    `db:"headline"`
	Skills     string    `db:"skills"`
	Experience string    `db:"experience"`
	CreatedAt  time.Time `db:"created_at"`
}

// Create inserts a draft and returns its id.
func (r *SQLRepository) Create(ctx context.Context, cv CV) (int64, error) {
	if cv.CreatedAt.IsZero() {
		cv.CreatedAt = time.Now().UTC()
	}
	skills, err := json.Marshal(cv.Skills)
	if err != nil {
		return 0, err
	}
	query := r.db.Rebind(`
		INSERT INTO cvs (user_id, full_name, headline, skills, experience, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)
	var id int64
	if err := r.db.GetContext(ctx, &id, query,
		cv.UserID, cv.FullName, cv.Headline, string(skills), cv.Experience, cv.CreatedAt,
	); err != nil {
		return 0, err
	}
	r.log.LogAttrs(ctx, slog.LevelInfo, "cv.insert",
		slog.String("status", "ok"),
		slog.Int64("cv_id", id),
		slog.Int64("user_id", cv.UserID),
	)
	return id, nil
}

var _ Repository = (*SQLRepository)(nil)

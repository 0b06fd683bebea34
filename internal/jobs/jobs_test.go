package jobs

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	contact_info TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return NewSQLRepository(db)
}

func TestCreateGetList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, Job{
		UserID:      1,
		Username:    "hirer",
		Title:       "Junior Accountant",
		Description: "Bookkeeping for a small shop.",
		Contact:     "@hirer",
	})
	require.NoError(t, err)

	second, err := repo.Create(ctx, Job{
		UserID:      2,
		Title:       "Barista",
		Description: "Morning shifts.",
		Contact:     "0911-00-00-00",
	})
	require.NoError(t, err)
	assert.Greater(t, second, first)

	got, err := repo.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Junior Accountant", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.Get(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
}

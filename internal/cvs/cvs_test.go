package cvs

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestParseSkills(t *testing.T) {
	assert.Equal(t, []string{"Excel", "Peachtree", "English"}, ParseSkills("Excel, Peachtree , English"))
	assert.Empty(t, ParseSkills(" , ,"))
}

func TestRender(t *testing.T) {
	cv := CV{
		FullName:   "Abebe Kebede",
		Headline:   "Junior Accountant",
		Skills:     []string{"Excel", "Peachtree"},
		Experience: "Two years at a retail shop.",
	}
	out := cv.Render()
	assert.Contains(t, out, "Abebe Kebede")
	assert.Contains(t, out, "Junior Accountant")
	assert.Contains(t, out, "• Excel")
	assert.Contains(t, out, "Two years at a retail shop.")
}

func TestCreate(t *testing.T) {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`
		CREATE TABLE cvs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			full_name TEXT NOT NULL,
			headline TEXT NOT NULL DEFAULT '',
			skills TEXT NOT NULL DEFAULT '[]',
			experience TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`)
	require.NoError(t, err)

	repo := NewSQLRepository(db)
	id, err := repo.Create(context.Background(), CV{
		UserID:     7,
		FullName:   "Abebe Kebede",
		Headline:   "Junior Accountant",
		Skills:     []string{"Excel"},
		Experience: "Two years.",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

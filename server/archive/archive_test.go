package archive

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r, err := NewRepository(db)
	require.NoError(t, err)

	return r
}

func TestArchiveAndList(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	entity := &Entity{
		JobId:    "deadbeef",
		Title:    "My_Video__2024",
		Source:   "https://example.com/v",
		Format:   "18",
		Path:     "/downloads/deadbeef_My_Video__2024.mp4",
		Filesize: 1024,
	}
	require.NoError(t, r.Archive(ctx, entity))

	assert.NotEmpty(t, entity.Id, "repository assigns an id")
	assert.False(t, entity.CreatedAt.IsZero())

	entities, err := r.All(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "deadbeef", entities[0].JobId)
	assert.Equal(t, "My_Video__2024", entities[0].Title)
	assert.Equal(t, int64(1024), entities[0].Filesize)
}

func TestAllEmpty(t *testing.T) {
	r := newTestRepository(t)

	entities, err := r.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entities)
}

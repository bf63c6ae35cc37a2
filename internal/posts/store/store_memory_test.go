package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postgate/internal/posts/models"
	"postgate/pkg/platform/sentinel"
)

func seed(t *testing.T, s *InMemoryStore, authorIDs ...int64) []*models.Post {
	t.Helper()
	var out []*models.Post
	for _, a := range authorIDs {
		p := &models.Post{Title: "t", Content: "c", AuthorID: a}
		require.NoError(t, s.Create(context.Background(), p))
		out = append(out, p)
	}
	return out
}

func TestInMemoryStore_CreateAndFind(t *testing.T) {
	s := NewInMemoryStore()
	posts := seed(t, s, 1, 2)

	assert.Equal(t, int64(1), posts[0].ID)
	assert.Equal(t, int64(2), posts[1].ID)
	assert.False(t, posts[0].CreatedAt.IsZero())

	found, err := s.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.AuthorID)

	_, err = s.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_List(t *testing.T) {
	s := NewInMemoryStore()
	seed(t, s, 1, 2, 1, 3)
	ctx := context.Background()

	all, err := s.List(ctx, models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, p := range all {
		assert.Equal(t, int64(i+1), p.ID)
	}

	filtered, err := s.List(ctx, models.ListFilter{AuthorIDs: []int64{1, 3}})
	require.NoError(t, err)
	ids := []int64{}
	for _, p := range filtered {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{1, 3, 4}, ids)

	none, err := s.List(ctx, models.ListFilter{AuthorIDs: []int64{42}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInMemoryStore_UpdateKeepsAuthor(t *testing.T) {
	s := NewInMemoryStore()
	seed(t, s, 1)
	ctx := context.Background()

	p := &models.Post{ID: 1, Title: "new", Content: "body", AuthorID: 77}
	require.NoError(t, s.Update(ctx, p))
	assert.Equal(t, int64(1), p.AuthorID)
	assert.Equal(t, "new", p.Title)

	assert.ErrorIs(t, s.Update(ctx, &models.Post{ID: 5}), sentinel.ErrNotFound)
}

func TestInMemoryStore_Delete(t *testing.T) {
	s := NewInMemoryStore()
	seed(t, s, 1)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, 1))
	_, err := s.FindByID(ctx, 1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, 1), sentinel.ErrNotFound)
}

package repo

import (
	"context"
	"sync"
	"testing"

	"github.com/abdusco/linkzip/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestLinksRepo_Create(t *testing.T) {
	ctx := context.Background()
	r := NewLinksRepo(setupDB(t))

	link, err := r.Create(ctx, &internal.ShortLink{
		OwnerID:     ptr("alice"),
		OriginalURL: "https://example.com/a/b?c=1",
		ShortCode:   "abc123",
		Title:       "Example",
	})
	require.NoError(t, err)
	assert.NotZero(t, link.ID)
	assert.Equal(t, "abc123", link.ShortCode)
	assert.Equal(t, "https://example.com/a/b?c=1", link.OriginalURL)
	assert.Equal(t, "Example", link.Title)
	assert.True(t, link.Active)
	assert.Zero(t, link.ClickCount)
	require.NotNil(t, link.OwnerID)
	assert.Equal(t, "alice", *link.OwnerID)
	assert.False(t, link.CreatedAt.IsZero())

	t.Run("anonymous owner", func(t *testing.T) {
		anon, err := r.Create(ctx, &internal.ShortLink{OriginalURL: "https://example.com", ShortCode: "anon"})
		require.NoError(t, err)
		assert.Nil(t, anon.OwnerID)
	})

	t.Run("duplicate code", func(t *testing.T) {
		_, err := r.Create(ctx, &internal.ShortLink{OriginalURL: "https://other.example", ShortCode: "abc123"})
		assert.ErrorIs(t, err, internal.ErrAlreadyExists)

		// the original row is untouched
		got, err := r.GetByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a/b?c=1", got.OriginalURL)
	})
}

func TestLinksRepo_Lookup(t *testing.T) {
	ctx := context.Background()
	r := NewLinksRepo(setupDB(t))

	created, err := r.Create(ctx, &internal.ShortLink{OriginalURL: "https://example.com", ShortCode: "abc"})
	require.NoError(t, err)

	byID, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	_, err = r.GetByCode(ctx, "missing")
	assert.ErrorIs(t, err, internal.ErrLinkNotFound)
	_, err = r.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, internal.ErrLinkNotFound)

	exists, err := r.CodeExists(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = r.CodeExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLinksRepo_IncrementClicks(t *testing.T) {
	ctx := context.Background()
	r := NewLinksRepo(setupDB(t))

	link, err := r.Create(ctx, &internal.ShortLink{OriginalURL: "https://example.com", ShortCode: "abc"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.IncrementClicks(ctx, link.ID))
		}()
	}
	wg.Wait()

	got, err := r.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 25, got.ClickCount)

	assert.ErrorIs(t, r.IncrementClicks(ctx, 9999), internal.ErrLinkNotFound)
}

func TestLinksRepo_SetActive(t *testing.T) {
	ctx := context.Background()
	r := NewLinksRepo(setupDB(t))

	link, err := r.Create(ctx, &internal.ShortLink{OriginalURL: "https://example.com", ShortCode: "abc"})
	require.NoError(t, err)

	updated, err := r.SetActive(ctx, link.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	got, err := r.GetByCode(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	_, err = r.SetActive(ctx, 9999, true)
	assert.ErrorIs(t, err, internal.ErrLinkNotFound)
}

func TestLinksRepo_ListByOwner(t *testing.T) {
	ctx := context.Background()
	r := NewLinksRepo(setupDB(t))

	for _, l := range []struct {
		code  string
		owner *string
	}{
		{"first", ptr("alice")},
		{"second", ptr("bob")},
		{"third", ptr("alice")},
		{"fourth", nil},
	} {
		_, err := r.Create(ctx, &internal.ShortLink{OriginalURL: "https://example.com", ShortCode: l.code, OwnerID: l.owner})
		require.NoError(t, err)
	}

	links, err := r.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "third", links[0].ShortCode)
	assert.Equal(t, "first", links[1].ShortCode)

	links, err = r.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, links)
}

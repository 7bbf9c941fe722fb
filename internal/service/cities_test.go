package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/cities_manager/internal/models"
)

type fakeSearcher struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]string
	failAll bool
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{docs: make(map[uuid.UUID]string)}
}

func (s *fakeSearcher) Put(_ context.Context, city models.City) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("index unavailable")
	}
	s.docs[city.ID] = city.Name
	return nil
}

func (s *fakeSearcher) Remove(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("index unavailable")
	}
	delete(s.docs, id)
	return nil
}

func (s *fakeSearcher) Search(_ context.Context, query string, _, _ int) (int64, []models.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return 0, nil, errors.New("index unavailable")
	}
	var out []models.City
	for id, name := range s.docs {
		if name == query {
			out = append(out, models.City{ID: id, Name: name})
		}
	}
	return int64(len(out)), out, nil
}

func TestCityService_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	searcher := newFakeSearcher()
	svc := &CityService{Repo: newTestRepo(t), Search: searcher}

	_, err := svc.Create(ctx, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	city, err := svc.Create(ctx, " Baku ")
	require.NoError(t, err)
	assert.Equal(t, "Baku", city.Name)
	assert.Equal(t, "Baku", searcher.docs[city.ID])

	got, err := svc.Get(ctx, city.ID)
	require.NoError(t, err)
	assert.Equal(t, city.ID, got.ID)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	renamed, err := svc.Rename(ctx, city.ID, "Baki")
	require.NoError(t, err)
	assert.Equal(t, "Baki", renamed.Name)
	assert.Equal(t, "Baki", searcher.docs[city.ID])

	_, err = svc.Rename(ctx, uuid.New(), "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := svc.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Baki"}, names)

	require.NoError(t, svc.Delete(ctx, city.ID))
	assert.NotContains(t, searcher.docs, city.ID)
	assert.ErrorIs(t, svc.Delete(ctx, city.ID), ErrNotFound)

	cities, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, cities)
}

func TestCityService_Find(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	searcher := newFakeSearcher()
	svc := &CityService{Repo: newTestRepo(t), Search: searcher}

	_, err := svc.Create(ctx, "London")
	require.NoError(t, err)

	total, items, err := svc.Find(ctx, "London", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)

	// a failing index falls back to the database
	searcher.failAll = true
	total, items, err = svc.Find(ctx, "lon", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "London", items[0].Name)

	// indexing failures do not fail writes
	_, err = svc.Create(ctx, "Paris")
	require.NoError(t, err)

	noIndex := &CityService{Repo: svc.Repo}
	total, _, err = noIndex.Find(ctx, "par", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

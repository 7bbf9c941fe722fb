package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/cities_manager/internal/logging"
	"github.com/Skotchmaster/cities_manager/internal/models"
	"github.com/Skotchmaster/cities_manager/internal/repo"
)

type CityStore interface {
	GetCities(ctx context.Context) ([]models.City, error)
	GetCityNames(ctx context.Context) ([]string, error)
	GetCity(ctx context.Context, id uuid.UUID) (*models.City, error)
	CreateCity(ctx context.Context, city *models.City) error
	RenameCity(ctx context.Context, id uuid.UUID, name string) (*models.City, error)
	DeleteCity(ctx context.Context, id uuid.UUID) error
	SearchCities(ctx context.Context, q string, offset, limit int) (int64, []models.City, error)
}

// CitySearcher is an optional full-text index kept next to the cities table.
type CitySearcher interface {
	Put(ctx context.Context, city models.City) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.City, error)
}

type CityService struct {
	Repo   CityStore
	Search CitySearcher
}

func (s *CityService) List(ctx context.Context) ([]models.City, error) {
	return s.Repo.GetCities(ctx)
}

func (s *CityService) Names(ctx context.Context) ([]string, error) {
	return s.Repo.GetCityNames(ctx)
}

func (s *CityService) Get(ctx context.Context, id uuid.UUID) (*models.City, error) {
	city, err := s.Repo.GetCity(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return city, err
}

func (s *CityService) Create(ctx context.Context, name string) (*models.City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: city name can't be blank", ErrValidation)
	}

	city := &models.City{Name: name}
	if err := s.Repo.CreateCity(ctx, city); err != nil {
		return nil, fmt.Errorf("create city: %w", err)
	}
	s.index(ctx, *city)
	return city, nil
}

func (s *CityService) Rename(ctx context.Context, id uuid.UUID, name string) (*models.City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: city name can't be blank", ErrValidation)
	}

	city, err := s.Repo.RenameCity(ctx, id, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rename city: %w", err)
	}
	s.index(ctx, *city)
	return city, nil
}

func (s *CityService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteCity(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete city: %w", err)
	}
	if s.Search != nil {
		if err := s.Search.Remove(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("city_unindex_failed", "city_id", id.String(), "error", err)
		}
	}
	return nil
}

// Find uses the search index when one is configured and falls back to the database if it fails.
func (s *CityService) Find(ctx context.Context, q string, offset, limit int) (int64, []models.City, error) {
	if s.Search != nil {
		total, items, err := s.Search.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("city_search_fallback", "reason", "index unavailable", "error", err)
	}
	return s.Repo.SearchCities(ctx, q, offset, limit)
}

func (s *CityService) index(ctx context.Context, city models.City) {
	if s.Search == nil {
		return
	}
	if err := s.Search.Put(ctx, city); err != nil {
		logging.FromContext(ctx).Warn("city_index_failed", "city_id", city.ID.String(), "error", err)
	}
}

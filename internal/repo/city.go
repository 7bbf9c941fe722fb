package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/cities_manager/internal/models"
	"github.com/google/uuid"
)

func (r *GormRepo) GetCities(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *GormRepo) GetCityNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.DB.WithContext(ctx).Model(&models.City{}).
		Order("name ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *GormRepo) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	var city models.City
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&city).Error; err != nil {
		return nil, notFound(err)
	}
	return &city, nil
}

func (r *GormRepo) CreateCity(ctx context.Context, city *models.City) error {
	return r.DB.WithContext(ctx).Create(city).Error
}

func (r *GormRepo) RenameCity(ctx context.Context, id uuid.UUID, name string) (*models.City, error) {
	city, err := r.GetCity(ctx, id)
	if err != nil {
		return nil, err
	}
	city.Name = name
	if err := r.DB.WithContext(ctx).Save(city).Error; err != nil {
		return nil, err
	}
	return city, nil
}

func (r *GormRepo) DeleteCity(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.City{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchCities is the database fallback used when no search index is configured.
func (r *GormRepo) SearchCities(ctx context.Context, q string, offset, limit int) (int64, []models.City, error) {
	pattern := "%" + strings.ToLower(q) + "%"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.City{}).
		Where("LOWER(name) LIKE ?", pattern).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.City, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.City{}).
		Where("LOWER(name) LIKE ?", pattern).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/cities_manager/internal/models"
)

// SessionStore owns the refresh token stored against each user.
type SessionStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	SetRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	// RotateRefreshToken must fail with repo.ErrStaleRefreshToken when oldHash is no longer stored.
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
}

type UserStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUserIfNotExists(ctx context.Context, u *models.User) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

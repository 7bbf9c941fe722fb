package tokens

import (
	"errors"
	"fmt"
	"time"
)

const MinKeyLength = 32

var ErrInvalidConfig = errors.New("invalid token configuration")

type Config struct {
	Key        []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c Config) Validate() error {
	switch {
	case len(c.Key) < MinKeyLength:
		return fmt.Errorf("%w: signing key must be at least %d bytes", ErrInvalidConfig, MinKeyLength)
	case c.Issuer == "":
		return fmt.Errorf("%w: issuer is empty", ErrInvalidConfig)
	case c.Audience == "":
		return fmt.Errorf("%w: audience is empty", ErrInvalidConfig)
	case c.AccessTTL <= 0:
		return fmt.Errorf("%w: access token lifetime must be positive", ErrInvalidConfig)
	case c.RefreshTTL <= c.AccessTTL:
		return fmt.Errorf("%w: refresh token lifetime must exceed access token lifetime", ErrInvalidConfig)
	}
	return nil
}

// Session is the result of a successful authentication.
type Session struct {
	Identity         Identity
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	signer     *Signer
	now        func() time.Time
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.signer = NewSigner(cfg.Key, cfg.Issuer, cfg.Audience, s.now)
	return s, nil
}

func (s *Service) CreateSession(id Identity) (*Session, error) {
	now := s.now()
	accessExp := now.Add(s.accessTTL)

	accessToken, err := s.signer.Sign(NewAccessClaims(id), now, accessExp)
	if err != nil {
		return nil, err
	}

	refreshToken, err := GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &Session{
		Identity:         id,
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTTL),
	}, nil
}

// ParseExpiredToken recovers the claims of a correctly signed token whether or not it has expired.
// It returns nil when the token cannot be trusted.
func (s *Service) ParseExpiredToken(token string) *AccessClaims {
	claims, err := s.signer.Verify(token, false)
	if err != nil {
		return nil
	}
	return claims
}

func (s *Service) ValidateAccessToken(token string) (*AccessClaims, error) {
	return s.signer.Verify(token, true)
}

func (s *Service) Now() time.Time {
	return s.now()
}

package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/Skotchmaster/cities_manager/internal/hash"
	"github.com/Skotchmaster/cities_manager/internal/logging"
	"github.com/Skotchmaster/cities_manager/internal/models"
	"github.com/Skotchmaster/cities_manager/internal/repo"
	"github.com/Skotchmaster/cities_manager/internal/tokens"
)

const (
	userEventsTopic   = "user_events"
	publishTimeout    = 5 * time.Second
	minPasswordLength = 5
)

type AuthService struct {
	Users    UserStore
	Sessions SessionStore
	Tokens   *tokens.Service
	Events   EventPublisher
}

type RegisterInput struct {
	PersonName      string
	Email           string
	PhoneNumber     string
	Password        string
	ConfirmPassword string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*tokens.Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	in.Email = normalizeEmail(in.Email)
	if err := validateRegister(in); err != nil {
		l.Warn("register_failed", "status", 400, "reason", err.Error())
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		PersonName:   strings.TrimSpace(in.PersonName),
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: pwHash,
	}
	if err := s.Users.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_failed", "status", 409, "reason", "user_exists")
			return nil, ErrConflict
		}
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot issue session", "error", err)
		return nil, err
	}

	s.publish(ctx, "user_registered", user)
	l.Info("register_success", "user_id", user.ID.String())
	return session, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*tokens.Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = normalizeEmail(email)
	if email == "" || password == "" {
		l.Warn("login_failed", "status", 400, "reason", "empty credentials")
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.Sessions.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "reason", "db_error", "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return nil, ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue session", "error", err)
		return nil, err
	}

	s.publish(ctx, "user_logged_in", user)
	l.Info("login_successful", "user_id", user.ID.String())
	return session, nil
}

// Refresh exchanges a stale access token and the matching refresh token for a new session.
// The presented refresh token stops working once this returns successfully.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*tokens.Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if accessToken == "" || refreshToken == "" {
		l.Warn("refresh_rejected", "status", 400, "reason", "missing token")
		return nil, ErrMalformedInput
	}

	claims := s.Tokens.ParseExpiredToken(accessToken)
	if claims == nil {
		l.Warn("refresh_rejected", "status", 401, "reason", "invalid access token")
		return nil, ErrInvalidAccessToken
	}

	user, err := s.Sessions.UserByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_rejected", "status", 401, "reason", "identity not found")
			return nil, ErrIdentityNotFound
		}
		l.Error("refresh_failed", "status", 500, "reason", "db_error", "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}

	presented := hash.Sha256Hex(refreshToken)
	if subtle.ConstantTimeCompare([]byte(user.RefreshTokenHash), []byte(presented)) != 1 ||
		!user.RefreshTokenExpiresAt.After(s.Tokens.Now()) {
		l.Warn("refresh_rejected", "status", 401, "reason", "refresh token mismatch or expired", "user_id", user.ID.String())
		return nil, ErrRefreshMismatch
	}

	session, err := s.Tokens.CreateSession(user.Identity())
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot issue session", "error", err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	err = s.Sessions.RotateRefreshToken(ctx, user.ID, presented, hash.Sha256Hex(session.RefreshToken), session.RefreshExpiresAt)
	if err != nil {
		if errors.Is(err, repo.ErrStaleRefreshToken) {
			l.Warn("refresh_rejected", "status", 401, "reason", "refresh token already rotated", "user_id", user.ID.String())
			return nil, ErrRefreshMismatch
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	s.publish(ctx, "token_refreshed", user)
	l.Info("refresh_success", "user_id", user.ID.String())
	return session, nil
}

// LogOut drops the stored refresh token; the current access token stays valid until it expires.
func (s *AuthService) LogOut(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	user, err := s.Sessions.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		l.Error("logout_failed", "status", 500, "reason", "db_error", "error", err)
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.Sessions.SetRefreshToken(ctx, user.ID, "", time.Time{}); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot clear refresh token", "error", err)
		return fmt.Errorf("clear refresh token: %w", err)
	}

	s.publish(ctx, "user_logged_out", user)
	l.Info("successful_logout", "user_id", user.ID.String())
	return nil
}

func (s *AuthService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	exists, err := s.Users.EmailExists(ctx, normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return !exists, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*tokens.Session, error) {
	session, err := s.Tokens.CreateSession(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := s.Sessions.SetRefreshToken(ctx, user.ID, hash.Sha256Hex(session.RefreshToken), session.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return session, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, user *models.User) {
	if s.Events == nil {
		return
	}

	event := map[string]interface{}{
		"type":   eventType,
		"userID": user.ID.String(),
		"email":  user.Email,
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.Events.PublishEvent(ctx, userEventsTopic, user.ID.String(), event); err != nil {
		logging.FromContext(ctx).Error("publish_failed", "event", eventType, "error", err)
	}
}

func validateRegister(in RegisterInput) error {
	var problems []string

	if strings.TrimSpace(in.PersonName) == "" {
		problems = append(problems, "Person Name can't be blank")
	}

	if in.Email == "" {
		problems = append(problems, "Email can't be blank")
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		problems = append(problems, "Email should be in a proper email address format")
	}

	if in.PhoneNumber == "" {
		problems = append(problems, "Phone number can't be blank")
	} else if strings.IndexFunc(in.PhoneNumber, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		problems = append(problems, "Phone number should only contain digits")
	}

	if in.Password == "" {
		problems = append(problems, "Password can't be blank")
	} else {
		if len(in.Password) < minPasswordLength ||
			strings.IndexFunc(in.Password, unicode.IsLower) < 0 ||
			strings.IndexFunc(in.Password, unicode.IsDigit) < 0 {
			problems = append(problems, fmt.Sprintf("Password must be at least %d characters and contain a lowercase letter and a digit", minPasswordLength))
		}
		if in.Password != in.ConfirmPassword {
			problems = append(problems, "Password and confirm password don't match")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, " | "))
	}
	return nil
}

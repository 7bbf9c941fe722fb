package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/cities_manager/internal/repo"
	"github.com/Skotchmaster/cities_manager/internal/tokens"
)

func TestRegister(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	session := f.register(t, " A@X.com ")
	assert.Equal(t, "a@x.com", session.Identity.Email)
	assert.Equal(t, "Alice", session.Identity.Name)
	assert.True(t, session.AccessExpiresAt.Before(session.RefreshExpiresAt))

	user, err := f.repo.UserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.Identity.ID)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.NotEmpty(t, user.RefreshTokenHash)
	assert.NotEqual(t, session.RefreshToken, user.RefreshTokenHash)

	_, err = f.svc.Register(ctx, RegisterInput{
		PersonName:      "Other",
		Email:           "a@x.com",
		PhoneNumber:     "1",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, []string{"user_registered"}, f.events.Types())
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	valid := RegisterInput{
		PersonName:      "Alice",
		Email:           "a@x.com",
		PhoneNumber:     "5551234",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{name: "blank name", mutate: func(in *RegisterInput) { in.PersonName = "  " }},
		{name: "blank email", mutate: func(in *RegisterInput) { in.Email = "" }},
		{name: "bad email", mutate: func(in *RegisterInput) { in.Email = "not-an-email" }},
		{name: "display name email", mutate: func(in *RegisterInput) { in.Email = "Alice <a@x.com>" }},
		{name: "blank phone", mutate: func(in *RegisterInput) { in.PhoneNumber = "" }},
		{name: "phone with letters", mutate: func(in *RegisterInput) { in.PhoneNumber = "555-CALL" }},
		{name: "blank password", mutate: func(in *RegisterInput) { in.Password, in.ConfirmPassword = "", "" }},
		{name: "short password", mutate: func(in *RegisterInput) { in.Password, in.ConfirmPassword = "a1", "a1" }},
		{name: "no digit", mutate: func(in *RegisterInput) { in.Password, in.ConfirmPassword = "secret", "secret" }},
		{name: "no lowercase", mutate: func(in *RegisterInput) { in.Password, in.ConfirmPassword = "SECRET1", "SECRET1" }},
		{name: "confirmation mismatch", mutate: func(in *RegisterInput) { in.ConfirmPassword = "secret2" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := valid
			tt.mutate(&in)
			in.Email = normalizeEmail(in.Email)
			err := validateRegister(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	require.NoError(t, validateRegister(valid))
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	registered := f.register(t, "a@x.com")

	session, err := f.svc.Login(ctx, "A@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.Identity, session.Identity)
	assert.NotEqual(t, registered.RefreshToken, session.RefreshToken)

	// login replaces the stored refresh token
	_, err = f.svc.Refresh(ctx, registered.AccessToken, registered.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshMismatch)

	_, err = f.svc.Login(ctx, "a@x.com", "wrong1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEmailAvailable(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	ok, err := f.svc.EmailAvailable(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	f.register(t, "a@x.com")

	ok, err = f.svc.EmailAvailable(ctx, "A@X.COM")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefresh_ExpiredAccessToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	original := f.register(t, "a@x.com")
	claims, err := f.svc.Tokens.ValidateAccessToken(original.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Tokens.ValidateAccessToken(original.AccessToken)
	require.ErrorIs(t, err, tokens.ErrExpired)

	next, err := f.svc.Refresh(ctx, original.AccessToken, original.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, original.AccessToken, next.AccessToken)
	assert.NotEqual(t, original.RefreshToken, next.RefreshToken)
	assert.True(t, next.AccessExpiresAt.After(f.clock.Now()))
	assert.True(t, next.RefreshExpiresAt.After(f.clock.Now()))
	assert.Equal(t, original.Identity, next.Identity)

	claims, err = f.svc.Tokens.ValidateAccessToken(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)

	assert.Equal(t, []string{"user_registered", "token_refreshed"}, f.events.Types())
}

func TestRefresh_SequentialRotation(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	original := f.register(t, "a@x.com")

	second, err := f.svc.Refresh(ctx, original.AccessToken, original.RefreshToken)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, original.AccessToken, original.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshMismatch)
	assert.ErrorIs(t, err, ErrInvalidToken)

	third, err := f.svc.Refresh(ctx, second.AccessToken, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestRefresh_Rejections(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	session := f.register(t, "a@x.com")
	f.clock.Advance(2 * time.Hour)

	ghost, err := f.svc.Tokens.CreateSession(tokens.Identity{ID: uuid.New(), Name: "Ghost", Email: "ghost@x.com"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		access  string
		refresh string
		wantErr error
	}{
		{name: "missing access token", access: "", refresh: session.RefreshToken, wantErr: ErrMalformedInput},
		{name: "missing refresh token", access: session.AccessToken, refresh: "", wantErr: ErrMalformedInput},
		{name: "garbage access token", access: "not-a-jwt", refresh: session.RefreshToken, wantErr: ErrInvalidAccessToken},
		{name: "tampered access token", access: session.AccessToken + "x", refresh: session.RefreshToken, wantErr: ErrInvalidAccessToken},
		{name: "refresh token as access token", access: session.RefreshToken, refresh: session.RefreshToken, wantErr: ErrInvalidAccessToken},
		{name: "unknown identity", access: ghost.AccessToken, refresh: ghost.RefreshToken, wantErr: ErrIdentityNotFound},
		{name: "wrong refresh value", access: session.AccessToken, refresh: "wrong-refresh-value", wantErr: ErrRefreshMismatch},
		{name: "refresh from another session", access: session.AccessToken, refresh: ghost.RefreshToken, wantErr: ErrRefreshMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Refresh(ctx, tt.access, tt.refresh)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == ErrMalformedInput {
				assert.NotErrorIs(t, err, ErrInvalidToken)
			} else {
				assert.ErrorIs(t, err, ErrInvalidToken)
			}
		})
	}

	// none of the rejections consumed the stored token
	_, err = f.svc.Refresh(ctx, session.AccessToken, session.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_ExpiredRefreshToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	session := f.register(t, "a@x.com")
	f.clock.Advance(8 * 24 * time.Hour)

	_, err := f.svc.Refresh(context.Background(), session.AccessToken, session.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshMismatch)
}

func TestRefresh_ConcurrentSameToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	session := f.register(t, "a@x.com")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		errs      []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Refresh(ctx, session.AccessToken, session.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	require.Len(t, errs, workers-1)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrRefreshMismatch)
	}
}

type lostRaceStore struct {
	*repo.GormRepo
}

func (s lostRaceStore) RotateRefreshToken(context.Context, uuid.UUID, string, string, time.Time) error {
	return repo.ErrStaleRefreshToken
}

type brokenStore struct {
	*repo.GormRepo
}

func (s brokenStore) RotateRefreshToken(context.Context, uuid.UUID, string, string, time.Time) error {
	return errors.New("connection reset")
}

func TestRefresh_StoreOutcomes(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	session := f.register(t, "a@x.com")

	lost := *f.svc
	lost.Sessions = lostRaceStore{f.repo}
	_, err := lost.Refresh(ctx, session.AccessToken, session.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshMismatch)

	broken := *f.svc
	broken.Sessions = brokenStore{f.repo}
	_, err = broken.Refresh(ctx, session.AccessToken, session.RefreshToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestLogOut(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	session := f.register(t, "a@x.com")

	require.NoError(t, f.svc.LogOut(ctx, "a@x.com"))

	_, err := f.svc.Refresh(ctx, session.AccessToken, session.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshMismatch)

	assert.ErrorIs(t, f.svc.LogOut(ctx, "nobody@x.com"), ErrNotFound)
	assert.Equal(t, []string{"user_registered", "user_logged_out"}, f.events.Types())
}

func TestAuthService_NilEvents(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.svc.Events = nil

	session := f.register(t, "a@x.com")
	_, err := f.svc.Refresh(context.Background(), session.AccessToken, session.RefreshToken)
	require.NoError(t, err)
}

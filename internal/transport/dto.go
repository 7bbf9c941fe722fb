package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/cities_manager/internal/tokens"
)

type RegisterRequest struct {
	PersonName      string `json:"personName"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenModel is the body of a refresh request: the stale access token and its refresh token.
type TokenModel struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type AuthenticationResponse struct {
	PersonName                     string    `json:"personName"`
	Email                          string    `json:"email"`
	Token                          string    `json:"token"`
	TokenExpirationDateTime        time.Time `json:"tokenExpirationDateTime"`
	RefreshToken                   string    `json:"refreshToken"`
	RefreshTokenExpirationDateTime time.Time `json:"refreshTokenExpirationDateTime"`
}

func NewAuthenticationResponse(s *tokens.Session) AuthenticationResponse {
	return AuthenticationResponse{
		PersonName:                     s.Identity.Name,
		Email:                          s.Identity.Email,
		Token:                          s.AccessToken,
		TokenExpirationDateTime:        s.AccessExpiresAt.UTC(),
		RefreshToken:                   s.RefreshToken,
		RefreshTokenExpirationDateTime: s.RefreshExpiresAt.UTC(),
	}
}

type CityRequest struct {
	CityID   uuid.UUID `json:"cityID"`
	CityName string    `json:"cityName"`
}

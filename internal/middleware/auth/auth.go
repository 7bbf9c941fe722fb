package middleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cities_manager/internal/logging"
	"github.com/Skotchmaster/cities_manager/internal/tokens"
)

const ContextKey = "user"

type TokenValidator interface {
	ValidateAccessToken(token string) (*tokens.AccessClaims, error)
}

// RequireAuth accepts requests carrying "Authorization: Bearer <access token>" with a
// valid, unexpired token and stores its claims under ContextKey.
func RequireAuth(v TokenValidator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return v.ValidateAccessToken(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).
				Warn("auth_failed", "status", http.StatusUnauthorized, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		},
	})
}

func ClaimsFromContext(c echo.Context) (*tokens.AccessClaims, bool) {
	claims, ok := c.Get(ContextKey).(*tokens.AccessClaims)
	return claims, ok && claims != nil
}

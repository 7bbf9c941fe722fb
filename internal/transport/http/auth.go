package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cities_manager/internal/logging"
	middleware "github.com/Skotchmaster/cities_manager/internal/middleware/auth"
	"github.com/Skotchmaster/cities_manager/internal/service"
	"github.com/Skotchmaster/cities_manager/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	session, err := h.Svc.Register(ctx, service.RegisterInput{
		PersonName:      req.PersonName,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "email is already in use")
		default:
			l.Error("register_error", "status", 500, "reason", "cannot register user", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot register user")
		}
	}

	return c.JSON(http.StatusOK, transport.NewAuthenticationResponse(session))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	session, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		default:
			l.Error("login_error", "status", 500, "reason", "cannot log in", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot log in")
		}
	}

	return c.JSON(http.StatusOK, transport.NewAuthenticationResponse(session))
}

func (h *AuthHTTP) EmailAvailable(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.email_available")

	email := c.QueryParam("email")
	if email == "" {
		l.Warn("email_available_error", "status", 400, "reason", "email is empty")
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	available, err := h.Svc.EmailAvailable(ctx, email)
	if err != nil {
		l.Error("email_available_error", "status", 500, "reason", "cannot check email", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot check email")
	}
	return c.JSON(http.StatusOK, available)
}

// GenerateNewToken runs the refresh protocol. Callers only ever see "invalid token" for a
// rejected refresh; the precise reason goes to the log.
func (h *AuthHTTP) GenerateNewToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.generate_new_jwt_token")

	var req transport.TokenModel
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid client request")
	}

	session, err := h.Svc.Refresh(ctx, req.Token, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedInput):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client request")
		case errors.Is(err, service.ErrInvalidToken):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		default:
			l.Error("refresh_error", "status", 500, "reason", "cannot refresh token", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot refresh token")
		}
	}

	return c.JSON(http.StatusOK, transport.NewAuthenticationResponse(session))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.logout")

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		l.Warn("logout_error", "status", 401, "reason", "no claims in context")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	if err := h.Svc.LogOut(ctx, claims.Email); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("logout_error", "status", 401, "reason", "user not found")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		l.Error("logout_error", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log out")
	}

	return c.NoContent(http.StatusNoContent)
}

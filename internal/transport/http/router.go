package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/cities_manager/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *AuthHTTP
	CitiesHandler *CitiesHTTP
	Tokens        middleware.TokenValidator
	// Ready reports whether the backing database is reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	requireAuth := middleware.RequireAuth(d.Tokens)

	v1 := e.Group("/api/v1")

	account := v1.Group("/account")
	account.POST("/register", d.AuthHandler.Register)
	account.POST("/login", d.AuthHandler.Login)
	account.GET("/email-available", d.AuthHandler.EmailAvailable)
	account.POST("/generate-new-jwt-token", d.AuthHandler.GenerateNewToken)
	account.POST("/logout", d.AuthHandler.LogOut, requireAuth)

	cities := v1.Group("/cities", requireAuth)
	cities.GET("", d.CitiesHandler.GetCities)
	cities.GET("/search", d.CitiesHandler.SearchCities)
	cities.GET("/:id", d.CitiesHandler.GetCity)
	cities.POST("", d.CitiesHandler.CreateCity)
	cities.PUT("/:id", d.CitiesHandler.UpdateCity)
	cities.DELETE("/:id", d.CitiesHandler.DeleteCity)

	v2 := e.Group("/api/v2", requireAuth)
	v2.GET("/cities", d.CitiesHandler.GetCityNames)
}

package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cities_manager/internal/logging"
	"github.com/Skotchmaster/cities_manager/internal/service"
	"github.com/Skotchmaster/cities_manager/internal/transport"
	"github.com/Skotchmaster/cities_manager/internal/util"
)

type CitiesHTTP struct {
	Svc *service.CityService
}

func (h *CitiesHTTP) GetCities(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cities.get_cities")

	cities, err := h.Svc.List(ctx)
	if err != nil {
		l.Error("get_cities_error", "status", 500, "reason", "cannot get cities", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get cities")
	}
	return c.JSON(http.StatusOK, cities)
}

func (h *CitiesHTTP) GetCityNames(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cities.get_city_names")

	names, err := h.Svc.Names(ctx)
	if err != nil {
		l.Error("get_city_names_error", "status", 500, "reason", "cannot get cities", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get cities")
	}
	return c.JSON(http.StatusOK, names)
}

func (h *CitiesHTTP) SearchCities(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cities.search")

	q := c.QueryParam("q")
	if q == "" {
		l.Warn("search_cities_error", "status", 400, "reason", "empty query")
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.Find(ctx, q, offset, limit)
	if err != nil {
		l.Error("search_cities_error", "status", 500, "reason", "cannot search cities", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot search cities")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *CitiesHTTP) GetCity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cities.get_city")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_city_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid CityID")
	}

	city, err := h.Svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_city_error", "status", 400, "reason", "city not found")
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid CityID")
		}
		l.Error("get_city_error", "status", 500, "reason", "cannot get city", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get city")
	}
	return c.JSON(http.StatusOK, city)
}

func (h *CitiesHTTP) CreateCity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cities.create_city")

	var req transport.CityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_city_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	city, err := h.Svc.Create(ctx, req.CityName)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("create_city_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("create_city_error", "status", 500, "reason", "cannot add city to db", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add city to db")
	}

	l.Info("create_city_success", "city_id", city.ID.String())
	return c.JSON(http.StatusCreated, city)
}

func (h *CitiesHTTP) UpdateCity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cities.update_city")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("update_city_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid CityID")
	}

	var req transport.CityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_city_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.CityID != id {
		l.Warn("update_city_error", "status", 400, "reason", "id mismatch")
		return echo.NewHTTPError(http.StatusBadRequest, "CityID in body does not match the url")
	}

	city, err := h.Svc.Rename(ctx, id, req.CityName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.Warn("update_city_error", "status", 404, "reason", "city not found")
			return echo.NewHTTPError(http.StatusNotFound, "city not found")
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("update_city_error", "status", 500, "reason", "cannot update city", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update city")
		}
	}

	l.Info("update_city_success", "city_id", city.ID.String())
	return c.JSON(http.StatusOK, city)
}

func (h *CitiesHTTP) DeleteCity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cities.delete_city")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("delete_city_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid CityID")
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("delete_city_error", "status", 404, "reason", "city not found")
			return echo.NewHTTPError(http.StatusNotFound, "city not found")
		}
		l.Error("delete_city_error", "status", 500, "reason", "cannot delete city", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete city")
	}

	l.Info("delete_city_success", "city_id", id.String())
	return c.NoContent(http.StatusNoContent)
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vtttools/mediastore/internal/assetstore"
	"github.com/vtttools/mediastore/internal/entitystore"
	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/taxonomy"
)

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// listAssets handles GET /api/v1/assets.
func (s *Server) listAssets(c echo.Context) error {
	filter := assetstore.Filter{
		Category: c.QueryParam("category"),
		Type:     c.QueryParam("type"),
		Subtype:  c.QueryParam("subtype"),
		Name:     c.QueryParam("name"),
	}
	if raw := c.QueryParam("kind"); raw != "" {
		kind, ok := taxonomy.ParseKind(raw)
		if !ok {
			return errors.InvalidArgument("kind", "unknown asset kind %q", raw)
		}
		filter.Kind = &kind
	}

	assets, err := s.assets.GetAssets(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, assets)
}

// findAsset handles GET /api/v1/assets/:name.
func (s *Server) findAsset(c echo.Context) error {
	name := c.Param("name")
	asset, err := s.assets.FindAsset(c.Request().Context(), name)
	if err != nil {
		return err
	}
	if asset == nil {
		return echo.NewHTTPError(http.StatusNotFound, "asset not found: "+name)
	}
	return c.JSON(http.StatusOK, asset)
}

// listEntities handles GET /api/v1/entities.
func (s *Server) listEntities(c echo.Context) error {
	summaries, err := s.entities.GetEntitySummaries(c.Request().Context(), entitystore.Filter{
		Genre:    c.QueryParam("genre"),
		Category: c.QueryParam("category"),
		Type:     c.QueryParam("type"),
		Subtype:  c.QueryParam("subtype"),
		Name:     c.QueryParam("name"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}

// entityInfo handles GET /api/v1/entities/:genre/:category/:type/:subtype/:name.
func (s *Server) entityInfo(c echo.Context) error {
	info, err := s.entities.GetEntityInfo(c.Request().Context(),
		c.Param("genre"), c.Param("category"), c.Param("type"), c.Param("subtype"), c.Param("name"))
	if err != nil {
		return err
	}
	if info == nil {
		return echo.NewHTTPError(http.StatusNotFound, "entity not found: "+c.Param("name"))
	}
	return c.JSON(http.StatusOK, info)
}

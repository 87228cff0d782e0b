package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinecrypto/internal/readmodel"
    "github.com/iliyamo/cinecrypto/internal/service"
)

// BrowseHandler serves the read views.
type BrowseHandler struct {
    Cache    *readmodel.Cache
    Movies   *service.Movies
    Seatmaps *service.Seatmaps
    Logger   *logrus.Logger
}

// Home returns the cached aggregate.  ?refresh=true forces a rebuild.
// X-Cache reports HIT when the snapshot was served as stored.
func (h *BrowseHandler) Home(c echo.Context) error {
    force, _ := strconv.ParseBool(c.QueryParam("refresh"))
    agg, src, err := h.Cache.Get(c.Request().Context(), force)
    if err != nil {
        return fail(c, h.Logger, err)
    }
    if src == readmodel.SourceCache {
        c.Response().Header().Set("X-Cache", "HIT")
    } else {
        c.Response().Header().Set("X-Cache", "MISS")
    }
    return c.JSON(http.StatusOK, agg)
}

// Search returns every catalog hit for ?q= reconciled with the ledger.
func (h *BrowseHandler) Search(c echo.Context) error {
    items := h.Movies.Search(c.Request().Context(), c.QueryParam("q"))
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MovieByLedgerID serves GET /v1/movies/:id.
func (h *BrowseHandler) MovieByLedgerID(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    mv, err := h.Movies.ByLedgerID(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Logger, err)
    }
    return c.JSON(http.StatusOK, mv)
}

// MovieByCatalogID serves GET /v1/catalog/movies/:id.
func (h *BrowseHandler) MovieByCatalogID(c echo.Context) error {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        return badRequest(c, "invalid id")
    }
    mv, err := h.Movies.ByCatalogID(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Logger, err)
    }
    return c.JSON(http.StatusOK, mv)
}

// Showtimes serves GET /v1/movies/:id/showtimes.
func (h *BrowseHandler) Showtimes(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    groups, err := h.Movies.Showtimes(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Logger, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": groups})
}

// Seatmap serves GET /v1/showtimes/:id/seatmap.
func (h *BrowseHandler) Seatmap(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    sm, err := h.Seatmaps.Get(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Logger, err)
    }
    return c.JSON(http.StatusOK, sm)
}

// parseID reads a positive ledger id from the :id path parameter.
func parseID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return 0, err
    }
    if id == 0 {
        return 0, strconv.ErrRange
    }
    return id, nil
}

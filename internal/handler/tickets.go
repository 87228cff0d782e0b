package handler

import (
    "net/http"

    "github.com/ethereum/go-ethereum/common"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinecrypto/internal/tickets"
)

// TicketHandler serves the "my tickets" views of a wallet address.
type TicketHandler struct {
    Tickets *tickets.Service
    Logger  *logrus.Logger
}

func parseAddress(c echo.Context) (common.Address, bool) {
    raw := c.Param("address")
    if !common.IsHexAddress(raw) {
        return common.Address{}, false
    }
    return common.HexToAddress(raw), true
}

// List serves GET /v1/wallets/:address/tickets.
func (h *TicketHandler) List(c echo.Context) error {
    owner, ok := parseAddress(c)
    if !ok {
        return badRequest(c, "invalid address")
    }
    views, err := h.Tickets.ListForOwner(c.Request().Context(), owner)
    if err != nil {
        return fail(c, h.Logger, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": views})
}

// MarkPendingScan serves POST /v1/wallets/:address/tickets/:id/pending-scan
// and returns the QR payload plus the overlaid list.
func (h *TicketHandler) MarkPendingScan(c echo.Context) error {
    owner, ok := parseAddress(c)
    if !ok {
        return badRequest(c, "invalid address")
    }
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    qr, views, err := h.Tickets.MarkPendingScan(c.Request().Context(), owner, id)
    if err != nil {
        return fail(c, h.Logger, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"qr": qr, "items": views})
}

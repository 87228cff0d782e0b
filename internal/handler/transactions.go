package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinecrypto/internal/txn"
)

// TransactionHandler exposes purchases and refunds.
type TransactionHandler struct {
    Orchestrator *txn.Orchestrator
    Logger       *logrus.Logger
}

type purchaseRequest struct {
    SeatIDs []uint64 `json:"seat_ids"`
}

// Purchase answers 202 once the network has accepted the transaction.
// Seat state is authoritative only after the next seatmap read.
func (h *TransactionHandler) Purchase(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    var req purchaseRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    res, err := h.Orchestrator.Purchase(c.Request().Context(), id, req.SeatIDs)
    if err != nil {
        return fail(c, h.Logger, err)
    }
    return c.JSON(http.StatusAccepted, res)
}

// Refund answers 200 after the refund is mined.
func (h *TransactionHandler) Refund(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return badRequest(c, "invalid id")
    }
    res, err := h.Orchestrator.Refund(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Logger, err)
    }
    return c.JSON(http.StatusOK, res)
}

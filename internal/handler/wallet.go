package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinecrypto/internal/wallet"
)

// WalletHandler manages the connected wallet session.
type WalletHandler struct {
    Session *wallet.Session
    Logger  *logrus.Logger
}

func (h *WalletHandler) Status(c echo.Context) error {
    return c.JSON(http.StatusOK, h.Session.Status())
}

type unlockRequest struct {
    Passphrase string `json:"passphrase"`
}

// Unlock decrypts the configured keystore with the given passphrase.
func (h *WalletHandler) Unlock(c echo.Context) error {
    var req unlockRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if err := h.Session.Unlock(req.Passphrase); err != nil {
        return fail(c, h.Logger, err)
    }
    return c.JSON(http.StatusOK, h.Session.Status())
}

func (h *WalletHandler) Disconnect(c echo.Context) error {
    h.Session.Disconnect()
    return c.NoContent(http.StatusNoContent)
}

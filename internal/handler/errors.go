// Package handler exposes the read views and transaction operations over
// HTTP.  Every error response is {"error": code, "message": text}.
package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinecrypto/internal/ledger"
    "github.com/iliyamo/cinecrypto/internal/service"
    "github.com/iliyamo/cinecrypto/internal/tickets"
    "github.com/iliyamo/cinecrypto/internal/txn"
    "github.com/iliyamo/cinecrypto/internal/wallet"
)

// fail writes the response for err.  Known errors keep their message;
// anything else is logged and reported generically.
func fail(c echo.Context, logger *logrus.Logger, err error) error {
    var rej *ledger.RejectedError
    switch {
    case errors.As(err, &rej):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "transaction_rejected", "message": rej.Reason})
    case errors.Is(err, wallet.ErrNotConnected):
        return c.JSON(http.StatusPreconditionRequired, echo.Map{"error": "wallet_not_connected", "message": "connect a wallet to continue"})
    case errors.Is(err, txn.ErrAttemptInFlight):
        return c.JSON(http.StatusConflict, echo.Map{"error": "attempt_in_flight", "message": err.Error()})
    case errors.Is(err, txn.ErrInvalidSelection):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_selection", "message": err.Error()})
    case errors.Is(err, service.ErrMovieNotFound), errors.Is(err, service.ErrShowtimeNotFound), errors.Is(err, tickets.ErrTicketNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": err.Error()})
    case errors.Is(err, tickets.ErrNotScannable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "not_scannable", "message": err.Error()})
    case errors.Is(err, wallet.ErrBadPassphrase):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "bad_passphrase", "message": "could not unlock keystore"})
    case errors.Is(err, wallet.ErrNoKeystore):
        return c.JSON(http.StatusConflict, echo.Map{"error": "no_keystore", "message": err.Error()})
    case errors.Is(err, ledger.ErrGatewayUnavailable):
        logger.WithError(err).Warn("handler: ledger unavailable")
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "unavailable", "message": "cannot load data, please try again"})
    case errors.Is(err, ledger.ErrTransactionFailed):
        logger.WithError(err).Error("handler: transaction failed")
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "transaction_failed", "message": "transaction failed, please try again"})
    }
    logger.WithError(err).Error("handler: unexpected error")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}

// Package router registers the HTTP routes.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinecrypto/internal/handler"
)

// Handlers groups everything the routes dispatch to.  TxLimit wraps the
// routes that submit transactions.
type Handlers struct {
    Browse       *handler.BrowseHandler
    Transactions *handler.TransactionHandler
    Tickets      *handler.TicketHandler
    Wallet       *handler.WalletHandler
    TxLimit      echo.MiddlewareFunc
}

// RegisterRoutes registers the health check, which needs no dependencies.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the /v1 routes.
func RegisterAPI(e *echo.Echo, h Handlers) {
    v1 := e.Group("/v1")

    // read views
    v1.GET("/home", h.Browse.Home)
    v1.GET("/search", h.Browse.Search)
    v1.GET("/movies/:id", h.Browse.MovieByLedgerID)
    v1.GET("/movies/:id/showtimes", h.Browse.Showtimes)
    v1.GET("/catalog/movies/:id", h.Browse.MovieByCatalogID)
    v1.GET("/showtimes/:id/seatmap", h.Browse.Seatmap)

    // transactions
    limit := h.TxLimit
    if limit == nil {
        limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    v1.POST("/showtimes/:id/purchase", h.Transactions.Purchase, limit)
    v1.POST("/tickets/:id/refund", h.Transactions.Refund, limit)

    // tickets of a wallet
    v1.GET("/wallets/:address/tickets", h.Tickets.List)
    v1.POST("/wallets/:address/tickets/:id/pending-scan", h.Tickets.MarkPendingScan)

    // wallet session
    v1.GET("/wallet", h.Wallet.Status)
    v1.POST("/wallet/unlock", h.Wallet.Unlock)
    v1.DELETE("/wallet", h.Wallet.Disconnect)
}

package handlers

import (
	"kobo/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes mounts all API routes on the fiber app.
func SetupRoutes(app *fiber.App, paymentH *PaymentHandler, walletH *WalletHandler, roundUpH *RoundUpHandler) {
	app.Get("/health", Health)

	api := app.Group("/api", middleware.Auth)

	api.Post("/payments/merchant", paymentH.PayMerchant)
	api.Post("/transfers/peer", paymentH.TransferPeer)

	api.Get("/wallets", walletH.GetBalance)
	api.Get("/transactions", walletH.ListTransactions)

	api.Get("/roundup/rule", roundUpH.GetRule)
}

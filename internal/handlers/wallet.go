package handlers

import (
	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/wallet"
	"kobo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	walletService wallet.Service
	transactions  repositories.TransactionRepository
}

func NewWalletHandler(walletSvc wallet.Service, txns repositories.TransactionRepository) *WalletHandler {
	return &WalletHandler{
		walletService: walletSvc,
		transactions:  txns,
	}
}

// GetBalance returns both wallets for the authenticated user.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	main, err := h.walletService.RequireWallet(c.Context(), claims.UserID, models.WalletTypeMain)
	if err != nil {
		return response.Error(c, fiber.StatusNotFound, err.Error())
	}
	savings, err := h.walletService.RequireWallet(c.Context(), claims.UserID, models.WalletTypeSavings)
	if err != nil {
		return response.Error(c, fiber.StatusNotFound, err.Error())
	}

	return response.Success(c, "Wallets retrieved", fiber.Map{
		"main":    main,
		"savings": savings,
	})
}

// ListTransactions returns the user's transaction history, newest first.
func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	txns, err := h.transactions.FindByUserID(claims.UserID, limit, offset)
	if err != nil {
		return response.ServerError(c, err.Error())
	}
	return response.Success(c, "Transactions retrieved", txns)
}

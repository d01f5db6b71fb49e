package handlers

import (
	"errors"

	domainerrors "kobo/internal/errors"
	"kobo/internal/models"
	"kobo/internal/services/payment"
	"kobo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	paymentService payment.Service
	ids            payment.IDGenerator
}

func NewPaymentHandler(paymentSvc payment.Service, ids payment.IDGenerator) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentSvc,
		ids:            ids,
	}
}

// PayMerchant starts a merchant payment. The client may supply payment_id as
// its idempotency key; one is minted here otherwise and echoed back so the
// client can safely retry with it.
func (h *PaymentHandler) PayMerchant(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	var req payment.MerchantPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	req.UserID = claims.UserID
	if req.Email == "" {
		req.Email = claims.Email
	}
	if req.PaymentID == "" {
		req.PaymentID = h.ids.NewID()
	}

	result, err := h.paymentService.PayMerchant(c.Context(), req)
	if err != nil {
		return paymentError(c, err)
	}
	return response.Success(c, "Payment initiated", result)
}

// TransferPeer starts a peer transfer; transfer_id follows the same
// idempotency contract as payment_id.
func (h *PaymentHandler) TransferPeer(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	var req payment.PeerTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	req.UserID = claims.UserID
	if req.TransferID == "" {
		req.TransferID = h.ids.NewID()
	}

	result, err := h.paymentService.TransferPeer(c.Context(), req)
	if err != nil {
		return paymentError(c, err)
	}
	return response.Success(c, "Transfer initiated", result)
}

func paymentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domainerrors.ErrInvalidPaymentRequest):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domainerrors.ErrInsufficientFunds):
		return response.Error(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domainerrors.ErrWalletNotFound):
		return response.Error(c, fiber.StatusNotFound, err.Error())
	default:
		return response.ServerError(c, err.Error())
	}
}

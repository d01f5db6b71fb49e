package handlers

import (
	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type RoundUpHandler struct {
	rules repositories.RoundUpRuleRepository
}

func NewRoundUpHandler(rules repositories.RoundUpRuleRepository) *RoundUpHandler {
	return &RoundUpHandler{rules: rules}
}

// GetRule returns the user's round-up configuration. Rules are written by
// the spending-analysis service; this surface is read-only.
func (h *RoundUpHandler) GetRule(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.UserClaims)

	rule, err := h.rules.FindByUserID(claims.UserID)
	if err != nil {
		return response.ServerError(c, err.Error())
	}
	if rule == nil {
		return response.Success(c, "No round-up rule configured", nil)
	}
	return response.Success(c, "Round-up rule retrieved", rule)
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/database"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/payments"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/usercontext"
)

// HandleListPaymentMethods returns the caller's saved payment methods,
// default first, then newest first.
func HandleListPaymentMethods(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := payments.NewServiceFromDB(database.GetDB())
	methods, err := svc.ListPaymentMethodsForUser(c.Context(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load payment methods")
	}

	return c.JSON(fiber.Map{"payment_methods": methods})
}

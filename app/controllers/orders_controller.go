package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/database"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/entitlements"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/metrics/counter"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/payments"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/storage"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/usercontext"
)

const downloadLinkTTL = 15 * time.Minute

// HandleMyPurchases lists the caller's orders with their items, newest first.
func HandleMyPurchases(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := payments.NewServiceFromDB(database.GetDB())
	purchases, err := svc.GetMyPurchases(c.Context(), userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load purchases")
	}
	return c.JSON(fiber.Map{"purchases": purchases})
}

// HandleGetOrder returns one order with items; callers only see their own.
func HandleGetOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	orderID := parseUintParam(c, "id")
	if orderID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing order id")
	}

	svc := payments.NewServiceFromDB(database.GetDB())
	purchase, err := svc.GetOrderForUser(c.Context(), userCtx.UserID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return jsonError(c, fiber.StatusNotFound, "not_found", "Order not found")
		case errors.Is(err, payments.ErrNotAuthorized):
			return jsonError(c, fiber.StatusForbidden, "forbidden", "Not your order")
		default:
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load order")
		}
	}
	return c.JSON(purchase)
}

// HandleResyncOrder reconciles an order for a checkout session the webhook
// pipeline never saw. Admin-only; the session is fetched from the payment
// provider and run through the regular order writer.
func HandleResyncOrder(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.SessionID == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing session_id")
	}

	svc := payments.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := svc.ResyncCheckoutSession(ctx, req.SessionID)
	if err != nil {
		if payments.IsFatalInput(err) {
			return jsonError(c, fiber.StatusBadRequest, "invalid_session", err.Error())
		}
		log.Errorf("[Orders] resync for session %s: %v", req.SessionID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to resync order")
	}

	return c.JSON(fiber.Map{
		"ok":                result.OrderID != 0,
		"order_id":          result.OrderID,
		"already_processed": result.AlreadyProcessed,
	})
}

// HandleDownloadProduct resolves the caller's entitlement for a product and
// returns a short-lived presigned download URL for the snapshotted file key.
func HandleDownloadProduct(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	productID := parseUintParam(c, "id")
	if productID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing product id")
	}

	svc := payments.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	grant, err := entitlements.ResolveDownload(ctx, svc, userCtx.UserID, productID)
	if err != nil {
		if errors.Is(err, entitlements.ErrNoEntitlement) {
			return jsonError(c, fiber.StatusForbidden, "forbidden", "No entitlement for this product")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to resolve entitlement")
	}

	client, err := storage.GetDeliveryClient()
	if err != nil {
		log.Errorf("[Orders] delivery storage unavailable: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Delivery storage unavailable")
	}
	url, err := client.PresignDownload(ctx, grant.FileKey, downloadLinkTTL)
	if err != nil {
		log.Errorf("[Orders] presign for product %d key %s: %v", productID, grant.FileKey, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create download link")
	}

	if err := counter.AddProductDownload(productID); err != nil {
		log.Errorf("[Orders] download counter for product %d: %v", productID, err)
	}

	return c.JSON(fiber.Map{
		"url":        url,
		"expires_in": int(downloadLinkTTL.Seconds()),
	})
}

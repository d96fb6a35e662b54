package controllers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/database"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/env"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/payments"
)

// stripeEnvelope is the outer webhook body; the handled object lives under
// data.object and is passed through to the dispatcher untouched.
type stripeEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// HandleStripeWebhook receives provider deliveries, verifies the signature
// over the raw body and hands the inner object to the payments dispatcher.
// Processing failures return 5xx so the provider redelivers.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	if !payments.VerifyStripeWebhookSignature(rawBody, signature, secret, time.Now()) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var envelope stripeEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := payments.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := svc.Dispatch(ctx, payments.DispatchInput{
		EventID:        envelope.ID,
		EventType:      envelope.Type,
		Payload:        envelope.Data.Object,
		SignatureValid: true,
	})
	if err != nil {
		if payments.IsFatalInput(err) {
			// Malformed or unfulfillable events never become valid on retry;
			// acknowledge with a 4xx so the provider stops redelivering.
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_event", "detail": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_processing_failed"})
	}

	resp := fiber.Map{"ok": true}
	if res.Duplicate {
		resp["duplicate"] = true
	}
	if res.Ignored {
		resp["ignored"] = true
	}
	if res.OrderID != 0 {
		resp["order_id"] = res.OrderID
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

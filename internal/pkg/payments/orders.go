package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
)

// CheckoutInput is a validated payment-completion event ready for order
// creation.
type CheckoutInput struct {
	EventID        string
	EventType      string
	SessionID      string
	FanUserID      uint
	ProductID      uint
	AmountTotal    int64
	Currency       string
	PayloadJSON    string
	SignatureValid bool
}

// OrderResult identifies the order an event resolved to.
type OrderResult struct {
	OrderID          uint
	AlreadyProcessed bool
}

// CreateOrderFromCheckout creates the order, its entitlement item and the
// ledger row exactly once per event. The three writes share one transaction;
// a replay returns the existing order id instead of writing anything.
func (s *Service) CreateOrderFromCheckout(ctx context.Context, in CheckoutInput) (*OrderResult, error) {
	_ = ctx

	// Defensive re-check behind the dispatcher's idempotency gate.
	processed, err := s.repo.IsEventProcessed(s.provider, in.EventID)
	if err != nil {
		return nil, err
	}
	if processed {
		return s.resolveProcessedOrder(in)
	}

	// The session may already have an order under a different event id, e.g.
	// after an admin resync raced the webhook delivery. Ledger this delivery
	// too so redeliveries dedupe, and resolve to the existing order instead
	// of tripping the session unique index.
	if existing, err := s.repo.GetOrderByProviderSessionID(s.provider, in.SessionID); err == nil {
		now := time.Now()
		if _, _, err := s.repo.CreateWebhookEventIfNotExists(&models.PaymentWebhookEvent{
			Provider:        s.provider,
			ProviderEventID: in.EventID,
			EventType:       in.EventType,
			PayloadJSON:     in.PayloadJSON,
			SignatureValid:  in.SignatureValid,
			ProcessedAt:     &now,
		}); err != nil {
			return nil, err
		}
		return &OrderResult{OrderID: existing.ID, AlreadyProcessed: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product, err := s.repo.GetProductByID(in.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, in.ProductID)
		}
		return nil, err
	}
	if !product.HasDeliverable() {
		return nil, fmt.Errorf("%w: product %d", ErrProductNotDeliverable, product.ID)
	}

	order := &models.Order{
		FanUserID:         in.FanUserID,
		Provider:          s.provider,
		ProviderSessionID: in.SessionID,
		TotalAmount:       in.AmountTotal,
		Currency:          in.Currency,
		Status:            models.OrderStatusPaid,
	}
	item := &models.OrderItem{
		ProductID:   product.ID,
		ProductType: product.Type,
		Price:       product.PriceCents,
		FileKey:     product.FileKey,
	}
	now := time.Now()
	event := &models.PaymentWebhookEvent{
		Provider:        s.provider,
		ProviderEventID: in.EventID,
		EventType:       in.EventType,
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
		ProcessedAt:     &now,
	}

	if err := s.repo.CreateOrderWithEntitlement(order, item, event); err != nil {
		if errors.Is(err, errEventAlreadyRecorded) {
			// Lost a delivery race; the winner's order must exist.
			return s.resolveProcessedOrder(in)
		}
		return nil, err
	}

	return &OrderResult{OrderID: order.ID}, nil
}

// ResyncCheckoutSession reconciles an order for a checkout session whose
// webhook was never delivered. The session is fetched straight from the
// provider and pushed through the regular order writer under a synthetic
// event id, so repeating the resync stays idempotent. If the order already
// exists the call is a no-op.
func (s *Service) ResyncCheckoutSession(ctx context.Context, sessionID string) (*OrderResult, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidPayload)
	}

	// An existing order means the webhook arrived after all.
	order, err := s.repo.GetOrderByProviderSessionID(s.provider, id)
	if err == nil {
		return &OrderResult{OrderID: order.ID, AlreadyProcessed: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	checkout, err := s.client.GetCheckoutSession(ctx, id)
	if err != nil {
		return nil, err
	}

	payloadJSON, _ := json.Marshal(map[string]interface{}{
		"id": checkout.SessionID,
		"metadata": map[string]string{
			"fan_user_id": strconv.FormatUint(uint64(checkout.FanUserID), 10),
			"product_id":  strconv.FormatUint(uint64(checkout.ProductID), 10),
		},
		"amount_total": checkout.AmountTotal,
		"currency":     checkout.Currency,
	})

	result, err := s.CreateOrderFromCheckout(ctx, CheckoutInput{
		EventID:     "resync_" + checkout.SessionID,
		EventType:   EventCheckoutResync,
		SessionID:   checkout.SessionID,
		FanUserID:   checkout.FanUserID,
		ProductID:   checkout.ProductID,
		AmountTotal: checkout.AmountTotal,
		Currency:    checkout.Currency,
		PayloadJSON: string(payloadJSON),
		// Fetched over the authenticated API rather than a signed webhook.
		SignatureValid: true,
	})
	if err != nil {
		return nil, err
	}
	log.Infof("[Payments] resynced checkout session %s into order %d", checkout.SessionID, result.OrderID)
	return result, nil
}

// resolveProcessedOrder maps an already-ledgered event back to its order. A
// ledgered event without an order means the atomic-write guarantee was
// violated somewhere and is reported as a consistency fault.
func (s *Service) resolveProcessedOrder(in CheckoutInput) (*OrderResult, error) {
	order, err := s.repo.GetOrderByProviderSessionID(s.provider, in.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Payments] ledger/order mismatch: event %s processed but session %s has no order", in.EventID, in.SessionID)
			return nil, ErrLedgerOrderMismatch
		}
		return nil, err
	}
	return &OrderResult{OrderID: order.ID, AlreadyProcessed: true}, nil
}

// Purchase bundles an order with its entitlement items.
type Purchase struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// GetMyPurchases returns the caller's orders, newest first, with their items.
func (s *Service) GetMyPurchases(ctx context.Context, userID uint) ([]Purchase, error) {
	_ = ctx
	orders, err := s.repo.ListOrdersByUser(userID)
	if err != nil {
		return nil, err
	}

	purchases := make([]Purchase, 0, len(orders))
	for _, order := range orders {
		items, err := s.repo.ListOrderItems(order.ID)
		if err != nil {
			return nil, err
		}
		order.FormatAmounts()
		purchases = append(purchases, Purchase{Order: order, Items: items})
	}
	return purchases, nil
}

// GetOrderForUser returns one order with items, failing with ErrNotAuthorized
// when the caller does not own it.
func (s *Service) GetOrderForUser(ctx context.Context, userID, orderID uint) (*Purchase, error) {
	_ = ctx
	order, err := s.repo.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.FanUserID != userID {
		return nil, ErrNotAuthorized
	}

	items, err := s.repo.ListOrderItems(order.ID)
	if err != nil {
		return nil, err
	}
	out := *order
	out.FormatAmounts()
	return &Purchase{Order: out, Items: items}, nil
}

// GetEntitledItem returns the entitlement row granting userID access to
// productID, or gorm.ErrRecordNotFound when no purchase exists.
func (s *Service) GetEntitledItem(ctx context.Context, userID, productID uint) (*models.OrderItem, error) {
	_ = ctx
	return s.repo.GetEntitledItem(userID, productID)
}

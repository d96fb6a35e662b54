package payments

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
)

// DispatchInput is one verified webhook delivery from the payment provider.
type DispatchInput struct {
	EventID        string
	EventType      string
	Payload        []byte
	SignatureValid bool
}

// DispatchResult reports what a delivery did.
type DispatchResult struct {
	// Duplicate is set when the event was already processed and the call was
	// an idempotent no-op.
	Duplicate bool
	// Ignored is set when the event was valid but had no local effect, e.g.
	// a payment method for a customer with no linked user.
	Ignored bool
	// OrderID is set for checkout events: the created order, or the existing
	// one on replay.
	OrderID uint
}

// Dispatch routes one webhook delivery to exactly one handler. Events already
// in the ledger return a duplicate no-op without side effects. On handler
// failure nothing is marked processed, so the provider's redelivery retries
// the whole unit.
func (s *Service) Dispatch(ctx context.Context, in DispatchInput) (*DispatchResult, error) {
	ev, err := ParseEvent(in.EventID, in.EventType, in.Payload)
	if err != nil {
		return nil, err
	}

	processed, err := s.repo.IsEventProcessed(s.provider, ev.ID)
	if err != nil {
		return nil, err
	}
	if processed {
		res := &DispatchResult{Duplicate: true}
		if ev.Type == EventCheckoutCompleted {
			order, err := s.repo.GetOrderByProviderSessionID(s.provider, ev.Checkout.SessionID)
			if err != nil {
				log.Errorf("[Payments] ledger/order mismatch for event %s session %s: %v", ev.ID, ev.Checkout.SessionID, err)
				return nil, ErrLedgerOrderMismatch
			}
			res.OrderID = order.ID
		}
		return res, nil
	}

	switch ev.Type {
	case EventCheckoutCompleted:
		out, err := s.CreateOrderFromCheckout(ctx, CheckoutInput{
			EventID:        ev.ID,
			EventType:      ev.Type,
			SessionID:      ev.Checkout.SessionID,
			FanUserID:      ev.Checkout.FanUserID,
			ProductID:      ev.Checkout.ProductID,
			AmountTotal:    ev.Checkout.AmountTotal,
			Currency:       ev.Checkout.Currency,
			PayloadJSON:    string(in.Payload),
			SignatureValid: in.SignatureValid,
		})
		if err != nil {
			return nil, err
		}
		return &DispatchResult{Duplicate: out.AlreadyProcessed, OrderID: out.OrderID}, nil

	case EventSetupSucceeded, EventPaymentMethodAttached:
		err := s.UpsertPaymentMethodFromAttach(ctx, ev.PaymentMethod)
		if errors.Is(err, ErrNoLinkedUser) {
			// Nothing to project locally; still mark the event applied so a
			// redelivery stays a no-op.
			if merr := s.markEventProcessed(ev, in, err.Error()); merr != nil {
				return nil, merr
			}
			return &DispatchResult{Ignored: true}, nil
		}
		if err != nil {
			return nil, err
		}
		return &DispatchResult{}, s.markEventProcessed(ev, in, "")

	case EventPaymentMethodDetached:
		if _, err := s.RemovePaymentMethodByProviderID(ctx, ev.PaymentMethod.PaymentMethodID); err != nil {
			return nil, err
		}
		return &DispatchResult{}, s.markEventProcessed(ev, in, "")

	case EventCustomerUpdated:
		if ev.Customer.DefaultPaymentMethodID != "" {
			if err := s.SetDefaultPaymentMethodForCustomer(ctx, ev.Customer.CustomerID, ev.Customer.DefaultPaymentMethodID); err != nil {
				return nil, err
			}
		}
		return &DispatchResult{}, s.markEventProcessed(ev, in, "")
	}

	return nil, ErrUnsupportedEvent
}

// markEventProcessed appends the ledger row for handler paths that do not
// write it inside their own transaction.
func (s *Service) markEventProcessed(ev *Event, in DispatchInput, processingError string) error {
	now := time.Now()
	_, _, err := s.repo.CreateWebhookEventIfNotExists(&models.PaymentWebhookEvent{
		Provider:        s.provider,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		PayloadJSON:     string(in.Payload),
		SignatureValid:  in.SignatureValid,
		ProcessedAt:     &now,
		ProcessingError: processingError,
	})
	return err
}

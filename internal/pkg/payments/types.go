package payments

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Webhook event types handled by the dispatcher.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventSetupSucceeded        = "setup_intent.succeeded"
	EventPaymentMethodAttached = "payment_method.attached"
	EventPaymentMethodDetached = "payment_method.detached"
	EventCustomerUpdated       = "customer.updated"
)

// EventCheckoutResync is the ledger event type recorded when an order is
// reconciled from the provider API instead of a webhook delivery.
const EventCheckoutResync = "checkout.session.resync"

// CardDetails is the card metadata carried by payment-method payloads.
type CardDetails struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// CheckoutPayload is the normalized shape of a completed checkout session.
type CheckoutPayload struct {
	SessionID   string
	FanUserID   uint
	ProductID   uint
	AmountTotal int64
	Currency    string
}

// PaymentMethodPayload is the normalized shape shared by setup-succeeded,
// payment-method-attached and payment-method-detached events.
type PaymentMethodPayload struct {
	PaymentMethodID string
	CustomerID      string
	Card            *CardDetails
	BillingName     string
	BillingEmail    string
}

// CustomerPayload is the normalized shape of a customer-updated event.
type CustomerPayload struct {
	CustomerID             string
	DefaultPaymentMethodID string
}

// Event is the validated tagged union produced at the dispatcher boundary.
// Exactly one payload pointer is non-nil, selected by Type, so downstream
// handlers never re-validate shape.
type Event struct {
	ID   string
	Type string

	Checkout      *CheckoutPayload
	PaymentMethod *PaymentMethodPayload
	Customer      *CustomerPayload
}

type rawCheckoutSession struct {
	ID       string `json:"id"`
	Metadata struct {
		FanUserID string `json:"fan_user_id"`
		ProductID string `json:"product_id"`
	} `json:"metadata"`
	AmountTotal int64  `json:"amount_total"`
	Currency    string `json:"currency"`
}

type rawPaymentMethod struct {
	ID             string       `json:"id"`
	Customer       string       `json:"customer"`
	PaymentMethod  string       `json:"payment_method"`
	Card           *CardDetails `json:"card"`
	BillingDetails struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"billing_details"`
}

type rawCustomer struct {
	ID              string `json:"id"`
	InvoiceSettings struct {
		DefaultPaymentMethod string `json:"default_payment_method"`
	} `json:"invoice_settings"`
}

// ParseEvent validates an event envelope into the tagged union. Unknown event
// types are rejected with ErrUnsupportedEvent; structurally broken payloads
// with ErrInvalidPayload.
func ParseEvent(eventID, eventType string, payload []byte) (*Event, error) {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return nil, fmt.Errorf("%w: missing event id", ErrInvalidPayload)
	}

	ev := &Event{ID: id, Type: strings.TrimSpace(eventType)}

	switch ev.Type {
	case EventCheckoutCompleted:
		var raw rawCheckoutSession
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		checkout, err := checkoutFromRaw(raw)
		if err != nil {
			return nil, err
		}
		ev.Checkout = checkout

	case EventSetupSucceeded, EventPaymentMethodAttached, EventPaymentMethodDetached:
		var raw rawPaymentMethod
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		// Setup intents reference the payment method by id; attach/detach
		// deliver the payment method object itself.
		pmID := strings.TrimSpace(raw.PaymentMethod)
		if ev.Type != EventSetupSucceeded {
			pmID = strings.TrimSpace(raw.ID)
		}
		if pmID == "" {
			return nil, fmt.Errorf("%w: missing payment method id", ErrInvalidPayload)
		}
		customerID := strings.TrimSpace(raw.Customer)
		if customerID == "" && ev.Type != EventPaymentMethodDetached {
			return nil, fmt.Errorf("%w: missing customer id", ErrInvalidPayload)
		}
		ev.PaymentMethod = &PaymentMethodPayload{
			PaymentMethodID: pmID,
			CustomerID:      customerID,
			Card:            raw.Card,
			BillingName:     strings.TrimSpace(raw.BillingDetails.Name),
			BillingEmail:    strings.TrimSpace(raw.BillingDetails.Email),
		}

	case EventCustomerUpdated:
		var raw rawCustomer
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if strings.TrimSpace(raw.ID) == "" {
			return nil, fmt.Errorf("%w: customer payload missing id", ErrInvalidPayload)
		}
		ev.Customer = &CustomerPayload{
			CustomerID:             strings.TrimSpace(raw.ID),
			DefaultPaymentMethodID: strings.TrimSpace(raw.InvoiceSettings.DefaultPaymentMethod),
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, eventType)
	}

	return ev, nil
}

// checkoutFromRaw validates a checkout session into its normalized payload.
// Shared by the webhook parser and the API resync fetch so both enforce the
// same required fields.
func checkoutFromRaw(raw rawCheckoutSession) (*CheckoutPayload, error) {
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("%w: checkout session missing id", ErrInvalidPayload)
	}
	fanID, err := parseUintField(raw.Metadata.FanUserID)
	if err != nil || fanID == 0 {
		return nil, fmt.Errorf("%w: checkout session missing fan_user_id metadata", ErrInvalidPayload)
	}
	productID, err := parseUintField(raw.Metadata.ProductID)
	if err != nil || productID == 0 {
		return nil, fmt.Errorf("%w: checkout session missing product_id metadata", ErrInvalidPayload)
	}
	currency := strings.ToLower(strings.TrimSpace(raw.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: checkout session missing currency", ErrInvalidPayload)
	}
	return &CheckoutPayload{
		SessionID:   strings.TrimSpace(raw.ID),
		FanUserID:   fanID,
		ProductID:   productID,
		AmountTotal: raw.AmountTotal,
		Currency:    currency,
	}, nil
}

func parseUintField(s string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

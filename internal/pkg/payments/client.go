package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// ProcessorClient is the payment-processor surface the dispatcher and the
// payment-method projector depend on. It is constructor-injected so tests can
// substitute a fake.
type ProcessorClient interface {
	// GetCustomerDefaultPaymentMethod returns the provider id of the
	// customer's current default payment method, or "" when none is set.
	GetCustomerDefaultPaymentMethod(ctx context.Context, customerID string) (string, error)
	// GetPaymentMethod fetches card metadata for a payment method id.
	GetPaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethodPayload, error)
	// GetCheckoutSession fetches a checkout session directly from the
	// provider, used to reconcile orders when the webhook was never
	// delivered.
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutPayload, error)
}

// StripeClient talks to the Stripe REST API over plain HTTP.
type StripeClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewStripeClientFromEnv builds a client from STRIPE_* environment variables.
func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *StripeClient) getJSON(ctx context.Context, path string, out interface{}) error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("STRIPE_SECRET_KEY is not configured")
	}

	url := strings.TrimRight(c.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stripe request %s failed: status=%d body=%s", path, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (c *StripeClient) GetCustomerDefaultPaymentMethod(ctx context.Context, customerID string) (string, error) {
	id := strings.TrimSpace(customerID)
	if id == "" {
		return "", errors.New("customer id is required")
	}

	var raw rawCustomer
	if err := c.getJSON(ctx, "/customers/"+id, &raw); err != nil {
		return "", err
	}
	return strings.TrimSpace(raw.InvoiceSettings.DefaultPaymentMethod), nil
}

func (c *StripeClient) GetPaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethodPayload, error) {
	id := strings.TrimSpace(paymentMethodID)
	if id == "" {
		return nil, errors.New("payment method id is required")
	}

	var raw rawPaymentMethod
	if err := c.getJSON(ctx, "/payment_methods/"+id, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("stripe payment method response missing id")
	}
	return &PaymentMethodPayload{
		PaymentMethodID: strings.TrimSpace(raw.ID),
		CustomerID:      strings.TrimSpace(raw.Customer),
		Card:            raw.Card,
		BillingName:     strings.TrimSpace(raw.BillingDetails.Name),
		BillingEmail:    strings.TrimSpace(raw.BillingDetails.Email),
	}, nil
}

func (c *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutPayload, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, errors.New("session id is required")
	}

	var raw rawCheckoutSession
	if err := c.getJSON(ctx, "/checkout/sessions/"+id, &raw); err != nil {
		return nil, err
	}
	return checkoutFromRaw(raw)
}

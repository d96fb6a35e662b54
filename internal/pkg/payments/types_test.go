package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventCheckout(t *testing.T) {
	payload := []byte(`{
		"id": "cs_123",
		"metadata": {"fan_user_id": "42", "product_id": "7"},
		"amount_total": 1999,
		"currency": "USD"
	}`)

	ev, err := ParseEvent("evt_1", EventCheckoutCompleted, payload)
	require.NoError(t, err)
	require.NotNil(t, ev.Checkout)
	assert.Nil(t, ev.PaymentMethod)
	assert.Nil(t, ev.Customer)

	assert.Equal(t, "cs_123", ev.Checkout.SessionID)
	assert.Equal(t, uint(42), ev.Checkout.FanUserID)
	assert.Equal(t, uint(7), ev.Checkout.ProductID)
	assert.Equal(t, int64(1999), ev.Checkout.AmountTotal)
	assert.Equal(t, "usd", ev.Checkout.Currency)
}

func TestParseEventCheckoutInvalid(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"missing session id", `{"metadata": {"fan_user_id": "42", "product_id": "7"}, "currency": "usd"}`},
		{"missing fan user id", `{"id": "cs_1", "metadata": {"product_id": "7"}, "currency": "usd"}`},
		{"non-numeric fan user id", `{"id": "cs_1", "metadata": {"fan_user_id": "abc", "product_id": "7"}, "currency": "usd"}`},
		{"missing product id", `{"id": "cs_1", "metadata": {"fan_user_id": "42"}, "currency": "usd"}`},
		{"missing currency", `{"id": "cs_1", "metadata": {"fan_user_id": "42", "product_id": "7"}}`},
		{"broken json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEvent("evt_1", EventCheckoutCompleted, []byte(tc.payload))
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestParseEventSetupIntentUsesPaymentMethodRef(t *testing.T) {
	payload := []byte(`{"id": "seti_1", "customer": "cus_1", "payment_method": "pm_9"}`)

	ev, err := ParseEvent("evt_1", EventSetupSucceeded, payload)
	require.NoError(t, err)
	require.NotNil(t, ev.PaymentMethod)
	assert.Equal(t, "pm_9", ev.PaymentMethod.PaymentMethodID)
	assert.Equal(t, "cus_1", ev.PaymentMethod.CustomerID)
	assert.Nil(t, ev.PaymentMethod.Card)
}

func TestParseEventAttachedCarriesCard(t *testing.T) {
	payload := []byte(`{
		"id": "pm_1",
		"customer": "cus_1",
		"card": {"brand": "visa", "last4": "4242", "exp_month": 4, "exp_year": 2030},
		"billing_details": {"name": "Ada", "email": "ada@example.com"}
	}`)

	ev, err := ParseEvent("evt_1", EventPaymentMethodAttached, payload)
	require.NoError(t, err)
	require.NotNil(t, ev.PaymentMethod.Card)
	assert.Equal(t, "visa", ev.PaymentMethod.Card.Brand)
	assert.Equal(t, "4242", ev.PaymentMethod.Card.Last4)
	assert.Equal(t, "Ada", ev.PaymentMethod.BillingName)
}

func TestParseEventDetachedAllowsMissingCustomer(t *testing.T) {
	ev, err := ParseEvent("evt_1", EventPaymentMethodDetached, []byte(`{"id": "pm_1"}`))
	require.NoError(t, err)
	assert.Equal(t, "pm_1", ev.PaymentMethod.PaymentMethodID)
	assert.Equal(t, "", ev.PaymentMethod.CustomerID)

	// Attach events do require the customer.
	_, err = ParseEvent("evt_1", EventPaymentMethodAttached, []byte(`{"id": "pm_1"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestParseEventCustomerUpdated(t *testing.T) {
	payload := []byte(`{"id": "cus_1", "invoice_settings": {"default_payment_method": "pm_3"}}`)

	ev, err := ParseEvent("evt_1", EventCustomerUpdated, payload)
	require.NoError(t, err)
	require.NotNil(t, ev.Customer)
	assert.Equal(t, "cus_1", ev.Customer.CustomerID)
	assert.Equal(t, "pm_3", ev.Customer.DefaultPaymentMethodID)

	// The default may legitimately be unset.
	ev, err = ParseEvent("evt_2", EventCustomerUpdated, []byte(`{"id": "cus_1"}`))
	require.NoError(t, err)
	assert.Equal(t, "", ev.Customer.DefaultPaymentMethodID)
}

func TestParseEventRejectsUnknownTypeAndMissingID(t *testing.T) {
	_, err := ParseEvent("evt_1", "charge.refunded", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnsupportedEvent)

	_, err = ParseEvent("", EventCustomerUpdated, []byte(`{"id": "cus_1"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
)

// UpsertPaymentMethodFromAttach projects a setup-succeeded or
// payment-method-attached event into the local read-model. Both event types
// carry overlapping information and funnel into this single upsert so double
// delivery cannot produce duplicate rows.
func (s *Service) UpsertPaymentMethodFromAttach(ctx context.Context, p *PaymentMethodPayload) error {
	if p == nil || strings.TrimSpace(p.PaymentMethodID) == "" {
		return fmt.Errorf("%w: missing payment method payload", ErrInvalidPayload)
	}

	// Setup events reference the method by id only; fetch card metadata from
	// the provider before writing the row.
	if p.Card == nil {
		fetched, err := s.client.GetPaymentMethod(ctx, p.PaymentMethodID)
		if err != nil {
			return err
		}
		if p.CustomerID == "" {
			p.CustomerID = fetched.CustomerID
		}
		p.Card = fetched.Card
		if p.BillingName == "" {
			p.BillingName = fetched.BillingName
		}
		if p.BillingEmail == "" {
			p.BillingEmail = fetched.BillingEmail
		}
	}
	if strings.TrimSpace(p.CustomerID) == "" {
		return fmt.Errorf("%w: missing customer id", ErrInvalidPayload)
	}

	userID, err := s.repo.GetUserIDByProviderCustomerID(p.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrNoLinkedUser, p.CustomerID)
		}
		return err
	}

	// The attach event does not say whether this method is the customer's
	// default, so ask the provider.
	defaultPM, err := s.client.GetCustomerDefaultPaymentMethod(ctx, p.CustomerID)
	if err != nil {
		return err
	}

	pm := &models.PaymentMethod{
		UserID:                  userID,
		ProviderCustomerID:      p.CustomerID,
		ProviderPaymentMethodID: p.PaymentMethodID,
		IsDefault:               defaultPM == p.PaymentMethodID,
		BillingName:             p.BillingName,
		BillingEmail:            p.BillingEmail,
	}
	if p.Card != nil {
		pm.Brand = p.Card.Brand
		pm.Last4 = p.Card.Last4
		pm.ExpMonth = p.Card.ExpMonth
		pm.ExpYear = p.Card.ExpYear
	}
	if err := s.repo.UpsertPaymentMethod(pm); err != nil {
		return err
	}

	// When the default moved to this method, clear the flag on the
	// customer's other rows so exactly one row per customer stays default.
	if pm.IsDefault {
		return s.SetDefaultPaymentMethodForCustomer(ctx, p.CustomerID, p.PaymentMethodID)
	}
	return nil
}

// RemovePaymentMethodByProviderID deletes the read-model row for a detached
// payment method. Removing an already-absent row is not an error; the
// returned bool reports whether a row was actually deleted.
func (s *Service) RemovePaymentMethodByProviderID(ctx context.Context, providerPaymentMethodID string) (bool, error) {
	_ = ctx
	id := strings.TrimSpace(providerPaymentMethodID)
	if id == "" {
		return false, fmt.Errorf("%w: missing payment method id", ErrInvalidPayload)
	}
	return s.repo.DeletePaymentMethodByProviderID(id)
}

// SetDefaultPaymentMethodForCustomer makes exactly one row per provider
// customer carry IsDefault=true. Only rows whose flag would actually change
// are written.
func (s *Service) SetDefaultPaymentMethodForCustomer(ctx context.Context, providerCustomerID, providerPaymentMethodID string) error {
	_ = ctx
	customerID := strings.TrimSpace(providerCustomerID)
	pmID := strings.TrimSpace(providerPaymentMethodID)
	if customerID == "" || pmID == "" {
		return fmt.Errorf("%w: customer and payment method ids are required", ErrInvalidPayload)
	}

	rows, err := s.repo.ListPaymentMethodsByCustomer(customerID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		want := row.ProviderPaymentMethodID == pmID
		if row.IsDefault == want {
			continue
		}
		if err := s.repo.UpdatePaymentMethodDefault(row.ID, want); err != nil {
			return err
		}
	}
	return nil
}

// ListPaymentMethodsForUser returns the user's saved payment methods with the
// default first, then newest first. This is the only ordering the UI relies
// on.
func (s *Service) ListPaymentMethodsForUser(ctx context.Context, userID uint) ([]models.PaymentMethod, error) {
	_ = ctx
	return s.repo.ListPaymentMethodsByUser(userID)
}

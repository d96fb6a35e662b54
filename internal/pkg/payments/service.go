package payments

import (
	"context"
	"strings"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
)

// Service owns the webhook ingestion pipeline: idempotent dispatch, order and
// entitlement creation, and the payment-method read-model projection.
type Service struct {
	repo     Repository
	client   ProcessorClient
	provider string
}

// NewService creates a payments service from injected dependencies.
func NewService(repo Repository, client ProcessorClient) *Service {
	return &Service{
		repo:     repo,
		client:   client,
		provider: models.PaymentProviderStripe,
	}
}

// NewServiceFromDB creates a payments service from a GORM DB handle using the
// production Stripe client.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), NewStripeClientFromEnv())
}

// IsEventProcessed reports whether a provider event id has already been
// applied.
func (s *Service) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	_ = ctx
	id := strings.TrimSpace(eventID)
	if id == "" {
		return false, nil
	}
	return s.repo.IsEventProcessed(s.provider, id)
}

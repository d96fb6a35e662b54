package entitlements

import (
	"context"
	"errors"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
)

// ErrNoEntitlement is returned when the user never purchased the product.
var ErrNoEntitlement = errors.New("no entitlement for product")

// PurchaseReader resolves purchase-backed grants. Satisfied by the payments
// service.
type PurchaseReader interface {
	GetEntitledItem(ctx context.Context, userID, productID uint) (*models.OrderItem, error)
}

// Grant is a resolved right to download one product deliverable. FileKey is
// the snapshot taken at purchase time, so the grant survives later product
// edits and deletions.
type Grant struct {
	OrderItemID uint
	ProductID   uint
	FileKey     string
}

// ResolveDownload checks whether userID may download productID's deliverable.
func ResolveDownload(ctx context.Context, reader PurchaseReader, userID, productID uint) (*Grant, error) {
	item, err := reader.GetEntitledItem(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoEntitlement
		}
		return nil, err
	}
	if item.FileKey == "" {
		return nil, ErrNoEntitlement
	}
	return &Grant{
		OrderItemID: item.ID,
		ProductID:   item.ProductID,
		FileKey:     item.FileKey,
	}, nil
}

package entitlements

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
)

type fakePurchaseReader struct {
	items map[[2]uint]*models.OrderItem
	err   error
}

func (f *fakePurchaseReader) GetEntitledItem(_ context.Context, userID, productID uint) (*models.OrderItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[[2]uint{userID, productID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func TestResolveDownloadGrantsSnapshotKey(t *testing.T) {
	reader := &fakePurchaseReader{items: map[[2]uint]*models.OrderItem{
		{42, 7}: {ID: 3, ProductID: 7, FileKey: "deliverables/1/uuid/track.wav"},
	}}

	grant, err := ResolveDownload(context.Background(), reader, 42, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(3), grant.OrderItemID)
	assert.Equal(t, uint(7), grant.ProductID)
	assert.Equal(t, "deliverables/1/uuid/track.wav", grant.FileKey)
}

func TestResolveDownloadWithoutPurchase(t *testing.T) {
	reader := &fakePurchaseReader{items: map[[2]uint]*models.OrderItem{}}

	_, err := ResolveDownload(context.Background(), reader, 42, 7)
	assert.ErrorIs(t, err, ErrNoEntitlement)
}

func TestResolveDownloadWithEmptyFileKey(t *testing.T) {
	reader := &fakePurchaseReader{items: map[[2]uint]*models.OrderItem{
		{42, 7}: {ID: 3, ProductID: 7},
	}}

	_, err := ResolveDownload(context.Background(), reader, 42, 7)
	assert.ErrorIs(t, err, ErrNoEntitlement)
}

func TestResolveDownloadPropagatesStorageErrors(t *testing.T) {
	dbErr := errors.New("connection reset")
	reader := &fakePurchaseReader{err: dbErr}

	_, err := ResolveDownload(context.Background(), reader, 42, 7)
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected underlying error, got %v", err)
	}
}

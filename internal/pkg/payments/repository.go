package payments

import (
	"errors"
	"time"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errEventAlreadyRecorded is returned from the atomic order write when the
// ledger insert hits the (provider, provider_event_id) unique index. The
// surrounding transaction rolls back, leaving no partial order state.
var errEventAlreadyRecorded = errors.New("webhook event already recorded")

// Repository provides DB operations used by the payments service.
type Repository interface {
	IsEventProcessed(provider, providerEventID string) (bool, error)
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error

	GetProductByID(id uint) (*models.Product, error)
	GetUserIDByProviderCustomerID(providerCustomerID string) (uint, error)

	// CreateOrderWithEntitlement writes the order, its entitlement item and
	// the ledger row atomically: either all three land, or none do. Returns
	// errEventAlreadyRecorded when the ledger row already exists.
	CreateOrderWithEntitlement(order *models.Order, item *models.OrderItem, event *models.PaymentWebhookEvent) error
	GetOrderByProviderSessionID(provider, sessionID string) (*models.Order, error)
	GetOrderByID(id uint) (*models.Order, error)
	ListOrdersByUser(userID uint) ([]models.Order, error)
	ListOrderItems(orderID uint) ([]models.OrderItem, error)
	GetEntitledItem(userID, productID uint) (*models.OrderItem, error)

	GetPaymentMethodByProviderID(providerPaymentMethodID string) (*models.PaymentMethod, error)
	UpsertPaymentMethod(pm *models.PaymentMethod) error
	DeletePaymentMethodByProviderID(providerPaymentMethodID string) (bool, error)
	ListPaymentMethodsByCustomer(providerCustomerID string) ([]models.PaymentMethod, error)
	UpdatePaymentMethodDefault(id uint, isDefault bool) error
	ListPaymentMethodsByUser(userID uint) ([]models.PaymentMethod, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) IsEventProcessed(provider, providerEventID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.PaymentWebhookEvent{}).
		Where("provider = ? AND provider_event_id = ? AND processed_at IS NOT NULL", provider, providerEventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) GetProductByID(id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetUserIDByProviderCustomerID(providerCustomerID string) (uint, error) {
	var user models.User
	err := r.db.Select("id").Where("stripe_customer_id = ?", providerCustomerID).First(&user).Error
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (r *gormRepository) CreateOrderWithEntitlement(order *models.Order, item *models.OrderItem, event *models.PaymentWebhookEvent) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		ledger := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "provider"},
				{Name: "provider_event_id"},
			},
			DoNothing: true,
		}).Create(event)
		if ledger.Error != nil {
			return ledger.Error
		}
		if ledger.RowsAffected == 0 {
			return errEventAlreadyRecorded
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}
		item.OrderID = order.ID
		return tx.Create(item).Error
	})
}

func (r *gormRepository) GetOrderByProviderSessionID(provider, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("provider = ? AND provider_session_id = ?", provider, sessionID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) GetOrderByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) ListOrdersByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("fan_user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *gormRepository) ListOrderItems(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.Where("order_id = ?", orderID).Find(&items).Error
	return items, err
}

func (r *gormRepository) GetEntitledItem(userID, productID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.fan_user_id = ? AND order_items.product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *gormRepository) GetPaymentMethodByProviderID(providerPaymentMethodID string) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	err := r.db.Where("provider_payment_method_id = ?", providerPaymentMethodID).First(&pm).Error
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

func (r *gormRepository) UpsertPaymentMethod(pm *models.PaymentMethod) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_payment_method_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"provider_customer_id",
			"brand",
			"last4",
			"exp_month",
			"exp_year",
			"is_default",
			"billing_name",
			"billing_email",
			"updated_at",
		}),
	}).Create(pm).Error; err != nil {
		return err
	}

	return r.db.Where("provider_payment_method_id = ?", pm.ProviderPaymentMethodID).
		First(pm).Error
}

func (r *gormRepository) DeletePaymentMethodByProviderID(providerPaymentMethodID string) (bool, error) {
	tx := r.db.Where("provider_payment_method_id = ?", providerPaymentMethodID).Delete(&models.PaymentMethod{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) ListPaymentMethodsByCustomer(providerCustomerID string) ([]models.PaymentMethod, error) {
	var pms []models.PaymentMethod
	err := r.db.Where("provider_customer_id = ?", providerCustomerID).Find(&pms).Error
	return pms, err
}

func (r *gormRepository) UpdatePaymentMethodDefault(id uint, isDefault bool) error {
	return r.db.Model(&models.PaymentMethod{}).Where("id = ?", id).
		Update("is_default", isDefault).Error
}

func (r *gormRepository) ListPaymentMethodsByUser(userID uint) ([]models.PaymentMethod, error) {
	var pms []models.PaymentMethod
	err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&pms).Error
	return pms, err
}

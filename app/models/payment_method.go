package models

import "time"

// PaymentMethod is a local read-model of a customer's saved payment
// instruments, kept in sync by provider webhook events. At most one row per
// provider customer may have IsDefault=true; the projector enforces this.
type PaymentMethod struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	UserID                  uint      `gorm:"not null;index" json:"user_id"`
	User                    User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProviderCustomerID      string    `gorm:"type:varchar(191);not null;index" json:"provider_customer_id"`
	ProviderPaymentMethodID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"provider_payment_method_id"`
	Brand                   string    `gorm:"type:varchar(20);default:''" json:"brand"`
	Last4                   string    `gorm:"type:varchar(4);default:''" json:"last4"`
	ExpMonth                int       `gorm:"default:0" json:"exp_month"`
	ExpYear                 int       `gorm:"default:0" json:"exp_year"`
	IsDefault               bool      `gorm:"default:false;index" json:"is_default"`
	BillingName             string    `gorm:"type:varchar(200);default:''" json:"billing_name,omitempty"`
	BillingEmail            string    `gorm:"type:varchar(200);default:''" json:"billing_email,omitempty"`
	CreatedAt               time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

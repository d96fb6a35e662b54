package models

import (
	"fmt"
	"time"
)

// Payment provider constants used across payment-related models.
const (
	PaymentProviderStripe = "stripe"
)

const (
	OrderStatusPaid = "paid"
)

// Order records a completed checkout for a fan. Orders are created exactly
// once per provider checkout session and are immutable afterwards.
type Order struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	FanUserID         uint      `gorm:"not null;index" json:"fan_user_id"`
	Fan               User      `gorm:"foreignKey:FanUserID" json:"fan,omitempty"`
	Provider          string    `gorm:"type:varchar(20);not null;default:'stripe'" json:"provider"`
	ProviderSessionID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"provider_session_id"`
	TotalAmount       int64     `gorm:"not null" json:"total_amount"`
	Currency          string    `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	Status            string    `gorm:"type:varchar(32);not null;default:'paid';index" json:"status"`
	CreatedAt         time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// TotalAmountDisplay is the major-unit rendering of TotalAmount, filled
	// for API responses and never stored.
	TotalAmountDisplay string `gorm:"-" json:"total_amount_display,omitempty"`
}

// FormatAmounts fills the derived display fields. Amounts are stored in minor
// units; all supported currencies use two decimal places.
func (o *Order) FormatAmounts() {
	o.TotalAmountDisplay = fmt.Sprintf("%.2f", float64(o.TotalAmount)/100)
}

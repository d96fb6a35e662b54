package models

import "time"

// OrderItem is the durable entitlement row for one purchased product. FileKey
// snapshots the product's deliverable reference at purchase time, so the fan
// keeps access even if the product is edited or deleted later. Ownership of
// this row (via the parent Order) is the sole entitlement check for downloads.
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	Order       Order     `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	ProductType string    `gorm:"type:varchar(20);not null;default:'digital'" json:"product_type"`
	Price       int64     `gorm:"not null" json:"price"`
	FileKey     string    `gorm:"type:varchar(500);default:''" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

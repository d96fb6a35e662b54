package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProductTypeDigital = "digital"
	ProductTypeMerch   = "merch"
)

// Product is a sellable item owned by an artist. Digital products carry a
// FileKey pointing at the deliverable object in S3 storage; orders snapshot
// that key at purchase time so later edits never revoke granted access.
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UUID          string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	ArtistID      uint           `gorm:"not null;index" json:"artist_id"`
	Artist        ArtistProfile  `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
	Title         string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=2,max=200"`
	Description   string         `gorm:"type:text" json:"description" validate:"max=5000"`
	Type          string         `gorm:"type:varchar(20);not null;default:'digital'" json:"type" validate:"oneof=digital merch"`
	PriceCents    int64          `gorm:"not null" json:"price_cents" validate:"gte=0"`
	Currency      string         `gorm:"type:varchar(3);not null;default:'usd'" json:"currency" validate:"required,len=3"`
	FileKey       string         `gorm:"type:varchar(500);default:''" json:"-"`
	Published     bool           `gorm:"default:false;index" json:"published"`
	ViewCount     int64          `gorm:"default:0" json:"view_count"`
	DownloadCount int64          `gorm:"default:0" json:"download_count"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a public UUID when none is set.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	return nil
}

func (p *Product) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// HasDeliverable reports whether the product carries a downloadable file.
func (p *Product) HasDeliverable() bool {
	return p.FileKey != ""
}

package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ArtistProfile is the public hub page for an artist user.
type ArtistProfile struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"uniqueIndex" json:"user_id"`
	User          User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	DisplayName   string         `gorm:"type:varchar(150);not null" json:"display_name" validate:"required,min=2,max=150"`
	Slug          string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"slug" validate:"required,min=2,max=150"`
	Tagline       string         `gorm:"type:varchar(255);default:''" json:"tagline" validate:"max=255"`
	Bio           string         `gorm:"type:text" json:"bio" validate:"max=5000"`
	AvatarURL     string         `gorm:"type:varchar(255);default:''" json:"avatar_url" validate:"max=255"`
	BannerURL     string         `gorm:"type:varchar(255);default:''" json:"banner_url" validate:"max=255"`
	WebsiteURL    string         `gorm:"type:varchar(255);default:''" json:"website_url" validate:"max=255"`
	FollowerCount int64          `gorm:"default:0" json:"follower_count"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *ArtistProfile) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

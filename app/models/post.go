package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a feed entry published by an artist to their followers.
type Post struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UUID      string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	ArtistID  uint           `gorm:"not null;index" json:"artist_id"`
	Artist    ArtistProfile  `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
	Title     string         `gorm:"type:varchar(200);default:''" json:"title" validate:"max=200"`
	Body      string         `gorm:"type:text;not null" json:"body" validate:"required,max=10000"`
	ImageURL  string         `gorm:"type:varchar(255);default:''" json:"image_url" validate:"max=255"`
	Published bool           `gorm:"default:true;index" json:"published"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	return nil
}

func (p *Post) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

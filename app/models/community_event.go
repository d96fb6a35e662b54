package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CommunityEvent is an artist-hosted happening fans can RSVP to.
type CommunityEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ArtistID    uint           `gorm:"not null;index" json:"artist_id"`
	Artist      ArtistProfile  `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=2,max=200"`
	Description string         `gorm:"type:text" json:"description" validate:"max=5000"`
	Location    string         `gorm:"type:varchar(255);default:''" json:"location" validate:"max=255"`
	StartsAt    time.Time      `gorm:"not null;index" json:"starts_at" validate:"required"`
	EndsAt      *time.Time     `gorm:"type:timestamp;default:null" json:"ends_at,omitempty"`
	Capacity    int            `gorm:"default:0" json:"capacity" validate:"gte=0"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *CommunityEvent) Validate() error {
	v := validator.New()

	return v.Struct(e)
}

// EventRSVP records a fan's attendance intent for a community event. Rows are
// hard-deleted on cancel; a soft delete would collide with the unique
// (event_id, user_id) index when the fan RSVPs again.
type EventRSVP struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	EventID   uint           `gorm:"index:ux_event_rsvps_event_user,unique,priority:1" json:"event_id"`
	Event     CommunityEvent `gorm:"foreignKey:EventID" json:"event,omitempty"`
	UserID    uint           `gorm:"index:ux_event_rsvps_event_user,unique,priority:2" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

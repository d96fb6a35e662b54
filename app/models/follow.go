package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow rows are hard-deleted on unfollow; a soft delete would collide with
// the unique (user_id, artist_id) index on re-follow.
type Follow struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"index:ux_follows_user_artist,unique,priority:1" json:"user_id"`
	User      User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ArtistID  uint          `gorm:"index:ux_follows_user_artist,unique,priority:2;index" json:"artist_id"`
	Artist    ArtistProfile `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

// ToggleFollow creates or removes a follow relation and returns whether the
// user follows the artist after the call.
func ToggleFollow(db *gorm.DB, userID, artistID uint) (bool, error) {
	var follow Follow
	result := db.Where("user_id = ? AND artist_id = ?", userID, artistID).First(&follow)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			newFollow := Follow{
				UserID:   userID,
				ArtistID: artistID,
			}
			if err := db.Create(&newFollow).Error; err != nil {
				return false, err
			}
			return true, nil
		}
		return false, result.Error
	}

	if err := db.Delete(&follow).Error; err != nil {
		return true, err
	}
	return false, nil
}

package repository

import (
	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
)

// artistRepository implements the ArtistRepository interface
type artistRepository struct {
	db *gorm.DB
}

// NewArtistRepository creates a new artist repository instance
func NewArtistRepository(db *gorm.DB) ArtistRepository {
	return &artistRepository{db: db}
}

func (r *artistRepository) CreateProfile(profile *models.ArtistProfile) error {
	return r.db.Create(profile).Error
}

func (r *artistRepository) GetProfileByID(id uint) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	if err := r.db.First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *artistRepository) GetProfileByUserID(userID uint) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *artistRepository) GetProfileBySlug(slug string) (*models.ArtistProfile, error) {
	var profile models.ArtistProfile
	if err := r.db.Where("slug = ?", slug).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *artistRepository) UpdateProfile(profile *models.ArtistProfile) error {
	return r.db.Save(profile).Error
}

func (r *artistRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ArtistProfile{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *artistRepository) ToggleFollow(userID, artistID uint) (bool, error) {
	following, err := models.ToggleFollow(r.db, userID, artistID)
	if err != nil {
		return following, err
	}
	return following, r.RefreshFollowerCount(artistID)
}

func (r *artistRepository) IsFollowing(userID, artistID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("user_id = ? AND artist_id = ?", userID, artistID).
		Count(&count).Error
	return count > 0, err
}

func (r *artistRepository) CountFollowers(artistID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).Where("artist_id = ?", artistID).Count(&count).Error
	return count, err
}

func (r *artistRepository) ListFollowedArtistIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).
		Where("user_id = ?", userID).
		Pluck("artist_id", &ids).Error
	return ids, err
}

// RefreshFollowerCount recomputes the denormalized follower counter.
func (r *artistRepository) RefreshFollowerCount(artistID uint) error {
	count, err := r.CountFollowers(artistID)
	if err != nil {
		return err
	}
	return r.db.Model(&models.ArtistProfile{}).
		Where("id = ?", artistID).
		Update("follower_count", count).Error
}

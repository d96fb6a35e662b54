package repository

import (
	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
)

// feedRepository implements the FeedRepository interface
type feedRepository struct {
	db *gorm.DB
}

// NewFeedRepository creates a new feed repository instance
func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) CreatePost(post *models.Post) error {
	return r.db.Create(post).Error
}

func (r *feedRepository) GetPostByUUID(uuid string) (*models.Post, error) {
	var post models.Post
	if err := r.db.Where("uuid = ?", uuid).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *feedRepository) GetPostsByArtistID(artistID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Where("artist_id = ? AND published = ?", artistID, true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *feedRepository) UpdatePost(post *models.Post) error {
	return r.db.Save(post).Error
}

func (r *feedRepository) DeletePost(id uint) error {
	return r.db.Delete(&models.Post{}, id).Error
}

// GetFeedForArtists returns recent published posts across the given artists,
// newest first. This backs the fan home feed.
func (r *feedRepository) GetFeedForArtists(artistIDs []uint, offset, limit int) ([]models.Post, error) {
	if len(artistIDs) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	err := r.db.Where("artist_id IN ? AND published = ?", artistIDs, true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

package repository

import (
	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	GetByStripeCustomerID(customerID string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// ArtistRepository defines the interface for artist hub operations
type ArtistRepository interface {
	CreateProfile(profile *models.ArtistProfile) error
	GetProfileByID(id uint) (*models.ArtistProfile, error)
	GetProfileByUserID(userID uint) (*models.ArtistProfile, error)
	GetProfileBySlug(slug string) (*models.ArtistProfile, error)
	UpdateProfile(profile *models.ArtistProfile) error
	SlugExists(slug string) (bool, error)
	ToggleFollow(userID, artistID uint) (bool, error)
	IsFollowing(userID, artistID uint) (bool, error)
	CountFollowers(artistID uint) (int64, error)
	ListFollowedArtistIDs(userID uint) ([]uint, error)
	RefreshFollowerCount(artistID uint) error
}

// ProductRepository defines the interface for product catalog operations
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetByUUID(uuid string) (*models.Product, error)
	GetByArtistID(artistID uint, publishedOnly bool) ([]models.Product, error)
	Update(product *models.Product) error
	Delete(id uint) error
	ListPublished(offset, limit int) ([]models.Product, error)
	Count() (int64, error)
}

// FeedRepository defines the interface for artist post and fan feed operations
type FeedRepository interface {
	CreatePost(post *models.Post) error
	GetPostByUUID(uuid string) (*models.Post, error)
	GetPostsByArtistID(artistID uint, offset, limit int) ([]models.Post, error)
	UpdatePost(post *models.Post) error
	DeletePost(id uint) error
	GetFeedForArtists(artistIDs []uint, offset, limit int) ([]models.Post, error)
}

// EventRepository defines the interface for community event operations
type EventRepository interface {
	Create(event *models.CommunityEvent) error
	GetByID(id uint) (*models.CommunityEvent, error)
	GetByArtistID(artistID uint) ([]models.CommunityEvent, error)
	GetUpcomingByArtistID(artistID uint, limit int) ([]models.CommunityEvent, error)
	Update(event *models.CommunityEvent) error
	Delete(id uint) error
	RSVP(eventID, userID uint) (bool, error)
	CancelRSVP(eventID, userID uint) (bool, error)
	CountRSVPs(eventID uint) (int64, error)
	ListRSVPsByUser(userID uint) ([]models.EventRSVP, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Artist  ArtistRepository
	Product ProductRepository
	Feed    FeedRepository
	Event   EventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Artist:  NewArtistRepository(db),
		Product: NewProductRepository(db),
		Feed:    NewFeedRepository(db),
		Event:   NewEventRepository(db),
	}
}

package repository

import (
	"time"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
)

// eventRepository implements the EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(event *models.CommunityEvent) error {
	return r.db.Create(event).Error
}

func (r *eventRepository) GetByID(id uint) (*models.CommunityEvent, error) {
	var event models.CommunityEvent
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) GetByArtistID(artistID uint) ([]models.CommunityEvent, error) {
	var events []models.CommunityEvent
	err := r.db.Where("artist_id = ?", artistID).Order("starts_at ASC").Find(&events).Error
	return events, err
}

func (r *eventRepository) GetUpcomingByArtistID(artistID uint, limit int) ([]models.CommunityEvent, error) {
	var events []models.CommunityEvent
	err := r.db.Where("artist_id = ? AND starts_at > ?", artistID, time.Now()).
		Order("starts_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *eventRepository) Update(event *models.CommunityEvent) error {
	return r.db.Save(event).Error
}

func (r *eventRepository) Delete(id uint) error {
	return r.db.Delete(&models.CommunityEvent{}, id).Error
}

// RSVP registers a fan for an event. Returns false without error when the
// RSVP already exists.
func (r *eventRepository) RSVP(eventID, userID uint) (bool, error) {
	var existing models.EventRSVP
	err := r.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, err
	}
	rsvp := models.EventRSVP{EventID: eventID, UserID: userID}
	if err := r.db.Create(&rsvp).Error; err != nil {
		return false, err
	}
	return true, nil
}

// CancelRSVP removes a fan's RSVP. Returns false when none existed.
func (r *eventRepository) CancelRSVP(eventID, userID uint) (bool, error) {
	tx := r.db.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&models.EventRSVP{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *eventRepository) CountRSVPs(eventID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.EventRSVP{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}

func (r *eventRepository) ListRSVPsByUser(userID uint) ([]models.EventRSVP, error) {
	var rsvps []models.EventRSVP
	err := r.db.Preload("Event").Where("user_id = ?", userID).Find(&rsvps).Error
	return rsvps, err
}

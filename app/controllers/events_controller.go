package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"github.com/treimaine/BroLab-Fanbase-sub000/app/repository"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/usercontext"
)

type eventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    int        `json:"capacity"`
}

// HandleListArtistEvents returns an artist's upcoming events.
func HandleListArtistEvents(c *fiber.Ctx) error {
	artistID := parseUintParam(c, "id")
	if artistID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing artist id")
	}

	events, err := repository.GetGlobalFactory().GetEventRepository().GetUpcomingByArtistID(artistID, 50)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load events")
	}
	return c.JSON(fiber.Map{"events": events})
}

// HandleGetEvent returns one event with its RSVP count.
func HandleGetEvent(c *fiber.Ctx) error {
	eventID := parseUintParam(c, "id")
	if eventID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing event id")
	}

	repo := repository.GetGlobalFactory().GetEventRepository()
	event, err := repo.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Event not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load event")
	}
	count, err := repo.CountRSVPs(eventID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count RSVPs")
	}

	return c.JSON(fiber.Map{"event": event, "rsvp_count": count})
}

// HandleCreateEvent creates a community event under the calling artist's hub.
func HandleCreateEvent(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	profile, err := artistProfileForUser(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Artist profile required")
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed JSON body")
	}
	if req.EndsAt != nil && !req.EndsAt.After(req.StartsAt) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Event must end after it starts")
	}

	event := &models.CommunityEvent{
		ArtistID:    profile.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
	}
	if err := event.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
	}

	if err := repository.GetGlobalFactory().GetEventRepository().Create(event); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create event")
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// HandleDeleteEvent removes an event owned by the calling artist.
func HandleDeleteEvent(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	eventID := parseUintParam(c, "id")
	if eventID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing event id")
	}

	repo := repository.GetGlobalFactory().GetEventRepository()
	event, err := repo.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Event not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load event")
	}
	if !canManageArtist(userCtx, event.ArtistID) {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Not your event")
	}

	if err := repo.Delete(eventID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete event")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleRSVP records the caller's attendance intent. Repeating the call is a
// no-op; "created" reports whether this request added the RSVP.
func HandleRSVP(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	eventID := parseUintParam(c, "id")
	if eventID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing event id")
	}

	repo := repository.GetGlobalFactory().GetEventRepository()
	event, err := repo.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Event not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load event")
	}
	if event.StartsAt.Before(time.Now()) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Event already started")
	}
	if event.Capacity > 0 {
		count, err := repo.CountRSVPs(eventID)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count RSVPs")
		}
		if count >= int64(event.Capacity) {
			return jsonError(c, fiber.StatusConflict, "event_full", "Event is at capacity")
		}
	}

	created, err := repo.RSVP(eventID, userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to RSVP")
	}
	return c.JSON(fiber.Map{"ok": true, "created": created})
}

// HandleCancelRSVP withdraws the caller's RSVP.
func HandleCancelRSVP(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	eventID := parseUintParam(c, "id")
	if eventID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing event id")
	}

	removed, err := repository.GetGlobalFactory().GetEventRepository().CancelRSVP(eventID, userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to cancel RSVP")
	}
	return c.JSON(fiber.Map{"ok": true, "removed": removed})
}

// HandleMyRSVPs lists the caller's RSVPs with their events.
func HandleMyRSVPs(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	rsvps, err := repository.GetGlobalFactory().GetEventRepository().ListRSVPsByUser(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load RSVPs")
	}
	return c.JSON(fiber.Map{"rsvps": rsvps})
}

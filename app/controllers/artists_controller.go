package controllers

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"github.com/treimaine/BroLab-Fanbase-sub000/app/repository"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/cache"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/usercontext"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const hubCacheTTL = time.Minute

func hubCacheKey(slug string) string {
	return "artist:hub:" + slug
}

type artistProfileRequest struct {
	DisplayName string `json:"display_name"`
	Slug        string `json:"slug"`
	Tagline     string `json:"tagline"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	BannerURL   string `json:"banner_url"`
	WebsiteURL  string `json:"website_url"`
}

// HandleGetArtistHub returns an artist's public hub page: profile, published
// products, recent posts and upcoming events in one response.
func HandleGetArtistHub(c *fiber.Ctx) error {
	slug := strings.ToLower(strings.TrimSpace(c.Params("slug")))
	if slug == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing artist slug")
	}

	userCtx := usercontext.GetUserContext(c)

	// Anonymous hub pages are identical for everyone; serve them from cache.
	if !userCtx.IsLoggedIn {
		if cached, err := cache.Get(hubCacheKey(slug)); err == nil && cached != "" {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(cached)
		}
	}

	factory := repository.GetGlobalFactory()
	profile, err := factory.GetArtistRepository().GetProfileBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Artist not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load artist")
	}

	products, err := factory.GetProductRepository().GetByArtistID(profile.ID, true)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load products")
	}
	posts, err := factory.GetFeedRepository().GetPostsByArtistID(profile.ID, 0, 10)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load posts")
	}
	events, err := factory.GetEventRepository().GetUpcomingByArtistID(profile.ID, 10)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load events")
	}

	resp := fiber.Map{
		"profile":  profile,
		"products": products,
		"posts":    posts,
		"events":   events,
	}

	if !userCtx.IsLoggedIn {
		if body, err := json.Marshal(resp); err == nil {
			if err := cache.Set(hubCacheKey(slug), body, hubCacheTTL); err != nil {
				log.Errorf("[Artists] hub cache write for %s: %v", slug, err)
			}
		}
		return c.JSON(resp)
	}

	following, err := factory.GetArtistRepository().IsFollowing(userCtx.UserID, profile.ID)
	if err == nil {
		resp["following"] = following
	}
	return c.JSON(resp)
}

// HandleCreateArtistProfile creates the hub for the calling artist user.
func HandleCreateArtistProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetArtistRepository()
	if _, err := repo.GetProfileByUserID(userCtx.UserID); err == nil {
		return jsonError(c, fiber.StatusConflict, "profile_exists", "Artist profile already exists")
	}

	var req artistProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed JSON body")
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Slug must be lowercase letters, digits and dashes")
	}
	if taken, err := repo.SlugExists(slug); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check slug")
	} else if taken {
		return jsonError(c, fiber.StatusConflict, "slug_taken", "Slug is already in use")
	}

	profile := &models.ArtistProfile{
		UserID:      userCtx.UserID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Slug:        slug,
		Tagline:     strings.TrimSpace(req.Tagline),
		Bio:         req.Bio,
		AvatarURL:   strings.TrimSpace(req.AvatarURL),
		BannerURL:   strings.TrimSpace(req.BannerURL),
		WebsiteURL:  strings.TrimSpace(req.WebsiteURL),
	}
	if err := profile.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
	}
	if err := repo.CreateProfile(profile); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create profile")
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// HandleUpdateArtistProfile updates the calling artist's hub. The slug is
// immutable once set so hub links never break.
func HandleUpdateArtistProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetArtistRepository()
	profile, err := repo.GetProfileByUserID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Artist profile not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load profile")
	}

	var req artistProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed JSON body")
	}

	if v := strings.TrimSpace(req.DisplayName); v != "" {
		profile.DisplayName = v
	}
	profile.Tagline = strings.TrimSpace(req.Tagline)
	profile.Bio = req.Bio
	profile.AvatarURL = strings.TrimSpace(req.AvatarURL)
	profile.BannerURL = strings.TrimSpace(req.BannerURL)
	profile.WebsiteURL = strings.TrimSpace(req.WebsiteURL)

	if err := profile.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
	}
	if err := repo.UpdateProfile(profile); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update profile")
	}
	_ = cache.Delete(hubCacheKey(profile.Slug))
	return c.JSON(profile)
}

// HandleToggleFollow follows or unfollows an artist for the calling user and
// returns the new state.
func HandleToggleFollow(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	artistID := parseUintParam(c, "id")
	if artistID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing artist id")
	}

	repo := repository.GetGlobalFactory().GetArtistRepository()
	profile, err := repo.GetProfileByID(artistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Artist not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load artist")
	}
	if profile.UserID == userCtx.UserID {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Cannot follow yourself")
	}

	following, err := repo.ToggleFollow(userCtx.UserID, artistID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to toggle follow")
	}
	if err := repo.RefreshFollowerCount(artistID); err != nil {
		log.Errorf("[Artists] follower count refresh for artist %d: %v", artistID, err)
	}
	_ = cache.Delete(hubCacheKey(profile.Slug))

	return c.JSON(fiber.Map{"following": following})
}

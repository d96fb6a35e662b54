package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"github.com/treimaine/BroLab-Fanbase-sub000/app/repository"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/usercontext"
)

type postRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	ImageURL  string `json:"image_url"`
	Published *bool  `json:"published"`
}

// HandleGetFeed returns recent posts from all artists the caller follows,
// newest first.
func HandleGetFeed(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := pagination(c, 20, 100)

	factory := repository.GetGlobalFactory()
	artistIDs, err := factory.GetArtistRepository().ListFollowedArtistIDs(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load follows")
	}
	if len(artistIDs) == 0 {
		return c.JSON(fiber.Map{"posts": []models.Post{}, "offset": offset, "limit": limit})
	}

	posts, err := factory.GetFeedRepository().GetFeedForArtists(artistIDs, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load feed")
	}
	return c.JSON(fiber.Map{"posts": posts, "offset": offset, "limit": limit})
}

// HandleListArtistPosts returns an artist's published posts, newest first.
func HandleListArtistPosts(c *fiber.Ctx) error {
	artistID := parseUintParam(c, "id")
	if artistID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing artist id")
	}
	offset, limit := pagination(c, 20, 100)

	posts, err := repository.GetGlobalFactory().GetFeedRepository().GetPostsByArtistID(artistID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load posts")
	}
	return c.JSON(fiber.Map{"posts": posts, "offset": offset, "limit": limit})
}

// HandleCreatePost publishes a feed post under the calling artist's hub.
func HandleCreatePost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	profile, err := artistProfileForUser(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Artist profile required")
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed JSON body")
	}

	post := &models.Post{
		ArtistID:  profile.ID,
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		ImageURL:  strings.TrimSpace(req.ImageURL),
		Published: true,
	}
	if req.Published != nil {
		post.Published = *req.Published
	}
	if err := post.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
	}

	if err := repository.GetGlobalFactory().GetFeedRepository().CreatePost(post); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create post")
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleDeletePost removes a post owned by the calling artist.
func HandleDeletePost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	postUUID := strings.TrimSpace(c.Params("uuid"))
	if postUUID == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing post uuid")
	}

	repo := repository.GetGlobalFactory().GetFeedRepository()
	post, err := repo.GetPostByUUID(postUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Post not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load post")
	}
	if !canManageArtist(userCtx, post.ArtistID) {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Not your post")
	}

	if err := repo.DeletePost(post.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete post")
	}
	return c.JSON(fiber.Map{"ok": true})
}

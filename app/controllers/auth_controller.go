package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"github.com/treimaine/BroLab-Fanbase-sub000/app/repository"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/database"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/usercontext"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and issues its first API key.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed JSON body")
	}

	role := strings.TrimSpace(req.Role)
	if role != models.ROLE_ARTIST {
		role = models.ROLE_FAN
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Username), strings.ToLower(strings.TrimSpace(req.Email)), req.Password, role)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
	}
	if err := user.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if existing, err := repo.GetByEmail(user.Email); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "Email is already registered")
	}
	if err := repo.Create(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create user")
	}

	apiKey, err := issueAPIKeyForUser(user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to issue API key")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Name,
		"email":    user.Email,
		"role":     user.Role,
		"api_key":  apiKey,
	})
}

// HandleLogin verifies credentials and rotates the account API key. The raw
// key is only ever returned here; we store its hash.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed JSON body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid credentials")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Login failed")
	}
	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid credentials")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "User inactive")
	}

	now := time.Now()
	user.LastLoginAt = &now
	_ = repo.Update(user)

	apiKey, err := issueAPIKeyForUser(user.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to issue API key")
	}

	return c.JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Name,
		"role":     user.Role,
		"api_key":  apiKey,
	})
}

// HandleGetAccount returns account information for the authenticated user.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	db := database.GetDB()
	if db == nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Database unavailable")
	}
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user settings")
	}

	return c.JSON(fiber.Map{
		"id":                   account.ID,
		"username":             account.Name,
		"email":                account.Email,
		"role":                 account.Role,
		"status":               account.Status,
		"created_at":           account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":        formatTimePtr(account.LastLoginAt),
		"api_key_prefix":       settings.APIKeyPrefix,
		"api_key_created_at":   formatTimePtr(settings.APIKeyCreatedAt),
		"api_key_last_used_at": formatTimePtr(settings.APIKeyLastUsedAt),
	})
}

// HandleRotateAPIKey revokes the current API key and issues a fresh one.
func HandleRotateAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	apiKey, err := issueAPIKeyForUser(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to rotate API key")
	}
	return c.JSON(fiber.Map{"api_key": apiKey})
}

func issueAPIKeyForUser(userID uint) (string, error) {
	db := database.GetDB()
	if db == nil {
		return "", errors.New("database unavailable")
	}
	settings, err := models.GetOrCreateUserSettings(db, userID)
	if err != nil {
		return "", err
	}
	apiKey, err := settings.IssueAPIKey()
	if err != nil {
		return "", err
	}
	if err := db.Save(settings).Error; err != nil {
		return "", err
	}
	return apiKey, nil
}

package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"github.com/treimaine/BroLab-Fanbase-sub000/app/repository"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/metrics/counter"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/usercontext"
)

type productRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	FileKey     string `json:"file_key"`
	Published   bool   `json:"published"`
}

// HandleListProducts returns the published catalog, newest first.
func HandleListProducts(c *fiber.Ctx) error {
	offset, limit := pagination(c, 20, 100)

	repo := repository.GetGlobalFactory().GetProductRepository()
	products, err := repo.ListPublished(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load products")
	}
	return c.JSON(fiber.Map{"products": products, "offset": offset, "limit": limit})
}

// HandleGetProduct returns one published product by UUID and counts the view.
func HandleGetProduct(c *fiber.Ctx) error {
	productUUID := strings.TrimSpace(c.Params("uuid"))
	if productUUID == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing product uuid")
	}

	repo := repository.GetGlobalFactory().GetProductRepository()
	product, err := repo.GetByUUID(productUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Product not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load product")
	}

	userCtx := usercontext.GetUserContext(c)
	if !product.Published && !canManageArtist(userCtx, product.ArtistID) {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Product not found")
	}

	if product.Published {
		if err := counter.AddProductView(product.ID); err != nil {
			log.Errorf("[Products] view counter for product %d: %v", product.ID, err)
		}
	}

	return c.JSON(product)
}

// HandleCreateProduct creates a product under the calling artist's hub.
func HandleCreateProduct(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	profile, err := artistProfileForUser(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Artist profile required")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed JSON body")
	}

	productType := strings.TrimSpace(req.Type)
	if productType == "" {
		productType = models.ProductTypeDigital
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}

	product := &models.Product{
		ArtistID:    profile.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        productType,
		PriceCents:  req.PriceCents,
		Currency:    currency,
		FileKey:     strings.TrimSpace(req.FileKey),
		Published:   req.Published,
	}
	if err := product.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
	}
	if product.Type == models.ProductTypeDigital && product.Published && !product.HasDeliverable() {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Digital products need a deliverable file before publishing")
	}

	repo := repository.GetGlobalFactory().GetProductRepository()
	if err := repo.Create(product); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates a product owned by the calling artist.
func HandleUpdateProduct(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	product, status, errCode, errMsg := loadOwnedProduct(c, userCtx)
	if product == nil {
		return jsonError(c, status, errCode, errMsg)
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Malformed JSON body")
	}

	if v := strings.TrimSpace(req.Title); v != "" {
		product.Title = v
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if v := strings.TrimSpace(req.Type); v != "" {
		product.Type = v
	}
	if req.PriceCents > 0 {
		product.PriceCents = req.PriceCents
	}
	if v := strings.ToLower(strings.TrimSpace(req.Currency)); v != "" {
		product.Currency = v
	}
	if v := strings.TrimSpace(req.FileKey); v != "" {
		product.FileKey = v
	}
	product.Published = req.Published

	if err := product.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", err.Error())
	}
	if product.Type == models.ProductTypeDigital && product.Published && !product.HasDeliverable() {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Digital products need a deliverable file before publishing")
	}

	repo := repository.GetGlobalFactory().GetProductRepository()
	if err := repo.Update(product); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct soft-deletes a product owned by the calling artist.
// Existing orders keep their snapshotted file keys, so granted downloads
// survive the delete.
func HandleDeleteProduct(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	product, status, errCode, errMsg := loadOwnedProduct(c, userCtx)
	if product == nil {
		return jsonError(c, status, errCode, errMsg)
	}

	repo := repository.GetGlobalFactory().GetProductRepository()
	if err := repo.Delete(product.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete product")
	}
	return c.JSON(fiber.Map{"ok": true})
}

func loadOwnedProduct(c *fiber.Ctx, userCtx usercontext.UserContext) (*models.Product, int, string, string) {
	productUUID := strings.TrimSpace(c.Params("uuid"))
	if productUUID == "" {
		return nil, fiber.StatusBadRequest, "invalid_payload", "Missing product uuid"
	}

	repo := repository.GetGlobalFactory().GetProductRepository()
	product, err := repo.GetByUUID(productUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.StatusNotFound, "not_found", "Product not found"
		}
		return nil, fiber.StatusInternalServerError, "internal_server_error", "Failed to load product"
	}
	if !canManageArtist(userCtx, product.ArtistID) {
		return nil, fiber.StatusForbidden, "forbidden", "Not your product"
	}
	return product, 0, "", ""
}

// canManageArtist reports whether the caller owns the artist hub or is admin.
func canManageArtist(userCtx usercontext.UserContext, artistID uint) bool {
	if !userCtx.IsLoggedIn {
		return false
	}
	if userCtx.IsAdmin {
		return true
	}
	profile, err := artistProfileForUser(userCtx.UserID)
	if err != nil {
		return false
	}
	return profile.ID == artistID
}

func artistProfileForUser(userID uint) (*models.ArtistProfile, error) {
	return repository.GetGlobalFactory().GetArtistRepository().GetProfileByUserID(userID)
}

package controllers

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/treimaine/BroLab-Fanbase-sub000/app/repository"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/storage"
	"github.com/treimaine/BroLab-Fanbase-sub000/internal/pkg/usercontext"
)

const maxDeliverableBytes = 500 * 1024 * 1024

// HandleUploadDeliverable stores a product's downloadable file in delivery
// storage and attaches its object key to the product. Orders snapshot the key
// at purchase time, so re-uploading only affects future purchases.
func HandleUploadDeliverable(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	product, status, errCode, errMsg := loadOwnedProduct(c, userCtx)
	if product == nil {
		return jsonError(c, status, errCode, errMsg)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Missing file upload")
	}
	if fileHeader.Size <= 0 || fileHeader.Size > maxDeliverableBytes {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "File size out of bounds")
	}

	filename := sanitizeFilename(fileHeader.Filename)
	if filename == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Invalid filename")
	}

	client, err := storage.GetDeliveryClient()
	if err != nil {
		log.Errorf("[Upload] delivery storage unavailable: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Delivery storage unavailable")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to read upload")
	}
	defer src.Close()

	key := storage.ObjectKey(product.ArtistID, product.UUID, filename)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := client.Upload(ctx, key, src, detectContentType(fileHeader)); err != nil {
		log.Errorf("[Upload] store deliverable for product %d: %v", product.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store file")
	}

	product.FileKey = key
	if err := repository.GetGlobalFactory().GetProductRepository().Update(product); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to attach file to product")
	}

	return c.JSON(fiber.Map{"ok": true, "file_key": key})
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "." || base == ".." || base == "/" {
		return ""
	}
	return base
}

func detectContentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

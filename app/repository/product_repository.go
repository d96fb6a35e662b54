package repository

import (
	"github.com/treimaine/BroLab-Fanbase-sub000/app/models"
	"gorm.io/gorm"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetByUUID(uuid string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("uuid = ?", uuid).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetByArtistID(artistID uint, publishedOnly bool) ([]models.Product, error) {
	var products []models.Product
	query := r.db.Where("artist_id = ?", artistID)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	err := query.Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *productRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

func (r *productRepository) ListPublished(offset, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("published = ?", true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Count(&count).Error
	return count, err
}

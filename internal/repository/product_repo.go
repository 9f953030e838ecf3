package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByCode(ctx context.Context, productCode string) (*model.Product, error)
	ListApproved(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	ListPendingReview(ctx context.Context) ([]model.Product, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Product, error)
	UpdatePublicRating(ctx context.Context, id uuid.UUID, rating float64) error
	DeleteRatings(ctx context.Context, productID uuid.UUID) error
	DeleteFavourites(ctx context.Context, productID uuid.UUID) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByCode(ctx context.Context, productCode string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("product_code = ?", productCode).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListApproved returns publicly visible products, newest first.
func (r *productRepository) ListApproved(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{}).Where("review_state = ?", model.ReviewApproved)
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Company").Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListPendingReview returns products waiting for an admin decision, newest first.
func (r *productRepository) ListPendingReview(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).
		Preload("Company").
		Where("review_state = ?", model.ReviewRequested).
		Order("created_at desc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).
		Where("company_id = ?", companyID).
		Order("created_at desc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// UpdatePublicRating writes the cached mean. Single-column update so a
// failure here cannot disturb anything else on the row.
func (r *productRepository) UpdatePublicRating(ctx context.Context, id uuid.UUID, rating float64) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("public_rating", rating).Error
}

func (r *productRepository) DeleteRatings(ctx context.Context, productID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("product_id = ?", productID).Delete(&model.Rating{}).Error
}

func (r *productRepository) DeleteFavourites(ctx context.Context, productID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("product_id = ?", productID).Delete(&model.Favourite{}).Error
}

package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository interface {
	// Upsert inserts or overwrites the (product, user) rating atomically.
	// Uniqueness is enforced by the composite index, not by check-then-write.
	Upsert(ctx context.Context, rating *model.Rating) error
	FindByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (*model.Rating, error)
	Aggregate(ctx context.Context, productID uuid.UUID) (model.RatingAggregate, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *model.Rating) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "rated_by"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": rating.Value}),
	}).Create(rating).Error
}

func (r *ratingRepository) FindByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (*model.Rating, error) {
	var rating model.Rating
	err := GetDB(ctx, r.db).
		Where("product_id = ? AND rated_by = ?", productID, userID).
		First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// Aggregate recomputes count and mean over all ratings for the product.
// A full reduction, not an incremental average; rating volume per product
// is small.
func (r *ratingRepository) Aggregate(ctx context.Context, productID uuid.UUID) (model.RatingAggregate, error) {
	var agg model.RatingAggregate
	err := GetDB(ctx, r.db).Table("ratings").
		Select("COALESCE(AVG(value), 0) as average_rating, COUNT(*) as number_of_ratings").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return model.RatingAggregate{}, err
	}
	return agg, nil
}

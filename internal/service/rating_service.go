package service

import (
	"context"
	"errors"
	"log"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmitRatingRequest struct {
	Rating float64 `json:"rating" binding:"required"`
}

// PublicRatingResponse is the aggregate view of a product's ratings.
// UserRating is present only when the caller was identified and has
// rated this product.
type PublicRatingResponse struct {
	ProductCode     string   `json:"product_code"`
	AverageRating   float64  `json:"averageRating"`
	NumberOfRatings int64    `json:"numberOfRatings"`
	UserRating      *float64 `json:"userRating,omitempty"`
}

type RatingService interface {
	Submit(ctx context.Context, userID uuid.UUID, productCode string, value float64) (*PublicRatingResponse, error)
	// GetPublicRating accepts a nil viewerID; the aggregate is public,
	// the per-viewer rating is the only credentialed part.
	GetPublicRating(ctx context.Context, productCode string, viewerID *uuid.UUID) (*PublicRatingResponse, error)
}

type ratingService struct {
	ratings  repository.RatingRepository
	products repository.ProductRepository
}

func NewRatingService(ratings repository.RatingRepository, products repository.ProductRepository) RatingService {
	return &ratingService{ratings: ratings, products: products}
}

func (s *ratingService) Submit(ctx context.Context, userID uuid.UUID, productCode string, value float64) (*PublicRatingResponse, error) {
	if value < 1 || value > 5 {
		return nil, apperror.Validation("rating must be between 1 and 5")
	}

	product, err := s.products.FindByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, err
	}
	if !product.Review.IsApproved() {
		return nil, apperror.NotFound("product not found")
	}

	rating := &model.Rating{
		ProductID: product.ID,
		RatedBy:   userID,
		Value:     value,
	}
	if err := s.ratings.Upsert(ctx, rating); err != nil {
		return nil, err
	}

	agg, err := s.ratings.Aggregate(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	// Cache write-back is best-effort; the ratings table stays the
	// source of truth and the next read recomputes from it.
	if err := s.products.UpdatePublicRating(ctx, product.ID, agg.AverageRating); err != nil {
		log.Printf("failed to cache public rating for product %s: %v", product.ProductCode, err)
	}

	return &PublicRatingResponse{
		ProductCode:     product.ProductCode,
		AverageRating:   agg.AverageRating,
		NumberOfRatings: agg.NumberOfRatings,
		UserRating:      &value,
	}, nil
}

func (s *ratingService) GetPublicRating(ctx context.Context, productCode string, viewerID *uuid.UUID) (*PublicRatingResponse, error) {
	product, err := s.products.FindByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, err
	}
	if !product.Review.IsApproved() {
		return nil, apperror.NotFound("product not found")
	}

	agg, err := s.ratings.Aggregate(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	resp := &PublicRatingResponse{
		ProductCode:     product.ProductCode,
		AverageRating:   agg.AverageRating,
		NumberOfRatings: agg.NumberOfRatings,
	}
	// Before anyone has rated, fall back to the cached value so a
	// stale-but-present cache still shows something sensible.
	if agg.NumberOfRatings == 0 {
		resp.AverageRating = product.PublicRating
	}

	if viewerID != nil {
		own, err := s.ratings.FindByProductAndUser(ctx, product.ID, *viewerID)
		if err == nil {
			resp.UserRating = &own.Value
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return resp, nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Rating is one user's score for one product. The composite unique index
// is the invariant that makes re-rating an overwrite instead of a
// duplicate, even under concurrent submissions.
type Rating struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_product_user" json:"product_id"`
	RatedBy   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ratings_product_user" json:"rated_by"`
	Value     float64   `gorm:"not null" json:"value"` // 1 to 5, fractional values allowed
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RatingAggregate is the computed public rating of a product.
type RatingAggregate struct {
	AverageRating   float64 `json:"averageRating"`
	NumberOfRatings int64   `json:"numberOfRatings"`
}

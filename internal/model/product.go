package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NutritionalInfo is the fixed set of nutrient fields a company declares
// per product. Values are per serving.
type NutritionalInfo struct {
	EnergyKcal    float64 `json:"energy_kcal"`
	ProteinG      float64 `json:"protein_g"`
	CarbohydrateG float64 `json:"carbohydrate_g"`
	SugarG        float64 `json:"sugar_g"`
	TotalFatG     float64 `json:"total_fat_g"`
	SaturatedFatG float64 `json:"saturated_fat_g"`
	TransFatG     float64 `json:"trans_fat_g"`
	FibreG        float64 `json:"fibre_g"`
	SodiumMg      float64 `json:"sodium_mg"`
	ServingSizeG  float64 `json:"serving_size_g"`
	VegSource     bool    `json:"veg_source"`
}

// Product is a food product registered by a company. ProductCode is the
// human-assigned identifier companies print on packaging, distinct from
// the internal primary key.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductCode string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"product_code"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	Company     *Account        `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Category    string          `gorm:"type:varchar(100);not null" json:"category"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`

	Nutrition         NutritionalInfo `gorm:"embedded;embeddedPrefix:nutrition_" json:"nutritional_info"`
	Ingredients       []string        `gorm:"serializer:json" json:"ingredients"`
	Tags              []string        `gorm:"serializer:json" json:"tags"`
	ManufacturingDate time.Time       `json:"manufacturing_date"`
	ExpiryDate        time.Time       `json:"expiry_date"`
	ImageURL          string          `gorm:"type:text" json:"image_url"`

	Review Review `gorm:"embedded;embeddedPrefix:review_" json:"review"`

	// PublicRating caches the rating mean as a read optimization.
	// It is never the source of truth; the ratings table is.
	PublicRating float64 `gorm:"not null;default:0" json:"public_rating"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

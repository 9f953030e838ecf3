package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"gorm.io/gorm"
)

// NutritionScore is the response of the external scoring model.
// PredictedDisease passes through untouched; its shape belongs to the
// model, not to us.
type NutritionScore struct {
	Rating           float64         `json:"rating"`
	PredictedDisease json.RawMessage `json:"predicted_disease,omitempty"`
}

// NutritionService proxies a product's declared nutrients to the
// external scoring model.
type NutritionService interface {
	Score(ctx context.Context, productCode string) (*NutritionScore, error)
}

type nutritionService struct {
	products repository.ProductRepository
	client   *http.Client
	baseURL  string
}

func NewNutritionService(products repository.ProductRepository) NutritionService {
	return &nutritionService{
		products: products,
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  os.Getenv("ML_MODEL_API_URL"),
	}
}

func (s *nutritionService) Score(ctx context.Context, productCode string) (*NutritionScore, error) {
	if s.baseURL == "" {
		return nil, apperror.Upstream("nutrition scorer", fmt.Errorf("ML_MODEL_API_URL is not configured"))
	}

	product, err := s.products.FindByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, err
	}

	score, err := s.callModel(ctx, product.Nutrition)
	if err != nil {
		return nil, apperror.Upstream("nutrition scorer", err)
	}
	return score, nil
}

func (s *nutritionService) callModel(ctx context.Context, nutrition model.NutritionalInfo) (*NutritionScore, error) {
	body, err := json.Marshal(nutrition)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var score NutritionScore
	if err := json.NewDecoder(resp.Body).Decode(&score); err != nil {
		return nil, err
	}
	return &score, nil
}

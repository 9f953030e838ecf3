package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
)

type NewsRepository interface {
	Create(ctx context.Context, news *model.News) error
	List(ctx context.Context) ([]model.News, error)
}

type newsRepository struct {
	db *gorm.DB
}

func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

func (r *newsRepository) Create(ctx context.Context, news *model.News) error {
	return GetDB(ctx, r.db).Create(news).Error
}

func (r *newsRepository) List(ctx context.Context) ([]model.News, error) {
	var items []model.News
	err := GetDB(ctx, r.db).
		Preload("Author").
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

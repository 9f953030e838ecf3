package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type CreateNewsRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

type NewsService interface {
	Create(ctx context.Context, authorID uuid.UUID, req CreateNewsRequest) (*model.News, error)
	List(ctx context.Context) ([]model.News, error)
}

type newsService struct {
	news repository.NewsRepository
}

func NewNewsService(news repository.NewsRepository) NewsService {
	return &newsService{news: news}
}

func (s *newsService) Create(ctx context.Context, authorID uuid.UUID, req CreateNewsRequest) (*model.News, error) {
	item := &model.News{
		Title:    req.Title,
		Body:     req.Body,
		AuthorID: authorID,
	}
	if err := s.news.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *newsService) List(ctx context.Context) ([]model.News, error) {
	return s.news.List(ctx)
}

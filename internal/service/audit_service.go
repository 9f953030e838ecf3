package service

import (
	"context"
	"time"

	"backend/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	Actor      string `json:"actor,omitempty"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type AuditService interface {
	List(ctx context.Context, page, limit int) (*AuditListResponse, error)
}

type auditService struct {
	audits repository.AuditRepository
}

func NewAuditService(audits repository.AuditRepository) AuditService {
	return &auditService{audits: audits}
}

func (s *auditService) List(ctx context.Context, page, limit int) (*AuditListResponse, error) {
	logs, total, err := s.audits.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	resp := &AuditListResponse{
		Logs:  make([]AuditLogResponse, 0, len(logs)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, entry := range logs {
		item := AuditLogResponse{
			ID:         entry.ID.String(),
			Action:     entry.Action,
			EntityID:   entry.EntityID,
			EntityName: entry.EntityName,
			Details:    entry.Details,
			CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
		}
		if entry.Account != nil {
			item.Actor = entry.Account.Username
		}
		resp.Logs = append(resp.Logs, item)
	}
	return resp, nil
}

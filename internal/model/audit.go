package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionApproveCompany        = "APPROVE_COMPANY"
	ActionDenyCompany           = "DENY_COMPANY"
	ActionRemoveCompanyApproval = "REMOVE_COMPANY_APPROVAL"
	ActionApproveProduct        = "APPROVE_PRODUCT"
	ActionDenyProduct           = "DENY_PRODUCT"
	ActionRemoveProductApproval = "REMOVE_PRODUCT_APPROVAL"

	// ActionSideEffectFailed records a secondary write that failed after
	// the primary decision was already committed (at-least-once side
	// effects, never silently dropped).
	ActionSideEffectFailed = "SIDE_EFFECT_FAILED"
)

// AuditLog tracks who decided what, and when, for admin review actions
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID  *uuid.UUID `gorm:"type:uuid;index" json:"account_id"` // Nullable for system-originated entries
	Account    *Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

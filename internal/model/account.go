package model

import (
	"time"

	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants
const (
	RoleUser    = "user"
	RoleCompany = "company"
	RoleAdmin   = "admin"
)

// Account status constants. "pending" means the email is not yet verified,
// "verified" means the OTP check passed, "approved" is reached only by
// companies after an admin decision.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusApproved = "approved"
)

// Account is the single identity record for users, companies and admins,
// distinguished by Role. Role-specific attributes live in the embedded
// profile structs; only the variant matching the role is populated.
type Account struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email             string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password          string    `gorm:"type:varchar(255);not null" json:"-"`
	FullName          string    `gorm:"type:varchar(255)" json:"full_name"`
	Role              string    `gorm:"type:varchar(20);not null;index" json:"role"`
	Status            string    `gorm:"type:varchar(20);not null;default:'pending'" json:"account_status"`
	ApprovalRequested bool      `gorm:"not null;default:false;index" json:"approval_requested"`
	AvatarURL         string    `gorm:"type:text" json:"avatar_url,omitempty"`

	CompanyProfile CompanyProfile `gorm:"embedded;embeddedPrefix:company_" json:"company_profile"`
	UserProfile    UserProfile    `gorm:"embedded;embeddedPrefix:user_" json:"user_profile"`

	Products []Product `gorm:"foreignKey:CompanyID" json:"products,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CompanyProfile holds the fields only company accounts carry.
type CompanyProfile struct {
	RegistrationNo string `gorm:"type:varchar(100)" json:"registration_no,omitempty"`
	GSTNumber      string `gorm:"type:varchar(100)" json:"gst_number,omitempty"`
	Address        string `gorm:"type:text" json:"address,omitempty"`
	Country        string `gorm:"type:varchar(100)" json:"country,omitempty"`
}

// UserProfile holds the fields only individual user accounts carry.
type UserProfile struct {
	WeightKg          float64 `json:"weight_kg,omitempty"`
	HeightCm          float64 `json:"height_cm,omitempty"`
	Gender            string  `gorm:"type:varchar(20)" json:"gender,omitempty"`
	DietaryPreference string  `gorm:"type:varchar(50)" json:"dietary_preference,omitempty"`
}

// IsVerified reports whether the account passed OTP verification.
// Approved companies remain verified.
func (a *Account) IsVerified() bool {
	return a.Status == StatusVerified || a.Status == StatusApproved
}

// RequestApproval marks a verified company for admin review.
func (a *Account) RequestApproval() error {
	if a.Role != RoleCompany {
		return apperror.Forbidden("only company accounts can request approval")
	}
	if !a.IsVerified() {
		return apperror.Forbidden("verify your email before requesting approval")
	}
	if a.Status == StatusApproved {
		return apperror.Conflict("company is already approved")
	}
	if a.ApprovalRequested {
		return apperror.Conflict("an approval request is already pending")
	}
	a.ApprovalRequested = true
	return nil
}

// ApproveCompany resolves an outstanding verification request in the
// company's favour. Any admin decision clears the request flag.
func (a *Account) ApproveCompany() error {
	if !a.ApprovalRequested {
		return apperror.Validation("no pending approval request for this account")
	}
	a.Status = StatusApproved
	a.ApprovalRequested = false
	return nil
}

// DenyCompany resolves an outstanding verification request against the
// company. The account keeps its verified status.
func (a *Account) DenyCompany() error {
	if !a.ApprovalRequested {
		return apperror.Validation("no pending approval request for this account")
	}
	a.ApprovalRequested = false
	return nil
}

// RemoveApproval demotes an approved company back to verified. The account
// itself survives.
func (a *Account) RemoveApproval() error {
	if a.Status != StatusApproved {
		return apperror.Validation("account is not approved")
	}
	a.Status = StatusVerified
	a.ApprovalRequested = false
	return nil
}

// RefreshToken stores long-lived tokens allowing accounts to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Favourite links a user account to a product it bookmarked.
// One row per (account, product) pair.
type Favourite struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favourites_account_product" json:"account_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favourites_account_product" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"product,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

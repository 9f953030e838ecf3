package model

import (
	"time"

	"github.com/google/uuid"
)

// OTP timing rules. The resend cooldown and the absolute expiry are
// independent: a caller can be mid-cooldown while the same code is still
// valid to submit.
const (
	OTPResendCooldown = 60 * time.Second
	OTPLifetime       = 180 * time.Second
)

// OneTimeCode is a short-lived email verification code. Only the sha256
// hash of the code is stored; the plaintext exists in the outgoing email
// and nowhere else. At most one live code per account: issuing a new one
// deletes all prior rows for the account.
//
// Expired rows are purged by a background reaper, and every read filters
// on ExpiresAt so a row awaiting deletion already behaves as absent.
type OneTimeCode struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	CodeHash  string    `gorm:"type:varchar(64);not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

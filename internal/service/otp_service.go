package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"backend/internal/mailer"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPService issues and verifies one-time email verification codes.
type OTPService interface {
	Request(ctx context.Context, accountID uuid.UUID) error
	Verify(ctx context.Context, accountID uuid.UUID, code string) error
}

type otpService struct {
	accounts repository.AccountRepository
	codes    repository.OTPRepository
	mail     mailer.Mailer
	now      func() time.Time
}

func NewOTPService(accounts repository.AccountRepository, codes repository.OTPRepository, mail mailer.Mailer) OTPService {
	return &otpService{
		accounts: accounts,
		codes:    codes,
		mail:     mail,
		now:      time.Now,
	}
}

// invalidOTP is returned for an absent, expired or mismatched code. The
// three cases are indistinguishable to the caller so verification cannot
// be used to probe which codes exist.
func invalidOTP() error {
	return apperror.Validation("invalid or expired OTP")
}

func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// generateOTP draws a uniform 6-digit code from crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (s *otpService) Request(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("account not found")
		}
		return err
	}

	if account.IsVerified() {
		return apperror.Validation("account is already verified")
	}

	now := s.now()
	if existing, err := s.codes.FindLiveByAccount(ctx, accountID, now); err == nil {
		elapsed := now.Sub(existing.CreatedAt)
		if elapsed < model.OTPResendCooldown {
			remaining := int(math.Ceil((model.OTPResendCooldown - elapsed).Seconds()))
			return apperror.RateLimited(
				fmt.Sprintf("please wait %ds before requesting a new OTP", remaining),
				remaining,
			)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Delete everything for the account, not just the row we saw.
	// Self-healing against duplicates left behind by races.
	if err := s.codes.DeleteByAccount(ctx, accountID); err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}

	record := &model.OneTimeCode{
		AccountID: accountID,
		CodeHash:  hashOTP(code),
		CreatedAt: now,
		ExpiresAt: now.Add(model.OTPLifetime),
	}
	if err := s.codes.Create(ctx, record); err != nil {
		return err
	}

	err = s.mail.Send(account.FullName, account.Email, "Verify Your Account",
		fmt.Sprintf("Your OTP is %s. It expires in 3 minutes.", code),
		fmt.Sprintf("<p>Your OTP is <strong>%s</strong>. It expires in 3 minutes.</p>", code))
	if err != nil {
		return apperror.Upstream("email", err)
	}

	return nil
}

func (s *otpService) Verify(ctx context.Context, accountID uuid.UUID, code string) error {
	if code == "" {
		return apperror.Validation("OTP is required")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("account not found")
		}
		return err
	}

	record, err := s.codes.FindLiveByAccount(ctx, accountID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidOTP()
		}
		return err
	}

	if hashOTP(code) != record.CodeHash {
		return invalidOTP()
	}

	if account.Status == model.StatusPending {
		account.Status = model.StatusVerified
		if err := s.accounts.Update(ctx, account); err != nil {
			return err
		}
	}

	return s.codes.DeleteByAccount(ctx, accountID)
}

package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OTPRepository interface {
	Create(ctx context.Context, code *model.OneTimeCode) error
	// FindLiveByAccount returns the newest non-expired code for the
	// account. Expired rows behave as absent even before the reaper
	// deletes them.
	FindLiveByAccount(ctx context.Context, accountID uuid.UUID, now time.Time) (*model.OneTimeCode, error)
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, code *model.OneTimeCode) error {
	return GetDB(ctx, r.db).Create(code).Error
}

func (r *otpRepository) FindLiveByAccount(ctx context.Context, accountID uuid.UUID, now time.Time) (*model.OneTimeCode, error) {
	var code model.OneTimeCode
	err := GetDB(ctx, r.db).
		Where("account_id = ? AND expires_at > ?", accountID, now).
		Order("created_at desc").
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *otpRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("account_id = ?", accountID).Delete(&model.OneTimeCode{}).Error
}

func (r *otpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Where("expires_at <= ?", now).Delete(&model.OneTimeCode{})
	return res.RowsAffected, res.Error
}

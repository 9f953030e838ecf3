package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository defines data access for Account entities
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	ListPendingVerifications(ctx context.Context) ([]model.Account, error)

	AddFavourite(ctx context.Context, fav *model.Favourite) error
	RemoveFavourite(ctx context.Context, accountID, productID uuid.UUID) error
	ListFavourites(ctx context.Context, accountID uuid.UUID) ([]model.Favourite, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	return GetDB(ctx, r.db).Create(account).Error
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).First(&account, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	var account model.Account
	if err := GetDB(ctx, r.db).First(&account, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	return GetDB(ctx, r.db).Save(account).Error
}

// ListPendingVerifications returns companies waiting for an admin
// decision, newest first.
func (r *accountRepository) ListPendingVerifications(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := GetDB(ctx, r.db).
		Where("role = ? AND approval_requested = ? AND status <> ?", model.RoleCompany, true, model.StatusApproved).
		Order("created_at desc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) AddFavourite(ctx context.Context, fav *model.Favourite) error {
	return GetDB(ctx, r.db).Create(fav).Error
}

func (r *accountRepository) RemoveFavourite(ctx context.Context, accountID, productID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("account_id = ? AND product_id = ?", accountID, productID).
		Delete(&model.Favourite{}).Error
}

func (r *accountRepository) ListFavourites(ctx context.Context, accountID uuid.UUID) ([]model.Favourite, error) {
	var favs []model.Favourite
	err := GetDB(ctx, r.db).
		Preload("Product").
		Where("account_id = ?", accountID).
		Order("created_at desc").
		Find(&favs).Error
	if err != nil {
		return nil, err
	}
	return favs, nil
}

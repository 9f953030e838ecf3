package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"
	"backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// reviewNotifier lets services publish review-queue events without holding
// a hard dependency on the websocket package at construction time.
type reviewNotifier interface {
	Emit(evt websocket.ReviewEvent)
}

// DTOs for request validation

type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required"`

	// Company fields
	RegistrationNo string `json:"registration_no"`
	GSTNumber      string `json:"gst_number"`
	Address        string `json:"address"`
	Country        string `json:"country"`

	// Individual user fields
	WeightKg          float64 `json:"weight_kg"`
	HeightCm          float64 `json:"height_cm"`
	Gender            string  `json:"gender"`
	DietaryPreference string  `json:"dietary_preference"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	FullName string `json:"full_name"`

	RegistrationNo string `json:"registration_no"`
	GSTNumber      string `json:"gst_number"`
	Address        string `json:"address"`
	Country        string `json:"country"`

	WeightKg          float64 `json:"weight_kg"`
	HeightCm          float64 `json:"height_cm"`
	Gender            string  `json:"gender"`
	DietaryPreference string  `json:"dietary_preference"`
}

type HandleVerificationRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// AccountResponse returns an account without exposing sensitive data
type AccountResponse struct {
	ID                uuid.UUID             `json:"id"`
	Username          string                `json:"username"`
	Email             string                `json:"email"`
	FullName          string                `json:"full_name"`
	Role              string                `json:"role"`
	Status            string                `json:"account_status"`
	ApprovalRequested bool                  `json:"approval_requested"`
	AvatarURL         string                `json:"avatar_url,omitempty"`
	CompanyProfile    *model.CompanyProfile `json:"company_profile,omitempty"`
	UserProfile       *model.UserProfile    `json:"user_profile,omitempty"`
	CreatedAt         string                `json:"created_at"`
}

// AccountService defines the business logic for accounts: registration,
// login, profile edits and the company verification workflow.
type AccountService interface {
	Register(ctx context.Context, req SignupRequest) (*AccountResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetByID(ctx context.Context, id uuid.UUID) (*AccountResponse, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*AccountResponse, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, image io.Reader, contentType string) (string, error)

	RequestApproval(ctx context.Context, companyID uuid.UUID) error
	ListPendingVerifications(ctx context.Context) ([]AccountResponse, error)
	HandleVerification(ctx context.Context, adminID uuid.UUID, req HandleVerificationRequest) (*AccountResponse, error)
	RemoveApproval(ctx context.Context, adminID uuid.UUID, accountID uuid.UUID) (*AccountResponse, error)

	AddFavourite(ctx context.Context, accountID uuid.UUID, productCode string) error
	RemoveFavourite(ctx context.Context, accountID uuid.UUID, productCode string) error
	ListFavourites(ctx context.Context, accountID uuid.UUID) ([]model.Favourite, error)
}

type accountService struct {
	accounts repository.AccountRepository
	tokens   repository.RefreshTokenRepository
	products repository.ProductRepository
	audits   repository.AuditRepository
	store    storage.ObjectStore
	hub      reviewNotifier
	secret   func() []byte
}

func NewAccountService(
	accounts repository.AccountRepository,
	tokens repository.RefreshTokenRepository,
	products repository.ProductRepository,
	audits repository.AuditRepository,
	store storage.ObjectStore,
	hub reviewNotifier,
	secret func() []byte,
) AccountService {
	return &accountService{
		accounts: accounts,
		tokens:   tokens,
		products: products,
		audits:   audits,
		store:    store,
		hub:      hub,
		secret:   secret,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func mapAccount(account *model.Account) *AccountResponse {
	resp := &AccountResponse{
		ID:                account.ID,
		Username:          account.Username,
		Email:             account.Email,
		FullName:          account.FullName,
		Role:              account.Role,
		Status:            account.Status,
		ApprovalRequested: account.ApprovalRequested,
		AvatarURL:         account.AvatarURL,
		CreatedAt:         account.CreatedAt.Format(time.RFC3339),
	}
	// Only the profile variant matching the role is exposed.
	switch account.Role {
	case model.RoleCompany:
		p := account.CompanyProfile
		resp.CompanyProfile = &p
	case model.RoleUser:
		p := account.UserProfile
		resp.UserProfile = &p
	}
	return resp
}

func (s *accountService) Register(ctx context.Context, req SignupRequest) (*AccountResponse, error) {
	if req.Role != model.RoleUser && req.Role != model.RoleCompany {
		return nil, apperror.Validation("role must be 'user' or 'company'")
	}
	if !emailRegex.MatchString(req.Email) {
		return nil, apperror.Validation("invalid email format")
	}

	if req.Role == model.RoleCompany {
		var missing []string
		if req.RegistrationNo == "" {
			missing = append(missing, "registration_no")
		}
		if req.Address == "" {
			missing = append(missing, "address")
		}
		if req.Country == "" {
			missing = append(missing, "country")
		}
		if len(missing) > 0 {
			return nil, apperror.Validation("missing required company fields: " + strings.Join(missing, ", "))
		}
	}

	if _, err := s.accounts.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperror.Conflict("username already exists")
	}
	if _, err := s.accounts.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password")
	}

	account := &model.Account{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		FullName: req.FullName,
		Role:     req.Role,
		Status:   model.StatusPending,
	}
	switch req.Role {
	case model.RoleCompany:
		account.CompanyProfile = model.CompanyProfile{
			RegistrationNo: req.RegistrationNo,
			GSTNumber:      req.GSTNumber,
			Address:        req.Address,
			Country:        req.Country,
		}
	case model.RoleUser:
		account.UserProfile = model.UserProfile{
			WeightKg:          req.WeightKg,
			HeightCm:          req.HeightCm,
			Gender:            req.Gender,
			DietaryPreference: req.DietaryPreference,
		}
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	return mapAccount(account), nil
}

func (s *accountService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	accessToken, err := s.signAccessToken(account)
	if err != nil {
		return nil, apperror.Internal("failed to generate token")
	}

	refreshToken, err := randomToken()
	if err != nil {
		return nil, apperror.Internal("failed to generate refresh token")
	}
	rt := &model.RefreshToken{
		AccountID: account.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.tokens.Create(ctx, rt); err != nil {
		return nil, err
	}

	return &TokenResponse{Token: accessToken, RefreshToken: refreshToken}, nil
}

func (s *accountService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	rt, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid refresh token")
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, apperror.Unauthenticated("refresh token expired")
	}

	account, err := s.accounts.GetByID(ctx, rt.AccountID)
	if err != nil {
		return nil, apperror.Unauthenticated("account no longer exists")
	}

	accessToken, err := s.signAccessToken(account)
	if err != nil {
		return nil, apperror.Internal("failed to generate token")
	}

	return &TokenResponse{Token: accessToken, RefreshToken: refreshToken}, nil
}

func (s *accountService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Delete(ctx, refreshToken)
}

func (s *accountService) GetByID(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("account not found")
		}
		return nil, err
	}
	return mapAccount(account), nil
}

func (s *accountService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*AccountResponse, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("account not found")
		}
		return nil, err
	}

	if req.Username != "" && req.Username != account.Username {
		if _, err := s.accounts.GetByUsername(ctx, req.Username); err == nil {
			return nil, apperror.Conflict("username already exists")
		}
		account.Username = req.Username
	}
	if req.Email != "" && req.Email != account.Email {
		if !emailRegex.MatchString(req.Email) {
			return nil, apperror.Validation("invalid email format")
		}
		if _, err := s.accounts.GetByEmail(ctx, req.Email); err == nil {
			return nil, apperror.Conflict("email already exists")
		}
		account.Email = req.Email
	}
	if req.FullName != "" {
		account.FullName = req.FullName
	}

	// Apply only the fields belonging to the account's role variant.
	switch account.Role {
	case model.RoleCompany:
		if req.RegistrationNo != "" {
			account.CompanyProfile.RegistrationNo = req.RegistrationNo
		}
		if req.GSTNumber != "" {
			account.CompanyProfile.GSTNumber = req.GSTNumber
		}
		if req.Address != "" {
			account.CompanyProfile.Address = req.Address
		}
		if req.Country != "" {
			account.CompanyProfile.Country = req.Country
		}
	case model.RoleUser:
		if req.WeightKg > 0 {
			account.UserProfile.WeightKg = req.WeightKg
		}
		if req.HeightCm > 0 {
			account.UserProfile.HeightCm = req.HeightCm
		}
		if req.Gender != "" {
			account.UserProfile.Gender = req.Gender
		}
		if req.DietaryPreference != "" {
			account.UserProfile.DietaryPreference = req.DietaryPreference
		}
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return mapAccount(account), nil
}

func (s *accountService) UpdateAvatar(ctx context.Context, id uuid.UUID, image io.Reader, contentType string) (string, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.NotFound("account not found")
		}
		return "", err
	}

	key := "avatars/" + account.ID.String()
	url, err := s.store.Upload(ctx, image, key, contentType)
	if err != nil {
		return "", apperror.Upstream("image storage", err)
	}

	account.AvatarURL = url
	if err := s.accounts.Update(ctx, account); err != nil {
		return "", err
	}
	return url, nil
}

func (s *accountService) RequestApproval(ctx context.Context, companyID uuid.UUID) error {
	account, err := s.accounts.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("account not found")
		}
		return err
	}

	if err := account.RequestApproval(); err != nil {
		return err
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}

	s.emit(websocket.ReviewEvent{
		Type:       "company_verification",
		Action:     "requested",
		EntityID:   account.ID.String(),
		EntityName: account.Username,
	})
	return nil
}

func (s *accountService) ListPendingVerifications(ctx context.Context) ([]AccountResponse, error) {
	accounts, err := s.accounts.ListPendingVerifications(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, *mapAccount(&accounts[i]))
	}
	return responses, nil
}

func (s *accountService) HandleVerification(ctx context.Context, adminID uuid.UUID, req HandleVerificationRequest) (*AccountResponse, error) {
	if req.Action != "approve" && req.Action != "deny" {
		return nil, apperror.Validation("action must be 'approve' or 'deny'")
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return nil, apperror.Validation("invalid account id")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("account not found")
		}
		return nil, err
	}

	action := model.ActionApproveCompany
	if req.Action == "approve" {
		err = account.ApproveCompany()
	} else {
		err = account.DenyCompany()
		action = model.ActionDenyCompany
	}
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	s.audit(ctx, adminID, action, account.ID.String(), account.Username, map[string]interface{}{
		"action": req.Action,
	})
	s.emit(websocket.ReviewEvent{
		Type:       "company_verification",
		Action:     req.Action,
		EntityID:   account.ID.String(),
		EntityName: account.Username,
	})

	return mapAccount(account), nil
}

func (s *accountService) RemoveApproval(ctx context.Context, adminID uuid.UUID, accountID uuid.UUID) (*AccountResponse, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("account not found")
		}
		return nil, err
	}

	if err := account.RemoveApproval(); err != nil {
		return nil, err
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	s.audit(ctx, adminID, model.ActionRemoveCompanyApproval, account.ID.String(), account.Username, nil)
	s.emit(websocket.ReviewEvent{
		Type:       "company_verification",
		Action:     "approval_removed",
		EntityID:   account.ID.String(),
		EntityName: account.Username,
	})

	return mapAccount(account), nil
}

func (s *accountService) AddFavourite(ctx context.Context, accountID uuid.UUID, productCode string) error {
	product, err := s.products.FindByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("product not found")
		}
		return err
	}

	fav := &model.Favourite{AccountID: accountID, ProductID: product.ID}
	if err := s.accounts.AddFavourite(ctx, fav); err != nil {
		// The composite unique index rejects a second row for the pair.
		return apperror.Conflict("product is already in favourites")
	}
	return nil
}

func (s *accountService) RemoveFavourite(ctx context.Context, accountID uuid.UUID, productCode string) error {
	product, err := s.products.FindByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("product not found")
		}
		return err
	}
	return s.accounts.RemoveFavourite(ctx, accountID, product.ID)
}

func (s *accountService) ListFavourites(ctx context.Context, accountID uuid.UUID) ([]model.Favourite, error) {
	return s.accounts.ListFavourites(ctx, accountID)
}

func (s *accountService) signAccessToken(account *model.Account) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  account.ID.String(),
		"role": account.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString(s.secret())
}

// audit records an admin decision. A failed audit write never fails the
// decision that already happened; it is logged instead.
func (s *accountService) audit(ctx context.Context, adminID uuid.UUID, action, entityID, entityName string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		AccountID:  &adminID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		log.Printf("failed to write audit log for %s on %s: %v", action, entityID, err)
	}
}

func (s *accountService) emit(evt websocket.ReviewEvent) {
	if s.hub != nil {
		s.hub.Emit(evt)
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"
	"backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RegisterProductRequest struct {
	ProductCode       string
	Name              string
	Category          string
	Description       string
	Price             string
	Nutrition         model.NutritionalInfo
	Ingredients       []string
	Tags              []string
	ManufacturingDate time.Time
	ExpiryDate        time.Time

	Image            io.Reader
	ImageContentType string
}

type UpdateProductRequest struct {
	Name        string
	Category    string
	Description string
	Price       string
	Nutrition   *model.NutritionalInfo
	Ingredients []string
	Tags        []string

	Image            io.Reader
	ImageContentType string
}

type HandleApprovalRequest struct {
	ProductCode string `json:"product_code" binding:"required"`
	Action      string `json:"action" binding:"required"`
	Reason      string `json:"reason"`
}

type ProductListResponse struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

// ProductService covers the product lifecycle: registration, edits,
// deletion and the admin approval workflow.
type ProductService interface {
	Register(ctx context.Context, companyID uuid.UUID, req RegisterProductRequest) (*model.Product, error)
	Update(ctx context.Context, companyID uuid.UUID, productID uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, companyID uuid.UUID, productID uuid.UUID) error
	GetByCode(ctx context.Context, productCode string) (*model.Product, error)
	GetByID(ctx context.Context, productID uuid.UUID) (*model.Product, error)
	ListApproved(ctx context.Context, page, limit int, search string) (*ProductListResponse, error)
	ListMine(ctx context.Context, companyID uuid.UUID) ([]model.Product, error)
	ListPendingReview(ctx context.Context) ([]model.Product, error)

	HandleApproval(ctx context.Context, adminID uuid.UUID, req HandleApprovalRequest) (*model.Product, error)
	RemoveApproval(ctx context.Context, adminID uuid.UUID, productCode string) error
	MarkDenialSeen(ctx context.Context, companyID uuid.UUID, productID uuid.UUID) error
}

type productService struct {
	products repository.ProductRepository
	accounts repository.AccountRepository
	audits   repository.AuditRepository
	txMgr    repository.TransactionManager
	store    storage.ObjectStore
	hub      reviewNotifier
}

func NewProductService(
	products repository.ProductRepository,
	accounts repository.AccountRepository,
	audits repository.AuditRepository,
	txMgr repository.TransactionManager,
	store storage.ObjectStore,
	hub reviewNotifier,
) ProductService {
	return &productService{
		products: products,
		accounts: accounts,
		audits:   audits,
		txMgr:    txMgr,
		store:    store,
		hub:      hub,
	}
}

func (s *productService) Register(ctx context.Context, companyID uuid.UUID, req RegisterProductRequest) (*model.Product, error) {
	company, err := s.accounts.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("account not found")
		}
		return nil, err
	}
	if company.Role != model.RoleCompany || !company.IsVerified() {
		return nil, apperror.Forbidden("only verified companies can register products")
	}

	var missing []string
	if req.ProductCode == "" {
		missing = append(missing, "product_code")
	}
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Category == "" {
		missing = append(missing, "category")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if req.Price == "" {
		missing = append(missing, "price")
	}
	if req.Image == nil {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return nil, apperror.Validation("missing required fields: " + strings.Join(missing, ", "))
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, apperror.Validation("price must be a non-negative number")
	}

	if _, err := s.products.FindByCode(ctx, req.ProductCode); err == nil {
		return nil, apperror.Conflict("a product with this code already exists")
	}

	imageURL, err := s.store.Upload(ctx, req.Image, "products/"+req.ProductCode, req.ImageContentType)
	if err != nil {
		return nil, apperror.Upstream("image storage", err)
	}

	product := &model.Product{
		ProductCode:       req.ProductCode,
		CompanyID:         companyID,
		Name:              req.Name,
		Category:          req.Category,
		Description:       req.Description,
		Price:             price,
		Nutrition:         req.Nutrition,
		Ingredients:       req.Ingredients,
		Tags:              req.Tags,
		ManufacturingDate: req.ManufacturingDate,
		ExpiryDate:        req.ExpiryDate,
		ImageURL:          imageURL,
	}
	// A freshly registered product goes straight into the review queue.
	product.Review.Resubmit()

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.emit(websocket.ReviewEvent{
		Type:       "product_review",
		Action:     "requested",
		EntityID:   product.ProductCode,
		EntityName: product.Name,
	})
	return product, nil
}

func (s *productService) Update(ctx context.Context, companyID uuid.UUID, productID uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	company, err := s.accounts.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("account not found")
		}
		return nil, err
	}
	if company.Role != model.RoleCompany || !company.IsVerified() {
		return nil, apperror.Forbidden("only verified companies can edit products")
	}

	product, err := s.ownedProduct(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}

	// An edit is a full re-declaration of the listing, not a patch;
	// the admin re-reviews exactly what the client sent.
	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Category == "" {
		missing = append(missing, "category")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if req.Price == "" {
		missing = append(missing, "price")
	}
	if req.Nutrition == nil {
		missing = append(missing, "nutrition")
	}
	if req.Ingredients == nil {
		missing = append(missing, "ingredients")
	}
	if len(missing) > 0 {
		return nil, apperror.Validation("missing required fields: " + strings.Join(missing, ", "))
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, apperror.Validation("price must be a non-negative number")
	}

	product.Name = req.Name
	product.Category = req.Category
	product.Description = req.Description
	product.Price = price
	product.Nutrition = *req.Nutrition
	product.Ingredients = req.Ingredients
	if req.Tags != nil {
		product.Tags = req.Tags
	}
	if req.Image != nil {
		imageURL, err := s.store.Upload(ctx, req.Image, "products/"+product.ProductCode, req.ImageContentType)
		if err != nil {
			return nil, apperror.Upstream("image storage", err)
		}
		product.ImageURL = imageURL
	}

	// Any edit invalidates the previous decision and requires a new one.
	product.Review.Resubmit()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.emit(websocket.ReviewEvent{
		Type:       "product_review",
		Action:     "requested",
		EntityID:   product.ProductCode,
		EntityName: product.Name,
	})
	return product, nil
}

func (s *productService) Delete(ctx context.Context, companyID uuid.UUID, productID uuid.UUID) error {
	product, err := s.ownedProduct(ctx, companyID, productID)
	if err != nil {
		return err
	}
	return s.destroy(ctx, product)
}

func (s *productService) GetByCode(ctx context.Context, productCode string) (*model.Product, error) {
	product, err := s.products.FindByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) GetByID(ctx context.Context, productID uuid.UUID) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListApproved(ctx context.Context, page, limit int, search string) (*ProductListResponse, error) {
	products, total, err := s.products.ListApproved(ctx, page, limit, search)
	if err != nil {
		return nil, err
	}
	return &ProductListResponse{Products: products, Total: total, Page: page, Limit: limit}, nil
}

func (s *productService) ListMine(ctx context.Context, companyID uuid.UUID) ([]model.Product, error) {
	return s.products.ListByCompany(ctx, companyID)
}

func (s *productService) ListPendingReview(ctx context.Context) ([]model.Product, error) {
	return s.products.ListPendingReview(ctx)
}

func (s *productService) HandleApproval(ctx context.Context, adminID uuid.UUID, req HandleApprovalRequest) (*model.Product, error) {
	if req.Action != "approve" && req.Action != "deny" {
		return nil, apperror.Validation("action must be 'approve' or 'deny'")
	}

	product, err := s.products.FindByCode(ctx, req.ProductCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, err
	}

	action := model.ActionApproveProduct
	if req.Action == "approve" {
		err = product.Review.Approve()
	} else {
		err = product.Review.Deny(req.Reason)
		action = model.ActionDenyProduct
	}
	if err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.audit(ctx, adminID, action, product.ProductCode, product.Name, req.Reason)
	s.emit(websocket.ReviewEvent{
		Type:       "product_review",
		Action:     req.Action,
		EntityID:   product.ProductCode,
		EntityName: product.Name,
	})
	return product, nil
}

// RemoveApproval strips approval and deletes the product entirely,
// including its image, ratings and favourites.
func (s *productService) RemoveApproval(ctx context.Context, adminID uuid.UUID, productCode string) error {
	product, err := s.products.FindByCode(ctx, productCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("product not found")
		}
		return err
	}

	if err := product.Review.Revoke(); err != nil {
		return err
	}

	if err := s.destroy(ctx, product); err != nil {
		return err
	}

	s.audit(ctx, adminID, model.ActionRemoveProductApproval, product.ProductCode, product.Name, "")
	s.emit(websocket.ReviewEvent{
		Type:       "product_review",
		Action:     "approval_removed",
		EntityID:   product.ProductCode,
		EntityName: product.Name,
	})
	return nil
}

func (s *productService) MarkDenialSeen(ctx context.Context, companyID uuid.UUID, productID uuid.UUID) error {
	product, err := s.ownedProduct(ctx, companyID, productID)
	if err != nil {
		return err
	}
	if product.Review.State != model.ReviewDenied {
		return apperror.Validation("product has not been denied")
	}
	product.Review.DenialSeen = true
	return s.products.Update(ctx, product)
}

func (s *productService) ownedProduct(ctx context.Context, companyID uuid.UUID, productID uuid.UUID) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, err
	}
	if product.CompanyID != companyID {
		return nil, apperror.Forbidden("product belongs to another company")
	}
	return product, nil
}

// destroy removes the product row and everything hanging off it in one
// transaction. The stored image is deleted best-effort afterwards; an
// orphaned object is acceptable, a dangling database row is not.
func (s *productService) destroy(ctx context.Context, product *model.Product) error {
	err := s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.products.DeleteRatings(txCtx, product.ID); err != nil {
			return err
		}
		if err := s.products.DeleteFavourites(txCtx, product.ID); err != nil {
			return err
		}
		return s.products.Delete(txCtx, product.ID)
	})
	if err != nil {
		return err
	}

	if product.ImageURL != "" {
		if err := s.store.Delete(ctx, product.ImageURL); err != nil {
			log.Printf("failed to delete image for product %s: %v", product.ProductCode, err)
			s.audit(ctx, uuid.Nil, model.ActionSideEffectFailed, product.ProductCode, product.Name, err.Error())
		}
	}
	return nil
}

func (s *productService) audit(ctx context.Context, adminID uuid.UUID, action, entityID, entityName, details string) {
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    "{}",
	}
	if adminID != uuid.Nil {
		entry.AccountID = &adminID
	}
	if details != "" {
		payload, _ := json.Marshal(map[string]string{"reason": details})
		entry.Details = string(payload)
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		log.Printf("failed to write audit log for %s on %s: %v", action, entityID, err)
	}
}

func (s *productService) emit(evt websocket.ReviewEvent) {
	if s.hub != nil {
		s.hub.Emit(evt)
	}
}

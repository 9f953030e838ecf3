package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes backed by maps, guarded by a mutex so the
// behavior matches the real thing under the race detector.

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
	favs     []model.Favourite
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]model.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now()
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := account
	return &copied, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			copied := account
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Username == username {
			copied := account
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) Update(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepo) ListPendingVerifications(_ context.Context) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Account
	for _, account := range r.accounts {
		if account.Role == model.RoleCompany && account.ApprovalRequested && account.Status != model.StatusApproved {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAccountRepo) AddFavourite(_ context.Context, fav *model.Favourite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.favs {
		if existing.AccountID == fav.AccountID && existing.ProductID == fav.ProductID {
			return gorm.ErrDuplicatedKey
		}
	}
	if fav.ID == uuid.Nil {
		fav.ID = uuid.New()
	}
	r.favs = append(r.favs, *fav)
	return nil
}

func (r *fakeAccountRepo) RemoveFavourite(_ context.Context, accountID, productID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.favs[:0]
	for _, fav := range r.favs {
		if fav.AccountID != accountID || fav.ProductID != productID {
			kept = append(kept, fav)
		}
	}
	r.favs = kept
	return nil
}

func (r *fakeAccountRepo) ListFavourites(_ context.Context, accountID uuid.UUID) ([]model.Favourite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Favourite
	for _, fav := range r.favs {
		if fav.AccountID == accountID {
			out = append(out, fav)
		}
	}
	return out, nil
}

type fakeOTPRepo struct {
	mu    sync.Mutex
	codes []model.OneTimeCode
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{}
}

func (r *fakeOTPRepo) Create(_ context.Context, code *model.OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	r.codes = append(r.codes, *code)
	return nil
}

func (r *fakeOTPRepo) FindLiveByAccount(_ context.Context, accountID uuid.UUID, now time.Time) (*model.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *model.OneTimeCode
	for i := range r.codes {
		code := r.codes[i]
		if code.AccountID != accountID || !code.ExpiresAt.After(now) {
			continue
		}
		if newest == nil || code.CreatedAt.After(newest.CreatedAt) {
			copied := code
			newest = &copied
		}
	}
	if newest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return newest, nil
}

func (r *fakeOTPRepo) DeleteByAccount(_ context.Context, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, code := range r.codes {
		if code.AccountID != accountID {
			kept = append(kept, code)
		}
	}
	r.codes = kept
	return nil
}

func (r *fakeOTPRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	kept := r.codes[:0]
	for _, code := range r.codes {
		if code.ExpiresAt.After(now) {
			kept = append(kept, code)
		} else {
			removed++
		}
	}
	r.codes = kept
	return removed, nil
}

func (r *fakeOTPRepo) count(accountID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, code := range r.codes {
		if code.AccountID == accountID {
			n++
		}
	}
	return n
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product

	ratingCacheErr error
	cachedRatings  map[uuid.UUID]float64
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:      make(map[uuid.UUID]model.Product),
		cachedRatings: make(map[uuid.UUID]float64),
	}
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := product
	return &copied, nil
}

func (r *fakeProductRepo) FindByCode(_ context.Context, productCode string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range r.products {
		if product.ProductCode == productCode {
			copied := product
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) ListApproved(_ context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, product := range r.products {
		if product.Review.IsApproved() {
			out = append(out, product)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) ListPendingReview(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, product := range r.products {
		if product.Review.State == model.ReviewRequested {
			out = append(out, product)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListByCompany(_ context.Context, companyID uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, product := range r.products {
		if product.CompanyID == companyID {
			out = append(out, product)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) UpdatePublicRating(_ context.Context, id uuid.UUID, rating float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ratingCacheErr != nil {
		return r.ratingCacheErr
	}
	product, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	product.PublicRating = rating
	r.products[id] = product
	r.cachedRatings[id] = rating
	return nil
}

func (r *fakeProductRepo) DeleteRatings(_ context.Context, productID uuid.UUID) error {
	return nil
}

func (r *fakeProductRepo) DeleteFavourites(_ context.Context, productID uuid.UUID) error {
	return nil
}

type fakeRatingRepo struct {
	mu      sync.Mutex
	ratings []model.Rating
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{}
}

func (r *fakeRatingRepo) Upsert(_ context.Context, rating *model.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.ratings {
		if r.ratings[i].ProductID == rating.ProductID && r.ratings[i].RatedBy == rating.RatedBy {
			r.ratings[i].Value = rating.Value
			return nil
		}
	}
	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}
	r.ratings = append(r.ratings, *rating)
	return nil
}

func (r *fakeRatingRepo) FindByProductAndUser(_ context.Context, productID, userID uuid.UUID) (*model.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rating := range r.ratings {
		if rating.ProductID == productID && rating.RatedBy == userID {
			copied := rating
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRatingRepo) Aggregate(_ context.Context, productID uuid.UUID) (model.RatingAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	var count int64
	for _, rating := range r.ratings {
		if rating.ProductID == productID {
			sum += rating.Value
			count++
		}
	}
	agg := model.RatingAggregate{NumberOfRatings: count}
	if count > 0 {
		agg.AverageRating = sum / float64(count)
	}
	return agg, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AuditLog, len(r.entries))
	copy(out, r.entries)
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]model.RefreshToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	r.tokens[token.Token] = *token
	return nil
}

func (r *fakeTokenRepo) GetByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := rt
	return &copied, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, rt := range r.tokens {
		if !rt.ExpiresAt.After(now) {
			delete(r.tokens, key)
		}
	}
	return nil
}

// fakeTxManager runs the function directly; the fakes have no
// transactions to speak of.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string // text bodies, in order
	err  error
}

func (m *fakeMailer) Send(toName, toEmail, subject, textContent, htmlContent string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, textContent)
	return nil
}

func (m *fakeMailer) lastBody() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}

type fakeObjectStore struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	deleteErr error
}

func (s *fakeObjectStore) Upload(_ context.Context, body io.Reader, key, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, key)
	return "https://cdn.test/" + key, nil
}

func (s *fakeObjectStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, url)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []websocket.ReviewEvent
}

func (n *fakeNotifier) Emit(evt websocket.ReviewEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

var errBoom = errors.New("boom")

package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSecret() []byte { return []byte("test-secret") }

type accountFixture struct {
	svc      *accountService
	accounts *fakeAccountRepo
	tokens   *fakeTokenRepo
	audits   *fakeAuditRepo
	notifier *fakeNotifier
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	accounts := newFakeAccountRepo()
	tokens := newFakeTokenRepo()
	audits := newFakeAuditRepo()
	notifier := &fakeNotifier{}

	svc := NewAccountService(
		accounts, tokens, newFakeProductRepo(), audits,
		&fakeObjectStore{}, notifier, testSecret,
	).(*accountService)
	return &accountFixture{svc: svc, accounts: accounts, tokens: tokens, audits: audits, notifier: notifier}
}

func companySignup(username string) SignupRequest {
	return SignupRequest{
		Username:       username,
		Email:          username + "@example.com",
		Password:       "s3cret99",
		FullName:       "Acme Foods",
		Role:           model.RoleCompany,
		RegistrationNo: "REG-42",
		GSTNumber:      "GST-42",
		Address:        "12 Mill Road",
		Country:        "IN",
	}
}

func TestRegisterCompany(t *testing.T) {
	f := newAccountFixture(t)

	account, err := f.svc.Register(context.Background(), companySignup("acme"))
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, account.Status)
	require.NotNil(t, account.CompanyProfile)
	assert.Equal(t, "REG-42", account.CompanyProfile.RegistrationNo)
	assert.Nil(t, account.UserProfile)

	// Password is stored hashed, never verbatim.
	stored, err := f.accounts.GetByUsername(context.Background(), "acme")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret99", stored.Password)
	assert.NotEmpty(t, stored.Password)
}

func TestRegisterCompanyMissingFields(t *testing.T) {
	f := newAccountFixture(t)

	req := companySignup("acme")
	req.RegistrationNo = ""
	req.Country = ""

	_, err := f.svc.Register(context.Background(), req)
	require.Error(t, err)
	appErr := apperror.From(err)
	assert.Equal(t, "validation_error", appErr.Code)
	assert.Contains(t, appErr.Message, "registration_no")
	assert.Contains(t, appErr.Message, "country")
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	f := newAccountFixture(t)

	req := companySignup("acme")
	req.Role = "superadmin"

	_, err := f.svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "role must be 'user' or 'company'", apperror.From(err).Message)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	f := newAccountFixture(t)

	_, err := f.svc.Register(context.Background(), companySignup("acme"))
	require.NoError(t, err)

	dup := companySignup("acme")
	dup.Email = "other@example.com"
	_, err = f.svc.Register(context.Background(), dup)
	require.Error(t, err)
	assert.Equal(t, "conflict", apperror.From(err).Code)
}

func TestRegisterUserProfileVariant(t *testing.T) {
	f := newAccountFixture(t)

	account, err := f.svc.Register(context.Background(), SignupRequest{
		Username:          "bob",
		Email:             "bob@example.com",
		Password:          "s3cret99",
		FullName:          "Bob",
		Role:              model.RoleUser,
		WeightKg:          82,
		HeightCm:          180,
		Gender:            "male",
		DietaryPreference: "vegetarian",
	})
	require.NoError(t, err)

	require.NotNil(t, account.UserProfile)
	assert.Equal(t, 82.0, account.UserProfile.WeightKg)
	assert.Nil(t, account.CompanyProfile)
}

func TestLoginAndRefresh(t *testing.T) {
	f := newAccountFixture(t)
	_, err := f.svc.Register(context.Background(), companySignup("acme"))
	require.NoError(t, err)

	tokens, err := f.svc.Login(context.Background(), LoginRequest{
		Email:    "acme@example.com",
		Password: "s3cret99",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)

	refreshed, err := f.svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)

	require.NoError(t, f.svc.Logout(context.Background(), tokens.RefreshToken))
	_, err = f.svc.Refresh(context.Background(), tokens.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "unauthenticated", apperror.From(err).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAccountFixture(t)
	_, err := f.svc.Register(context.Background(), companySignup("acme"))
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), LoginRequest{
		Email:    "acme@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	// Wrong password and unknown email are indistinguishable.
	assert.Equal(t, "invalid email or password", apperror.From(err).Message)

	_, err = f.svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "s3cret99",
	})
	require.Error(t, err)
	assert.Equal(t, "invalid email or password", apperror.From(err).Message)
}

func TestCompanyVerificationFlow(t *testing.T) {
	f := newAccountFixture(t)

	registered, err := f.svc.Register(context.Background(), companySignup("acme"))
	require.NoError(t, err)

	admin := &model.Account{
		Username: "root",
		Email:    "admin@example.com",
		Role:     model.RoleAdmin,
		Status:   model.StatusVerified,
	}
	require.NoError(t, f.accounts.Create(context.Background(), admin))

	// Unverified companies cannot enter the queue.
	err = f.svc.RequestApproval(context.Background(), registered.ID)
	require.Error(t, err)
	assert.Equal(t, "forbidden", apperror.From(err).Code)

	// Simulate OTP verification, then request approval.
	account, err := f.accounts.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	account.Status = model.StatusVerified
	require.NoError(t, f.accounts.Update(context.Background(), account))

	require.NoError(t, f.svc.RequestApproval(context.Background(), registered.ID))

	pending, err := f.svc.ListPendingVerifications(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "acme", pending[0].Username)

	approved, err := f.svc.HandleVerification(context.Background(), admin.ID, HandleVerificationRequest{
		AccountID: registered.ID.String(),
		Action:    "approve",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.False(t, approved.ApprovalRequested)
	assert.Contains(t, f.audits.actions(), model.ActionApproveCompany)

	// The queue is empty and a second decision has nothing to act on.
	pending, err = f.svc.ListPendingVerifications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.HandleVerification(context.Background(), admin.ID, HandleVerificationRequest{
		AccountID: registered.ID.String(),
		Action:    "deny",
	})
	require.Error(t, err)
	assert.Equal(t, "no pending approval request for this account", apperror.From(err).Message)

	// Removal demotes back to verified, so the company can re-request.
	demoted, err := f.svc.RemoveApproval(context.Background(), admin.ID, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, demoted.Status)
	require.NoError(t, f.svc.RequestApproval(context.Background(), registered.ID))
}

func TestDenyCompanyKeepsAccountUsable(t *testing.T) {
	f := newAccountFixture(t)

	registered, err := f.svc.Register(context.Background(), companySignup("acme"))
	require.NoError(t, err)

	account, err := f.accounts.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	account.Status = model.StatusVerified
	require.NoError(t, f.accounts.Update(context.Background(), account))
	require.NoError(t, f.svc.RequestApproval(context.Background(), registered.ID))

	admin := &model.Account{Username: "root", Email: "admin@example.com", Role: model.RoleAdmin, Status: model.StatusVerified}
	require.NoError(t, f.accounts.Create(context.Background(), admin))

	denied, err := f.svc.HandleVerification(context.Background(), admin.ID, HandleVerificationRequest{
		AccountID: registered.ID.String(),
		Action:    "deny",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, denied.Status)

	// A denied company may try again.
	require.NoError(t, f.svc.RequestApproval(context.Background(), registered.ID))
}

func TestUpdateProfileRoleVariant(t *testing.T) {
	f := newAccountFixture(t)

	registered, err := f.svc.Register(context.Background(), companySignup("acme"))
	require.NoError(t, err)

	// User-variant fields on a company account are ignored.
	updated, err := f.svc.UpdateProfile(context.Background(), registered.ID, UpdateProfileRequest{
		Address:  "99 New Street",
		WeightKg: 70,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CompanyProfile)
	assert.Equal(t, "99 New Street", updated.CompanyProfile.Address)
	assert.Nil(t, updated.UserProfile)

	stored, err := f.accounts.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.UserProfile.WeightKg)
}

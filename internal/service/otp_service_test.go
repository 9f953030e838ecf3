package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otpBodyRe = regexp.MustCompile(`\b(\d{6})\b`)

func newOTPFixture(t *testing.T) (*otpService, *fakeAccountRepo, *fakeOTPRepo, *fakeMailer, uuid.UUID) {
	t.Helper()
	accounts := newFakeAccountRepo()
	codes := newFakeOTPRepo()
	mail := &fakeMailer{}

	account := &model.Account{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice",
		Role:     model.RoleUser,
		Status:   model.StatusPending,
	}
	require.NoError(t, accounts.Create(context.Background(), account))

	svc := NewOTPService(accounts, codes, mail).(*otpService)
	return svc, accounts, codes, mail, account.ID
}

func TestOTPRequestSendsSixDigitCode(t *testing.T) {
	svc, _, codes, mail, accountID := newOTPFixture(t)

	require.NoError(t, svc.Request(context.Background(), accountID))

	assert.Equal(t, 1, codes.count(accountID))
	assert.Regexp(t, otpBodyRe, mail.lastBody())
}

func TestOTPRequestUnknownAccount(t *testing.T) {
	svc, _, _, _, _ := newOTPFixture(t)

	err := svc.Request(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, "not_found", apperror.From(err).Code)
}

func TestOTPRequestAlreadyVerified(t *testing.T) {
	svc, accounts, _, _, accountID := newOTPFixture(t)

	account, err := accounts.GetByID(context.Background(), accountID)
	require.NoError(t, err)
	account.Status = model.StatusVerified
	require.NoError(t, accounts.Update(context.Background(), account))

	err = svc.Request(context.Background(), accountID)
	require.Error(t, err)
	assert.Equal(t, "validation_error", apperror.From(err).Code)
}

func TestOTPRequestCooldown(t *testing.T) {
	svc, _, _, _, accountID := newOTPFixture(t)

	base := time.Now()
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.Request(context.Background(), accountID))

	// A resend 30 seconds in is rejected with the remaining wait.
	svc.now = func() time.Time { return base.Add(30 * time.Second) }
	err := svc.Request(context.Background(), accountID)
	require.Error(t, err)
	appErr := apperror.From(err)
	assert.Equal(t, "rate_limited", appErr.Code)
	assert.Equal(t, 30, appErr.RetryAfterSeconds)

	// After the cooldown, but before expiry, a resend succeeds.
	svc.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.NoError(t, svc.Request(context.Background(), accountID))
}

func TestOTPResendInvalidatesPriorCode(t *testing.T) {
	svc, _, codes, mail, accountID := newOTPFixture(t)

	base := time.Now()
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.Request(context.Background(), accountID))
	first := otpBodyRe.FindString(mail.lastBody())

	svc.now = func() time.Time { return base.Add(model.OTPResendCooldown) }
	require.NoError(t, svc.Request(context.Background(), accountID))

	// Only the newest code survives a resend.
	assert.Equal(t, 1, codes.count(accountID))
	err := svc.Verify(context.Background(), accountID, first)
	require.Error(t, err)
	assert.Equal(t, "invalid or expired OTP", apperror.From(err).Message)
}

func TestOTPExpiryAllowsFreshRequest(t *testing.T) {
	svc, _, _, _, accountID := newOTPFixture(t)

	base := time.Now()
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.Request(context.Background(), accountID))

	// Past the 180s lifetime there is no live code, so no cooldown either.
	svc.now = func() time.Time { return base.Add(181 * time.Second) }
	assert.NoError(t, svc.Request(context.Background(), accountID))
}

func TestOTPVerifySuccess(t *testing.T) {
	svc, accounts, codes, mail, accountID := newOTPFixture(t)

	require.NoError(t, svc.Request(context.Background(), accountID))
	code := otpBodyRe.FindString(mail.lastBody())
	require.NotEmpty(t, code)

	require.NoError(t, svc.Verify(context.Background(), accountID, code))

	account, err := accounts.GetByID(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, account.Status)
	// Used codes are purged; a second verify cannot replay them.
	assert.Equal(t, 0, codes.count(accountID))
	err = svc.Verify(context.Background(), accountID, code)
	require.Error(t, err)
	assert.Equal(t, "invalid or expired OTP", apperror.From(err).Message)
}

func TestOTPVerifyWrongCode(t *testing.T) {
	svc, _, codes, _, accountID := newOTPFixture(t)

	require.NoError(t, svc.Request(context.Background(), accountID))

	err := svc.Verify(context.Background(), accountID, "000000")
	require.Error(t, err)
	assert.Equal(t, "invalid or expired OTP", apperror.From(err).Message)
	// A failed attempt does not consume the live code.
	assert.Equal(t, 1, codes.count(accountID))
}

func TestOTPVerifyExpiredCode(t *testing.T) {
	svc, _, _, mail, accountID := newOTPFixture(t)

	base := time.Now()
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.Request(context.Background(), accountID))
	code := otpBodyRe.FindString(mail.lastBody())

	// 170s in, the code still works; 181s in, it does not. The expired
	// case reads exactly like a wrong code.
	svc.now = func() time.Time { return base.Add(181 * time.Second) }
	err := svc.Verify(context.Background(), accountID, code)
	require.Error(t, err)
	assert.Equal(t, "invalid or expired OTP", apperror.From(err).Message)
}

func TestOTPVerifyBlankCode(t *testing.T) {
	svc, _, _, _, accountID := newOTPFixture(t)

	err := svc.Verify(context.Background(), accountID, "")
	require.Error(t, err)
	assert.Equal(t, "OTP is required", apperror.From(err).Message)
}

func TestOTPVerifyJustBeforeExpiry(t *testing.T) {
	svc, accounts, _, mail, accountID := newOTPFixture(t)

	base := time.Now()
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.Request(context.Background(), accountID))
	code := otpBodyRe.FindString(mail.lastBody())

	svc.now = func() time.Time { return base.Add(170 * time.Second) }
	require.NoError(t, svc.Verify(context.Background(), accountID, code))

	account, err := accounts.GetByID(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, account.Status)
}

func TestOTPRequestMailFailure(t *testing.T) {
	svc, _, _, mail, accountID := newOTPFixture(t)
	mail.err = errBoom

	err := svc.Request(context.Background(), accountID)
	require.Error(t, err)
	assert.Equal(t, "upstream_failure", apperror.From(err).Code)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestReviewTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    ReviewState
		wantErr bool
	}{
		{"from unsubmitted", ReviewUnsubmitted, false},
		{"from denied", ReviewDenied, false},
		{"from requested", ReviewRequested, true},
		{"from approved", ReviewApproved, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Review{State: tt.from}
			err := r.RequestReview()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.from, r.State)
			} else {
				require.NoError(t, err)
				assert.Equal(t, ReviewRequested, r.State)
			}
		})
	}
}

func TestRequestReviewClearsDenial(t *testing.T) {
	r := Review{State: ReviewDenied, DenialReason: "incomplete label", DenialSeen: true}
	require.NoError(t, r.RequestReview())
	assert.Empty(t, r.DenialReason)
	assert.False(t, r.DenialSeen)
}

func TestApproveRequiresPendingRequest(t *testing.T) {
	for _, state := range []ReviewState{ReviewUnsubmitted, ReviewApproved, ReviewDenied} {
		r := Review{State: state}
		err := r.Approve()
		require.Error(t, err, "state %s", state)
		assert.Equal(t, state, r.State)
	}

	r := Review{State: ReviewRequested}
	require.NoError(t, r.Approve())
	assert.Equal(t, ReviewApproved, r.State)
}

func TestDenyStoresReason(t *testing.T) {
	r := Review{State: ReviewRequested}
	require.NoError(t, r.Deny("missing nutrition declaration"))
	assert.Equal(t, ReviewDenied, r.State)
	assert.Equal(t, "missing nutrition declaration", r.DenialReason)
	assert.False(t, r.DenialSeen)
}

func TestDenyDefaultsReason(t *testing.T) {
	r := Review{State: ReviewRequested}
	require.NoError(t, r.Deny(""))
	assert.Equal(t, DefaultDenialReason, r.DenialReason)
}

func TestDenyRequiresPendingRequest(t *testing.T) {
	r := Review{State: ReviewApproved}
	require.Error(t, r.Deny("late"))
	assert.Equal(t, ReviewApproved, r.State)
}

func TestRevoke(t *testing.T) {
	r := Review{State: ReviewApproved}
	require.NoError(t, r.Revoke())
	assert.Equal(t, ReviewUnsubmitted, r.State)

	for _, state := range []ReviewState{ReviewUnsubmitted, ReviewRequested, ReviewDenied} {
		r := Review{State: state}
		require.Error(t, r.Revoke(), "state %s", state)
	}
}

func TestResubmitFromAnyState(t *testing.T) {
	for _, state := range []ReviewState{ReviewUnsubmitted, ReviewRequested, ReviewApproved, ReviewDenied} {
		r := Review{State: state, DenialReason: "old reason", DenialSeen: true}
		r.Resubmit()
		assert.Equal(t, ReviewRequested, r.State)
		assert.Empty(t, r.DenialReason)
		assert.False(t, r.DenialSeen)
	}
}

func TestIsApproved(t *testing.T) {
	assert.True(t, (&Review{State: ReviewApproved}).IsApproved())
	assert.False(t, (&Review{State: ReviewRequested}).IsApproved())
	assert.False(t, (&Review{State: ReviewDenied}).IsApproved())
	assert.False(t, (&Review{}).IsApproved())
}

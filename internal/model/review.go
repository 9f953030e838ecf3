package model

import "backend/pkg/apperror"

// ReviewState is the single enumerated approval state. It replaces the
// isApproved/approvalRequested/isDenied boolean triple so that illegal
// combinations cannot be represented.
type ReviewState string

const (
	ReviewUnsubmitted ReviewState = "unsubmitted" // never asked for review
	ReviewRequested   ReviewState = "requested"   // waiting for an admin decision
	ReviewApproved    ReviewState = "approved"
	ReviewDenied      ReviewState = "denied"
)

// Review is the approval lifecycle attached to a reviewable entity.
// DenialReason is meaningful only in the denied state; every other
// transition clears it.
type Review struct {
	State        ReviewState `gorm:"type:varchar(20);not null;default:'unsubmitted';index" json:"state"`
	DenialReason string      `gorm:"type:text" json:"denial_reason,omitempty"`
	DenialSeen   bool        `gorm:"not null;default:false" json:"denial_seen"`
}

// DefaultDenialReason is stored when an admin denies without giving one.
const DefaultDenialReason = "Product did not meet approval criteria"

// RequestReview asks for an admin decision. Allowed from unsubmitted and
// denied (edit-and-resubmit); already-approved entities and entities with
// an outstanding request are rejected.
func (r *Review) RequestReview() error {
	switch r.State {
	case ReviewApproved:
		return apperror.Conflict("already approved")
	case ReviewRequested:
		return apperror.Conflict("an approval request is already pending")
	}
	r.State = ReviewRequested
	r.DenialReason = ""
	r.DenialSeen = false
	return nil
}

// Approve resolves an outstanding request in favour of the owner.
func (r *Review) Approve() error {
	if r.State != ReviewRequested {
		return apperror.Validation("no pending approval request")
	}
	r.State = ReviewApproved
	r.DenialReason = ""
	r.DenialSeen = false
	return nil
}

// Deny resolves an outstanding request against the owner. A blank reason
// falls back to the generic message. The owner has not seen the denial yet.
func (r *Review) Deny(reason string) error {
	if r.State != ReviewRequested {
		return apperror.Validation("no pending approval request")
	}
	if reason == "" {
		reason = DefaultDenialReason
	}
	r.State = ReviewDenied
	r.DenialReason = reason
	r.DenialSeen = false
	return nil
}

// Revoke strips a previously granted approval. Only approved entities
// can be revoked.
func (r *Review) Revoke() error {
	if r.State != ReviewApproved {
		return apperror.Validation("not approved")
	}
	r.State = ReviewUnsubmitted
	r.DenialReason = ""
	r.DenialSeen = false
	return nil
}

// Resubmit forces the entity back into the review queue regardless of its
// current state. An owner edit always requires a fresh decision.
func (r *Review) Resubmit() {
	r.State = ReviewRequested
	r.DenialReason = ""
	r.DenialSeen = false
}

// IsApproved reports whether the entity is publicly visible.
func (r *Review) IsApproved() bool {
	return r.State == ReviewApproved
}

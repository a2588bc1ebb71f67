package services

import (
	"circleup-api/models"
)

// PrivacyGate decides whether a submitted request auto-accepts or waits for
// the receiver's consent.
type PrivacyGate struct{}

func NewPrivacyGate() *PrivacyGate {
	return &PrivacyGate{}
}

// Decide returns the initial status for a request addressed to target.
// Friend requests always require consent; follow requests auto-accept unless
// the target account is private.
func (pg *PrivacyGate) Decide(target *models.Account, kind models.EdgeKind) models.EdgeStatus {
	if kind == models.EdgeKindFriend {
		return models.EdgeStatusPending
	}
	if target.IsPrivate {
		return models.EdgeStatusPending
	}
	return models.EdgeStatusAccepted
}

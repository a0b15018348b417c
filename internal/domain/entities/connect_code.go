package entities

import (
	"time"

	domainerrors "lending-admin-api/internal/domain/errors"
)

const ConnectCodeResource = "connect_code"

// ConnectCode is a one-time code an admin hands to a client so the client's
// LINE account can be linked. A code is either issued, used or expired.
type ConnectCode struct {
	Code      string     `json:"code"`
	ClientID  string     `json:"clientId"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	UsedBy    string     `json:"usedBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Used reports whether the code was redeemed.
func (c *ConnectCode) Used() bool {
	return c.UsedAt != nil
}

// Expired reports whether the code is past its expiry at now.
func (c *ConnectCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// CheckRedeemable returns the domain error preventing redemption at now, if any.
// A used code reports as used even after it expires.
func (c *ConnectCode) CheckRedeemable(now time.Time) error {
	if c.Used() {
		return domainerrors.AlreadyUsed(ConnectCodeResource, "Connect code has already been used")
	}
	if c.Expired(now) {
		return domainerrors.Expired(ConnectCodeResource, "Connect code has expired")
	}
	return nil
}

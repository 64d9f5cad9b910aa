package model

import "time"

// Binding statuses. A binding is created pending and flipped to verified
// exactly once; rows are never hard-deleted.
const (
	BindingPending  = "pending"
	BindingVerified = "verified"
)

// Binding links a Discord identity to a Roblox account. At most one binding
// exists per Discord ID, and at most one verified binding per Roblox account.
type Binding struct {
	ID             int64      `json:"id"`
	DiscordID      string     `json:"discord_id"`
	RobloxUserID   int64      `json:"roblox_user_id"`
	RobloxUsername string     `json:"roblox_username"`
	Code           string     `json:"-"`
	CodeIssuedAt   time.Time  `json:"code_issued_at"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	Status         string     `json:"status"`
}

// IsVerified reports whether the binding has completed bio verification.
func (b *Binding) IsVerified() bool {
	return b.Status == BindingVerified
}

// CodeExpired reports whether the pending code is older than ttl.
func (b *Binding) CodeExpired(ttl time.Duration, now time.Time) bool {
	return now.Sub(b.CodeIssuedAt) > ttl
}

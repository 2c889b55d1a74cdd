package db_models

import (
	"time"

	"github.com/google/uuid"
)

// WorkspaceInvite gates registration: the only path to a new account is
// a high-entropy token tied to a workspace + site. One-time-use with an
// expiry; optionally locked to one email address.
type WorkspaceInvite struct {
	BaseModel
	WorkspaceID uuid.UUID `gorm:"index;not null"`
	SiteID      uuid.UUID `gorm:"index;not null"`
	Email       *string   // optional: lock invite to a specific email
	Token       string    `gorm:"size:128;uniqueIndex;not null"`
	ExpiresAt   int64     `gorm:"not null"`
	UsedAt      *int64    // set when consumed during registration
}

func (i *WorkspaceInvite) IsExpired(now time.Time) bool {
	return now.Unix() >= i.ExpiresAt
}

func (i *WorkspaceInvite) IsUsed() bool {
	return i.UsedAt != nil
}

// IsValid is the conjunction: not used AND not expired.
func (i *WorkspaceInvite) IsValid(now time.Time) bool {
	return !i.IsUsed() && !i.IsExpired(now)
}

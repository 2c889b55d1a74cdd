package db_models

import "github.com/google/uuid"

type SubscriptionStatus string

// Statuses synced from Stripe. billing_subscriptions.status is the
// single source of truth for entitlement gating.
const (
	SubStatusActive            SubscriptionStatus = "active"
	SubStatusTrialing          SubscriptionStatus = "trialing"
	SubStatusPastDue           SubscriptionStatus = "past_due"
	SubStatusCanceled          SubscriptionStatus = "canceled"
	SubStatusUnpaid            SubscriptionStatus = "unpaid"
	SubStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
)

// BillingCustomer links a workspace to the processor's customer record.
// Created lazily on first checkout.
type BillingCustomer struct {
	BaseModel
	WorkspaceID      uuid.UUID `gorm:"uniqueIndex;not null"`
	StripeCustomerID string    `gorm:"size:255;uniqueIndex;not null"`
}

// BillingSubscription mirrors the processor's subscription state. A
// workspace may accumulate historical rows; the most recently created
// one is authoritative for entitlement.
type BillingSubscription struct {
	BaseModel
	WorkspaceID          uuid.UUID          `gorm:"index;not null"`
	StripeSubscriptionID string             `gorm:"size:255;uniqueIndex;not null"`
	StripePriceID        string             `gorm:"size:255"`
	Plan                 string             `gorm:"size:50"` // basic | pro
	Status               SubscriptionStatus `gorm:"size:50;index;not null"`
	CurrentPeriodEnd     *int64
	CancelAtPeriodEnd    bool `gorm:"default:false"`
}

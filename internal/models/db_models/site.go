package db_models

import "github.com/google/uuid"

type SiteStatus string

// Site statuses are presentation only. Access gating always reads
// billing_subscriptions.status, never this field.
const (
	SiteStatusDemo      SiteStatus = "demo"
	SiteStatusActive    SiteStatus = "active"
	SiteStatusPaused    SiteStatus = "paused"
	SiteStatusCancelled SiteStatus = "cancelled"
)

type Site struct {
	BaseModel
	WorkspaceID  uuid.UUID `gorm:"index;not null"`
	Slug         string    `gorm:"size:100;uniqueIndex;not null"`
	DisplayName  string
	PublishedURL string `gorm:"size:500"`
	CustomDomain string
	Status       SiteStatus `gorm:"size:50;default:demo;not null"`
}

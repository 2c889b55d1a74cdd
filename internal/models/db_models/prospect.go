package db_models

import "github.com/google/uuid"

type ProspectStatus string

// Pipeline: researching -> site_built -> pitched -> converted | declined.
// converted is terminal and also creates the workspace/site/invite triad.
const (
	ProspectStatusResearching ProspectStatus = "researching"
	ProspectStatusSiteBuilt   ProspectStatus = "site_built"
	ProspectStatusPitched     ProspectStatus = "pitched"
	ProspectStatusConverted   ProspectStatus = "converted"
	ProspectStatusDeclined    ProspectStatus = "declined"
)

type ActivityType string

const (
	ActivityEmail ActivityType = "email"
	ActivityText  ActivityType = "text"
	ActivityCall  ActivityType = "call"
	ActivityNote  ActivityType = "note"
)

type Prospect struct {
	BaseModel
	BusinessName string `gorm:"size:255;not null"`
	ContactName  string `gorm:"size:255"`
	ContactEmail string `gorm:"size:255"`
	ContactPhone string `gorm:"size:50"`
	Source       string `gorm:"size:50;not null"` // google_maps | facebook | yelp | referral | other
	SourceURL    string `gorm:"size:500"`
	Notes        string
	DemoURL      string         `gorm:"size:500"`
	Status       ProspectStatus `gorm:"size:50;default:researching;not null"`
	WorkspaceID  *uuid.UUID     `gorm:"index"` // set when converted
}

// ProspectActivity is the outreach log: emails, texts, calls, notes.
// Reminder sends are logged here too and double as the "already sent"
// idempotency check for the escalation job.
type ProspectActivity struct {
	BaseModel
	ProspectID   uuid.UUID    `gorm:"index;not null"`
	ActivityType ActivityType `gorm:"size:50;not null"`
	Note         string
	ActorUserID  *uuid.UUID `gorm:"index"` // nil for system-generated entries
}

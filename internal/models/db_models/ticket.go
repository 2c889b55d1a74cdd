package db_models

import "github.com/google/uuid"

type TicketStatus string

const (
	TicketOpen            TicketStatus = "open"
	TicketInProgress      TicketStatus = "in_progress"
	TicketWaitingOnClient TicketStatus = "waiting_on_client"
	TicketDone            TicketStatus = "done" // terminal
)

type TicketCategory string

const (
	CategoryContentUpdate TicketCategory = "content_update"
	CategoryBug           TicketCategory = "bug"
	CategoryQuestion      TicketCategory = "question"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityNormal TicketPriority = "normal"
	PriorityHigh   TicketPriority = "high"
)

// TicketTransitions is the full status machine. done has no outbound
// edges. Enforced in ticket_service for manual and automatic changes
// alike.
var TicketTransitions = map[TicketStatus][]TicketStatus{
	TicketOpen:            {TicketInProgress, TicketDone},
	TicketInProgress:      {TicketWaitingOnClient, TicketDone},
	TicketWaitingOnClient: {TicketInProgress, TicketDone},
	TicketDone:            {},
}

var TicketCategories = []TicketCategory{CategoryContentUpdate, CategoryBug, CategoryQuestion}

type Ticket struct {
	BaseModel
	WorkspaceID      uuid.UUID       `gorm:"index;not null"`
	SiteID           uuid.UUID       `gorm:"index;not null"`
	AuthorUserID     uuid.UUID       `gorm:"index;not null"`
	AssignedToUserID *uuid.UUID      `gorm:"index"` // must reference an admin user
	Subject          string          `gorm:"size:255;not null"`
	Description      string          `gorm:"not null"`
	Category         *TicketCategory `gorm:"size:50"`
	Status           TicketStatus    `gorm:"size:50;default:open;not null"`
	Priority         TicketPriority  `gorm:"size:50;default:normal;not null"`
	LastActivityAt   int64
}

type TicketMessage struct {
	BaseModel
	TicketID     uuid.UUID `gorm:"index;not null"`
	AuthorUserID uuid.UUID `gorm:"index;not null"`
	Message      string    `gorm:"not null"`
	IsInternal   bool      `gorm:"default:false"` // internal notes visible to admins only

	Attachments []TicketAttachment `gorm:"foreignKey:MessageID"`
}

// TicketAttachment rides on a message; upload mechanics live in the
// storage layer, this is just the record.
type TicketAttachment struct {
	BaseModel
	MessageID   uuid.UUID `gorm:"index;not null"`
	TicketID    uuid.UUID `gorm:"index;not null"`
	Filename    string    `gorm:"size:255;not null"`
	StoragePath string    `gorm:"size:500;not null"`
	ContentType string    `gorm:"size:100;not null"`
	FileSize    int64     `gorm:"not null"`
	PublicURL   string    `gorm:"size:1000"`
}

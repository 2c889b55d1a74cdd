package db_models

// StripeEvent is the webhook idempotency ledger. A row's existence
// means "this event id has been applied — never reapply it". The
// unique index is the backstop against concurrent duplicate deliveries
// racing past the existence check.
type StripeEvent struct {
	BaseModel
	StripeEventID string `gorm:"size:255;uniqueIndex;not null"` // e.g. "evt_1Abc..."
	EventType     string `gorm:"size:255;not null"`             // e.g. "checkout.session.completed"
	ProcessedAt   int64  `gorm:"not null"`
}

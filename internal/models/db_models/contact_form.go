package db_models

import (
	"strings"

	"github.com/google/uuid"
)

// ContactFormConfig is the per-site configuration for the form relay.
// The access key is embedded in the client site's HTML form; the relay
// endpoint looks it up to decide where to forward the message.
type ContactFormConfig struct {
	BaseModel
	SiteID          uuid.UUID `gorm:"uniqueIndex;not null"`
	AccessKey       string    `gorm:"size:100;uniqueIndex;not null"`
	RecipientEmails string    `gorm:"not null"` // comma-separated
	IsEnabled       bool      `gorm:"default:true;not null"`
}

func (c *ContactFormConfig) RecipientList() []string {
	var out []string
	for _, e := range strings.Split(c.RecipientEmails, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

package response_models

import "github.com/cnichols1734/belvieu-digital/internal/models/db_models"

type TicketResponse struct {
	ID             string  `json:"id"`
	WorkspaceID    string  `json:"workspace_id"`
	SiteID         string  `json:"site_id"`
	Subject        string  `json:"subject"`
	Description    string  `json:"description"`
	Category       *string `json:"category"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	AssignedTo     *string `json:"assigned_to"`
	CreatedAt      int64   `json:"created_at"`
	LastActivityAt int64   `json:"last_activity_at"`
}

type AttachmentResponse struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
	PublicURL   string `json:"public_url"`
}

type TicketMessageResponse struct {
	ID          string               `json:"id"`
	AuthorID    string               `json:"author_id"`
	Message     string               `json:"message"`
	IsInternal  bool                 `json:"is_internal"`
	CreatedAt   int64                `json:"created_at"`
	Attachments []AttachmentResponse `json:"attachments"`
}

type TicketThreadResponse struct {
	Ticket   TicketResponse          `json:"ticket"`
	Messages []TicketMessageResponse `json:"messages"`
}

// UsageResponse reports completed content updates against the plan's
// monthly allowance. A null limit means unlimited.
type UsageResponse struct {
	WorkspaceID string `json:"workspace_id"`
	Used        int64  `json:"used"`
	Limit       *int   `json:"limit"`
}

func NewTicketResponse(t *db_models.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:             t.ID.String(),
		WorkspaceID:    t.WorkspaceID.String(),
		SiteID:         t.SiteID.String(),
		Subject:        t.Subject,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		CreatedAt:      t.CreatedAt,
		LastActivityAt: t.LastActivityAt,
	}
	if t.Category != nil {
		c := string(*t.Category)
		resp.Category = &c
	}
	if t.AssignedToUserID != nil {
		a := t.AssignedToUserID.String()
		resp.AssignedTo = &a
	}
	return resp
}

func NewTicketMessageResponse(m *db_models.TicketMessage) TicketMessageResponse {
	resp := TicketMessageResponse{
		ID:          m.ID.String(),
		AuthorID:    m.AuthorUserID.String(),
		Message:     m.Message,
		IsInternal:  m.IsInternal,
		CreatedAt:   m.CreatedAt,
		Attachments: make([]AttachmentResponse, 0, len(m.Attachments)),
	}
	for _, a := range m.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			ID:          a.ID.String(),
			Filename:    a.Filename,
			ContentType: a.ContentType,
			FileSize:    a.FileSize,
			PublicURL:   a.PublicURL,
		})
	}
	return resp
}

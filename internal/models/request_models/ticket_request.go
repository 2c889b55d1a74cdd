package request_models

type CreateTicketRequest struct {
	Subject     string  `json:"subject" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Category    *string `json:"category"`
}

type AttachmentPayload struct {
	Filename    string `json:"filename" binding:"required"`
	StoragePath string `json:"storage_path" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	FileSize    int64  `json:"file_size"`
	PublicURL   string `json:"public_url"`
}

type AddMessageRequest struct {
	Message     string              `json:"message"`
	IsInternal  bool                `json:"is_internal"`
	Attachments []AttachmentPayload `json:"attachments"`
}

type UpdateTicketStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AssignTicketRequest struct {
	// null unassigns
	AssigneeID *string `json:"assignee_id"`
}

type UpdateTicketCategoryRequest struct {
	Category *string `json:"category"`
}

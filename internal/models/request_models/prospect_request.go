package request_models

type ProspectRequest struct {
	BusinessName string `json:"business_name" binding:"required"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Source       string `json:"source"`
	SourceURL    string `json:"source_url"`
	Notes        string `json:"notes"`
	DemoURL      string `json:"demo_url"`
}

type ProspectStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ProspectActivityRequest struct {
	ActivityType string `json:"activity_type" binding:"required"`
	Note         string `json:"note" binding:"required"`
}

type ConvertProspectRequest struct {
	WorkspaceName string  `json:"workspace_name" binding:"required"`
	SiteSlug      string  `json:"site_slug" binding:"required"`
	DisplayName   string  `json:"display_name"`
	InviteEmail   *string `json:"invite_email"`
}

type GenerateInviteRequest struct {
	WorkspaceID string  `json:"workspace_id" binding:"required,uuid4"`
	SiteID      string  `json:"site_id" binding:"required,uuid4"`
	Email       *string `json:"email"`
}

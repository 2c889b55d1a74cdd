package response_models

import "github.com/cnichols1734/belvieu-digital/internal/models/db_models"

type ProspectResponse struct {
	ID           string  `json:"id"`
	BusinessName string  `json:"business_name"`
	ContactName  string  `json:"contact_name"`
	ContactEmail string  `json:"contact_email"`
	ContactPhone string  `json:"contact_phone"`
	Source       string  `json:"source"`
	SourceURL    string  `json:"source_url"`
	Notes        string  `json:"notes"`
	DemoURL      string  `json:"demo_url"`
	Status       string  `json:"status"`
	WorkspaceID  *string `json:"workspace_id"`
	CreatedAt    int64   `json:"created_at"`
}

type ProspectActivityResponse struct {
	ID           string  `json:"id"`
	ActivityType string  `json:"activity_type"`
	Note         string  `json:"note"`
	ActorUserID  *string `json:"actor_user_id"`
	CreatedAt    int64   `json:"created_at"`
}

type ProspectDetailResponse struct {
	Prospect   ProspectResponse           `json:"prospect"`
	Activities []ProspectActivityResponse `json:"activities"`
}

type InviteResponse struct {
	ID        string  `json:"id"`
	Token     string  `json:"token"`
	URL       string  `json:"url"`
	Email     *string `json:"email"`
	ExpiresAt int64   `json:"expires_at"`
	Used      bool    `json:"used"`
}

type ConvertProspectResponse struct {
	WorkspaceID string         `json:"workspace_id"`
	SiteID      string         `json:"site_id"`
	SiteSlug    string         `json:"site_slug"`
	Invite      InviteResponse `json:"invite"`
}

func NewProspectResponse(p *db_models.Prospect) ProspectResponse {
	resp := ProspectResponse{
		ID:           p.ID.String(),
		BusinessName: p.BusinessName,
		ContactName:  p.ContactName,
		ContactEmail: p.ContactEmail,
		ContactPhone: p.ContactPhone,
		Source:       p.Source,
		SourceURL:    p.SourceURL,
		Notes:        p.Notes,
		DemoURL:      p.DemoURL,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
	}
	if p.WorkspaceID != nil {
		w := p.WorkspaceID.String()
		resp.WorkspaceID = &w
	}
	return resp
}

func NewProspectActivityResponse(a *db_models.ProspectActivity) ProspectActivityResponse {
	resp := ProspectActivityResponse{
		ID:           a.ID.String(),
		ActivityType: string(a.ActivityType),
		Note:         a.Note,
		CreatedAt:    a.CreatedAt,
	}
	if a.ActorUserID != nil {
		u := a.ActorUserID.String()
		resp.ActorUserID = &u
	}
	return resp
}

func NewInviteResponse(inv *db_models.WorkspaceInvite, baseURL string) InviteResponse {
	return InviteResponse{
		ID:        inv.ID.String(),
		Token:     inv.Token,
		URL:       baseURL + "/register?invite=" + inv.Token,
		Email:     inv.Email,
		ExpiresAt: inv.ExpiresAt,
		Used:      inv.IsUsed(),
	}
}

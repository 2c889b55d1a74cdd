package response_models

import "github.com/cnichols1734/belvieu-digital/internal/models/db_models"

type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

type BillingStatusResponse struct {
	Active            bool   `json:"active"`
	AccessLevel       string `json:"access_level"`
	Plan              string `json:"plan,omitempty"`
	Status            string `json:"status,omitempty"`
	CurrentPeriodEnd  *int64 `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	SiteStatus        string `json:"site_status"`
}

func NewBillingStatusResponse(accessLevel string, sub *db_models.BillingSubscription, site *db_models.Site) BillingStatusResponse {
	resp := BillingStatusResponse{
		Active:      accessLevel == "full",
		AccessLevel: accessLevel,
	}
	if sub != nil {
		resp.Plan = sub.Plan
		resp.Status = string(sub.Status)
		resp.CurrentPeriodEnd = sub.CurrentPeriodEnd
		resp.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	}
	if site != nil {
		resp.SiteStatus = string(site.Status)
	}
	return resp
}

package controllers

import (
	"net/http"

	"github.com/cnichols1734/belvieu-digital/internal/models/request_models"
	"github.com/cnichols1734/belvieu-digital/internal/models/response_models"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/internal/services"
	"github.com/cnichols1734/belvieu-digital/pkg/middleware"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BillingController struct {
	stripeService services.StripeServiceInterface
	entitlements  services.EntitlementServiceInterface
	accountRepo   repositories.AccountRepository
}

func NewBillingController(
	stripeService services.StripeServiceInterface,
	entitlements services.EntitlementServiceInterface,
	accountRepo repositories.AccountRepository,
) *BillingController {
	return &BillingController{
		stripeService: stripeService,
		entitlements:  entitlements,
		accountRepo:   accountRepo,
	}
}

// CreateCheckout godoc
// @Summary Start a subscription checkout for the current workspace
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.CreateCheckoutRequest true "Plan selection"
// @Success 200 {object} utils.APIResponse
// @Router /sites/{siteSlug}/billing/checkout [post]
func (b *BillingController) CreateCheckout(c *gin.Context) {
	var req request_models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	tenant := middleware.GetTenantContext(c)
	if tenant == nil {
		utils.RespondError(c, http.StatusInternalServerError, "Tenant context missing")
		return
	}

	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	user, err := b.accountRepo.FindByID(c.Request.Context(), userID)
	if err != nil || user == nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	url, err := b.stripeService.CreateCheckoutSession(c.Request.Context(), tenant.Workspace.ID, user.Email, req.Plan)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.CheckoutSessionResponse{URL: url}, "Checkout session created")
}

// CreatePortal godoc
// @Summary Open the processor's billing portal for the current workspace
// @Tags Billing
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /sites/{siteSlug}/billing/portal [post]
func (b *BillingController) CreatePortal(c *gin.Context) {
	tenant := middleware.GetTenantContext(c)
	if tenant == nil {
		utils.RespondError(c, http.StatusInternalServerError, "Tenant context missing")
		return
	}

	url, err := b.stripeService.CreatePortalSession(c.Request.Context(), tenant.Workspace.ID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.CheckoutSessionResponse{URL: url}, "Portal session created")
}

// Status returns subscription state and the derived access level for
// the current workspace. Passing ?session_id= pulls the checkout
// session from the processor first, covering the window where the
// success redirect lands before the webhook does.
func (b *BillingController) Status(c *gin.Context) {
	tenant := middleware.GetTenantContext(c)
	if tenant == nil {
		utils.RespondError(c, http.StatusInternalServerError, "Tenant context missing")
		return
	}

	if sessionID := c.Query("session_id"); sessionID != "" {
		if err := b.stripeService.SyncFromCheckoutSession(c.Request.Context(), sessionID); err != nil {
			utils.HandleServiceError(c, err)
			return
		}
		refreshed, err := b.entitlements.Resolve(c.Request.Context(), tenant.Site.Slug)
		if err != nil {
			utils.HandleServiceError(c, err)
			return
		}
		tenant = refreshed
	}

	utils.RespondSuccess(c, response_models.NewBillingStatusResponse(
		string(tenant.AccessLevel), tenant.Subscription, tenant.Site,
	), "Billing status")
}

// SyncCheckout is the success-redirect fallback: the frontend posts the
// checkout session id when the webhook hasn't arrived yet.
func (b *BillingController) SyncCheckout(c *gin.Context) {
	var req request_models.SyncCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := b.stripeService.SyncFromCheckoutSession(c.Request.Context(), req.SessionID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Subscription synced")
}

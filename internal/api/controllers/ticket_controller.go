package controllers

import (
	"net/http"
	"time"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/models/request_models"
	"github.com/cnichols1734/belvieu-digital/internal/models/response_models"
	"github.com/cnichols1734/belvieu-digital/internal/services"
	"github.com/cnichols1734/belvieu-digital/pkg/middleware"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TicketController struct {
	ticketService services.TicketServiceInterface
}

func NewTicketController(ticketService services.TicketServiceInterface) *TicketController {
	return &TicketController{ticketService: ticketService}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid session")
		return uuid.Nil, false
	}
	return id, true
}

// Create godoc
// @Summary Open a support ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param request body request_models.CreateTicketRequest true "Ticket payload"
// @Success 200 {object} utils.APIResponse
// @Router /sites/{siteSlug}/tickets [post]
func (t *TicketController) Create(c *gin.Context) {
	var req request_models.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	tenant := middleware.GetTenantContext(c)
	if tenant == nil {
		utils.RespondError(c, http.StatusInternalServerError, "Tenant context missing")
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ticket, err := t.ticketService.Create(c.Request.Context(),
		tenant.Workspace.ID, tenant.Site.ID, userID,
		req.Subject, req.Description, req.Category)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewTicketResponse(ticket), "Ticket created")
}

// List returns the workspace's tickets, optionally filtered by status or
// category query params.
func (t *TicketController) List(c *gin.Context) {
	tenant := middleware.GetTenantContext(c)
	if tenant == nil {
		utils.RespondError(c, http.StatusInternalServerError, "Tenant context missing")
		return
	}

	filter := ticketFilterFromQuery(c)
	tickets, err := t.ticketService.ListTickets(c.Request.Context(), tenant.Workspace.ID, filter)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	out := make([]response_models.TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, response_models.NewTicketResponse(&tickets[i]))
	}
	utils.RespondSuccess(c, out, "Tickets")
}

func ticketFilterFromQuery(c *gin.Context) services.TicketListFilter {
	var filter services.TicketListFilter
	if s := c.Query("status"); s != "" {
		status := db_models.TicketStatus(s)
		filter.Status = &status
	}
	if s := c.Query("category"); s != "" {
		category := db_models.TicketCategory(s)
		filter.Category = &category
	}
	return filter
}

// GetThread godoc
// @Summary Fetch a ticket with its message history
// @Tags Tickets
// @Produce json
// @Param ticketID path string true "Ticket id"
// @Success 200 {object} utils.APIResponse
// @Router /sites/{siteSlug}/tickets/{ticketID} [get]
func (t *TicketController) GetThread(c *gin.Context) {
	tenant := middleware.GetTenantContext(c)
	if tenant == nil {
		utils.RespondError(c, http.StatusInternalServerError, "Tenant context missing")
		return
	}
	ticketID, err := uuid.Parse(c.Param("ticketID"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid ticket id")
		return
	}

	// Internal notes are staff-only, even inside the member's own workspace.
	includeInternal := c.GetBool("is_admin")
	thread, err := t.ticketService.GetThread(c.Request.Context(), tenant.Workspace.ID, ticketID, includeInternal)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, newThreadResponse(thread), "Ticket thread")
}

func newThreadResponse(thread *services.TicketThread) response_models.TicketThreadResponse {
	resp := response_models.TicketThreadResponse{
		Ticket:   response_models.NewTicketResponse(&thread.Ticket),
		Messages: make([]response_models.TicketMessageResponse, 0, len(thread.Messages)),
	}
	for i := range thread.Messages {
		resp.Messages = append(resp.Messages, response_models.NewTicketMessageResponse(&thread.Messages[i]))
	}
	return resp
}

// AddMessage godoc
// @Summary Reply on a ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param ticketID path string true "Ticket id"
// @Param request body request_models.AddMessageRequest true "Message payload"
// @Success 200 {object} utils.APIResponse
// @Router /sites/{siteSlug}/tickets/{ticketID}/messages [post]
func (t *TicketController) AddMessage(c *gin.Context) {
	var req request_models.AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	tenant := middleware.GetTenantContext(c)
	if tenant == nil {
		utils.RespondError(c, http.StatusInternalServerError, "Tenant context missing")
		return
	}
	ticketID, err := uuid.Parse(c.Param("ticketID"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid ticket id")
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	attachments := make([]services.AttachmentInput, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, services.AttachmentInput{
			Filename:    a.Filename,
			StoragePath: a.StoragePath,
			ContentType: a.ContentType,
			FileSize:    a.FileSize,
			PublicURL:   a.PublicURL,
		})
	}

	msg, err := t.ticketService.AddMessage(c.Request.Context(),
		tenant.Workspace.ID, ticketID, userID,
		req.Message, req.IsInternal, c.GetBool("is_admin"), attachments)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewTicketMessageResponse(msg), "Message added")
}

// UpdateStatus lets workspace members move a ticket along its allowed
// transitions, most commonly closing it.
func (t *TicketController) UpdateStatus(c *gin.Context) {
	var req request_models.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	tenant := middleware.GetTenantContext(c)
	if tenant == nil {
		utils.RespondError(c, http.StatusInternalServerError, "Tenant context missing")
		return
	}
	ticketID, err := uuid.Parse(c.Param("ticketID"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid ticket id")
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ticket, err := t.ticketService.UpdateStatus(c.Request.Context(),
		tenant.Workspace.ID, ticketID, userID, db_models.TicketStatus(req.Status))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewTicketResponse(ticket), "Status updated")
}

// Usage reports this month's completed content updates against the
// workspace's plan allowance.
func (t *TicketController) Usage(c *gin.Context) {
	tenant := middleware.GetTenantContext(c)
	if tenant == nil {
		utils.RespondError(c, http.StatusInternalServerError, "Tenant context missing")
		return
	}

	stat, err := t.ticketService.MonthlyUsage(c.Request.Context(), tenant.Workspace.ID, time.Now())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.UsageResponse{
		WorkspaceID: tenant.Workspace.ID.String(),
		Used:        stat.Used,
		Limit:       stat.Limit,
	}, "Monthly update usage")
}

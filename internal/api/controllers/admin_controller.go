package controllers

import (
	"net/http"
	"time"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/models/request_models"
	"github.com/cnichols1734/belvieu-digital/internal/models/response_models"
	"github.com/cnichols1734/belvieu-digital/internal/services"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminController serves the agency-side back office: prospect pipeline,
// invite generation and cross-workspace ticket operations. Every route is
// behind the admin middleware.
type AdminController struct {
	prospectService services.ProspectServiceInterface
	inviteService   services.InviteServiceInterface
	ticketService   services.TicketServiceInterface
	appCfg          services.AppConfig
}

func NewAdminController(
	prospectService services.ProspectServiceInterface,
	inviteService services.InviteServiceInterface,
	ticketService services.TicketServiceInterface,
	appCfg services.AppConfig,
) *AdminController {
	return &AdminController{
		prospectService: prospectService,
		inviteService:   inviteService,
		ticketService:   ticketService,
		appCfg:          appCfg,
	}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (a *AdminController) CreateProspect(c *gin.Context) {
	var req request_models.ProspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	prospect, err := a.prospectService.Create(c.Request.Context(), prospectInput(req), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewProspectResponse(prospect), "Prospect created")
}

func prospectInput(req request_models.ProspectRequest) services.ProspectInput {
	return services.ProspectInput{
		BusinessName: req.BusinessName,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Source:       req.Source,
		SourceURL:    req.SourceURL,
		Notes:        req.Notes,
		DemoURL:      req.DemoURL,
	}
}

func (a *AdminController) UpdateProspect(c *gin.Context) {
	var req request_models.ProspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	id, ok := pathUUID(c, "prospectID")
	if !ok {
		return
	}

	prospect, err := a.prospectService.Update(c.Request.Context(), id, prospectInput(req))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewProspectResponse(prospect), "Prospect updated")
}

func (a *AdminController) ListProspects(c *gin.Context) {
	var status *db_models.ProspectStatus
	if s := c.Query("status"); s != "" {
		v := db_models.ProspectStatus(s)
		status = &v
	}

	prospects, err := a.prospectService.List(c.Request.Context(), status)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	out := make([]response_models.ProspectResponse, 0, len(prospects))
	for i := range prospects {
		out = append(out, response_models.NewProspectResponse(&prospects[i]))
	}
	utils.RespondSuccess(c, out, "Prospects")
}

func (a *AdminController) GetProspect(c *gin.Context) {
	id, ok := pathUUID(c, "prospectID")
	if !ok {
		return
	}

	prospect, activities, err := a.prospectService.Get(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	detail := response_models.ProspectDetailResponse{
		Prospect:   response_models.NewProspectResponse(prospect),
		Activities: make([]response_models.ProspectActivityResponse, 0, len(activities)),
	}
	for i := range activities {
		detail.Activities = append(detail.Activities, response_models.NewProspectActivityResponse(&activities[i]))
	}
	utils.RespondSuccess(c, detail, "Prospect detail")
}

func (a *AdminController) UpdateProspectStatus(c *gin.Context) {
	var req request_models.ProspectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	id, ok := pathUUID(c, "prospectID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := a.prospectService.UpdateStatus(c.Request.Context(), id, db_models.ProspectStatus(req.Status), userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Status updated")
}

func (a *AdminController) AddProspectActivity(c *gin.Context) {
	var req request_models.ProspectActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	id, ok := pathUUID(c, "prospectID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	activity, err := a.prospectService.AddActivity(c.Request.Context(), id,
		db_models.ActivityType(req.ActivityType), req.Note, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewProspectActivityResponse(activity), "Activity logged")
}

// ConvertProspect godoc
// @Summary Provision a workspace, site and invite for a prospect
// @Tags Admin
// @Accept json
// @Produce json
// @Param prospectID path string true "Prospect id"
// @Param request body request_models.ConvertProspectRequest true "Conversion payload"
// @Success 200 {object} utils.APIResponse
// @Router /admin/prospects/{prospectID}/convert [post]
func (a *AdminController) ConvertProspect(c *gin.Context) {
	var req request_models.ConvertProspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	id, ok := pathUUID(c, "prospectID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := a.prospectService.Convert(c.Request.Context(), id,
		req.WorkspaceName, req.SiteSlug, req.DisplayName, req.InviteEmail, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.ConvertProspectResponse{
		WorkspaceID: result.Workspace.ID.String(),
		SiteID:      result.Site.ID.String(),
		SiteSlug:    result.Site.Slug,
		Invite:      response_models.NewInviteResponse(result.Invite, a.appCfg.BaseURL),
	}, "Prospect converted")
}

func (a *AdminController) GenerateInvite(c *gin.Context) {
	var req request_models.GenerateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid workspace_id")
		return
	}
	siteID, err := uuid.Parse(req.SiteID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid site_id")
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	invite, err := a.inviteService.Generate(c.Request.Context(), workspaceID, siteID, req.Email, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewInviteResponse(invite, a.appCfg.BaseURL), "Invite created")
}

func (a *AdminController) ListAllTickets(c *gin.Context) {
	tickets, err := a.ticketService.ListAllTickets(c.Request.Context(), ticketFilterFromQuery(c))
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

func (a *AdminController) GetTicketThread(c *gin.Context) {
	id, ok := pathUUID(c, "ticketID")
	if !ok {
		return
	}

	thread, err := a.ticketService.GetThread(c.Request.Context(), services.AdminScope, id, true)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, newThreadResponse(thread), "Ticket thread")
}

func (a *AdminController) AddTicketMessage(c *gin.Context) {
	var req request_models.AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	id, ok := pathUUID(c, "ticketID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	attachments := make([]services.AttachmentInput, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, services.AttachmentInput{
			Filename:    att.Filename,
			StoragePath: att.StoragePath,
			ContentType: att.ContentType,
			FileSize:    att.FileSize,
			PublicURL:   att.PublicURL,
		})
	}

	msg, err := a.ticketService.AddMessage(c.Request.Context(),
		services.AdminScope, id, userID, req.Message, req.IsInternal, true, attachments)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewTicketMessageResponse(msg), "Message added")
}

func (a *AdminController) UpdateTicketStatus(c *gin.Context) {
	var req request_models.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	id, ok := pathUUID(c, "ticketID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ticket, err := a.ticketService.UpdateStatus(c.Request.Context(),
		services.AdminScope, id, userID, db_models.TicketStatus(req.Status))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, response_models.NewTicketResponse(ticket), "Status updated")
}

func (a *AdminController) AssignTicket(c *gin.Context) {
	var req request_models.AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	id, ok := pathUUID(c, "ticketID")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var assigneeID *uuid.UUID
	if req.AssigneeID != nil {
		parsed, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Invalid assignee_id")
			return
		}
		assigneeID = &parsed
	}

	if err := a.ticketService.Assign(c.Request.Context(), id, userID, assigneeID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Ticket assignment updated")
}

func (a *AdminController) UpdateTicketCategory(c *gin.Context) {
	var req request_models.UpdateTicketCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	id, ok := pathUUID(c, "ticketID")
	if !ok {
		return
	}

	if err := a.ticketService.UpdateCategory(c.Request.Context(), services.AdminScope, id, req.Category); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Category updated")
}

// UsageDashboard aggregates this month's ticket counts across every
// workspace in one call.
func (a *AdminController) UsageDashboard(c *gin.Context) {
	usage, err := a.ticketService.MonthlyUsageBulk(c.Request.Context(), time.Now())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	out := make([]response_models.UsageResponse, 0, len(usage))
	for workspaceID, stat := range usage {
		out = append(out, response_models.UsageResponse{
			WorkspaceID: workspaceID.String(),
			Used:        stat.Used,
			Limit:       stat.Limit,
		})
	}
	utils.RespondSuccess(c, out, "Monthly usage by workspace")
}

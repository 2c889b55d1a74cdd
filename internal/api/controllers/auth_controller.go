package controllers

import (
	"net/http"

	"github.com/cnichols1734/belvieu-digital/internal/models/request_models"
	"github.com/cnichols1734/belvieu-digital/internal/models/response_models"
	"github.com/cnichols1734/belvieu-digital/internal/services"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	accountService services.AccountServiceInterface
	inviteService  services.InviteServiceInterface
}

func NewAuthController(accountService services.AccountServiceInterface, inviteService services.InviteServiceInterface) *AuthController {
	return &AuthController{
		accountService: accountService,
		inviteService:  inviteService,
	}
}

// Register godoc
// @Summary Register through an invite link
// @Description Create an account and join the workspace the invite belongs to
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.RegisterRequest true "Registration payload"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /auth/register [post]
func (a *AuthController) Register(c *gin.Context) {
	var req request_models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	result, err := a.accountService.Register(c.Request.Context(), req.InviteToken, req.Email, req.Password, req.FullName)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.AuthResponse{
		Token: result.Token,
		User:  response_models.NewUserResponse(result.User),
	}, "Account created successfully")
}

// Login godoc
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request_models.LoginRequest true "Login payload"
// @Success 200 {object} utils.APIResponse
// @Router /auth/login [post]
func (a *AuthController) Login(c *gin.Context) {
	var req request_models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	result, err := a.accountService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.AuthResponse{
		Token: result.Token,
		User:  response_models.NewUserResponse(result.User),
	}, "Login successful")
}

// CheckInvite godoc
// @Summary Validate an invite token before showing the registration form
// @Tags Auth
// @Produce json
// @Param token path string true "Invite token"
// @Success 200 {object} utils.APIResponse
// @Router /auth/invites/{token} [get]
func (a *AuthController) CheckInvite(c *gin.Context) {
	invite, err := a.inviteService.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, gin.H{
		"workspace_id": invite.WorkspaceID.String(),
		"email":        invite.Email,
		"expires_at":   invite.ExpiresAt,
	}, "Invite is valid")
}

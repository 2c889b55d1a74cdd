package controllers

import (
	"net/http"
	"strings"

	"github.com/cnichols1734/belvieu-digital/internal/models/request_models"
	"github.com/cnichols1734/belvieu-digital/internal/services"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"github.com/gin-gonic/gin"
)

// FormRelayController is the public endpoint published sites post their
// contact forms to. It accepts JSON and classic form encodings, and
// optionally redirects browsers back to the site.
type FormRelayController struct {
	formRelayService services.FormRelayServiceInterface
}

func NewFormRelayController(formRelayService services.FormRelayServiceInterface) *FormRelayController {
	return &FormRelayController{formRelayService: formRelayService}
}

// Submit godoc
// @Summary Relay a contact form submission
// @Tags Forms
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param accessKey path string true "Form access key"
// @Success 200 {object} utils.APIResponse
// @Router /api/forms/{accessKey} [post]
func (f *FormRelayController) Submit(c *gin.Context) {
	var req request_models.ContactFormRequest

	contentType := c.ContentType()
	var err error
	if strings.Contains(contentType, "application/json") {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	submitErr := f.formRelayService.Submit(c.Request.Context(), c.Param("accessKey"), services.FormSubmission{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Message:  req.Message,
		BotField: req.BotField,
	})
	if submitErr != nil {
		utils.HandleServiceError(c, submitErr)
		return
	}

	// Plain HTML forms get bounced back to the site; fetch callers get JSON.
	if req.Redirect != "" && strings.HasPrefix(req.Redirect, "http") {
		c.Redirect(http.StatusSeeOther, req.Redirect)
		return
	}
	utils.RespondSuccess(c, nil, "Message sent")
}

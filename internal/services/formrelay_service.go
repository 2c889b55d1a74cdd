package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FormSubmission is one contact form post from a published site.
// BotField is a honeypot: hidden on the real form, so any value means a
// bot filled it in.
type FormSubmission struct {
	Name     string
	Email    string
	Phone    string
	Message  string
	BotField string
}

const (
	maxFormFieldLen   = 255
	maxFormMessageLen = 5000
)

type FormRelayServiceInterface interface {
	Submit(ctx context.Context, accessKey string, submission FormSubmission) error
}

type formRelayService struct {
	db       *gorm.DB
	formRepo repositories.ContactFormRepository
	mail     IMailService
}

func NewFormRelayService(db *gorm.DB, formRepo repositories.ContactFormRepository, mail IMailService) FormRelayServiceInterface {
	return &formRelayService{db: db, formRepo: formRepo, mail: mail}
}

// Submit relays a form post to the workspace's configured recipients.
// Honeypot hits return success without sending anything, so bots get no
// signal they were caught.
func (f *formRelayService) Submit(ctx context.Context, accessKey string, submission FormSubmission) error {
	config, err := f.formRepo.FindByAccessKey(ctx, accessKey)
	if err != nil {
		return err
	}
	if config == nil {
		return utils.ErrFormKeyInvalid
	}
	if !config.IsEnabled {
		return utils.ErrFormDisabled
	}

	if submission.BotField != "" {
		zap.L().Info("honeypot triggered, dropping submission",
			zap.String("site_id", config.SiteID.String()))
		return nil
	}

	message := utils.StripMarkup(submission.Message)
	if message == "" {
		return utils.Validationf("message is required")
	}
	if len(message) > maxFormMessageLen {
		return utils.Validationf("message is too long")
	}
	name := utils.StripMarkup(submission.Name)
	if len(name) > maxFormFieldLen {
		return utils.Validationf("name is too long")
	}
	email := strings.TrimSpace(submission.Email)
	if len(email) > maxFormFieldLen {
		return utils.Validationf("email is too long")
	}
	if email != "" && !strings.Contains(email, "@") {
		return utils.Validationf("email address looks invalid")
	}

	// A paused site keeps its form markup, but relay stops with it.
	var site db_models.Site
	if err := f.db.WithContext(ctx).Where("id = ?", config.SiteID).First(&site).Error; err != nil {
		return err
	}
	if site.Status == db_models.SiteStatusPaused || site.Status == db_models.SiteStatusCancelled {
		return utils.ErrFormDisabled
	}

	recipients := config.RecipientList()
	if len(recipients) == 0 {
		zap.L().Warn("contact form has no recipients configured",
			zap.String("site_id", config.SiteID.String()))
		return nil
	}

	intro := fmt.Sprintf("New message from the %s contact form.", site.DisplayName)
	if name != "" {
		intro += fmt.Sprintf(" From: %s.", name)
	}
	if submission.Phone != "" {
		intro += fmt.Sprintf(" Phone: %s.", strings.TrimSpace(submission.Phone))
	}
	intro += "\n\n" + message

	return f.mail.SendSync(Mail{
		To:      recipients,
		ReplyTo: email,
		Subject: fmt.Sprintf("New contact form message (%s)", site.Slug),
		Intro:   intro,
	})
}

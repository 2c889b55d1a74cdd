package mail_fx

import (
	"os"
	"strconv"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cnichols1734/belvieu-digital/internal/services"
)

var Module = fx.Provide(provideMailService)

func provideMailService(appCfg services.AppConfig) services.IMailService {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	cfg := services.SMTPConfig{
		Host:       os.Getenv("SMTP_HOST"),
		Port:       port,
		Username:   os.Getenv("SMTP_USERNAME"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		From:       os.Getenv("SMTP_FROM"),
		FromName:   "Belvieu Digital",
		UseSSL:     port == 465,
		RequireTLS: true,

		AppName:    "Belvieu Digital",
		AppBaseURL: appCfg.BaseURL,
	}

	mailService, err := services.NewSMTPMailService(cfg)
	if err != nil {
		zap.L().Fatal("failed to initialize SMTP mail service", zap.Error(err))
	}
	return mailService
}

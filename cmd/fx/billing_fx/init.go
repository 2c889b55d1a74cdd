package billing_fx

import (
	"os"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/api/controllers"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/internal/services"
)

var Module = fx.Provide(
	provideStripeConfig, provideProcessorClient, provideStripeService, provideBillingController, provideWebhookController)

func provideStripeConfig(appCfg services.AppConfig) services.StripeConfig {
	return services.StripeConfig{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		BasicPriceID:  os.Getenv("STRIPE_PRICE_BASIC"),
		SetupPriceID:  os.Getenv("STRIPE_PRICE_SETUP"),
		ProPriceID:    os.Getenv("STRIPE_PRICE_PRO"),
		AppBaseURL:    appCfg.BaseURL,
	}
}

func provideProcessorClient(cfg services.StripeConfig) services.ProcessorClient {
	return services.NewStripeProcessorClient(cfg)
}

func provideStripeService(db *gorm.DB, cfg services.StripeConfig, client services.ProcessorClient, mail services.IMailService) services.StripeServiceInterface {
	return services.NewStripeService(db, cfg, client, mail)
}

func provideBillingController(
	stripeService services.StripeServiceInterface,
	entitlements services.EntitlementServiceInterface,
	accountRepo repositories.AccountRepository,
) *controllers.BillingController {
	return controllers.NewBillingController(stripeService, entitlements, accountRepo)
}

func provideWebhookController(stripeService services.StripeServiceInterface, cfg services.StripeConfig) *controllers.WebhookController {
	return controllers.NewWebhookController(stripeService, cfg)
}

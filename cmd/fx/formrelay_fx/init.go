package formrelay_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/api/controllers"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/internal/services"
)

var Module = fx.Provide(
	provideContactFormRepo, provideFormRelayService, provideFormRelayController)

func provideContactFormRepo(db *gorm.DB) repositories.ContactFormRepository {
	return repositories.NewContactFormRepository(db)
}

func provideFormRelayService(db *gorm.DB, formRepo repositories.ContactFormRepository, mail services.IMailService) services.FormRelayServiceInterface {
	return services.NewFormRelayService(db, formRepo, mail)
}

func provideFormRelayController(formRelayService services.FormRelayServiceInterface) *controllers.FormRelayController {
	return controllers.NewFormRelayController(formRelayService)
}

package admin_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/api/controllers"
	"github.com/cnichols1734/belvieu-digital/internal/services"
)

var Module = fx.Provide(
	provideProspectService, provideAdminController)

func provideProspectService(db *gorm.DB, invites services.InviteServiceInterface) services.ProspectServiceInterface {
	return services.NewProspectService(db, invites)
}

func provideAdminController(
	prospectService services.ProspectServiceInterface,
	inviteService services.InviteServiceInterface,
	ticketService services.TicketServiceInterface,
	appCfg services.AppConfig,
) *controllers.AdminController {
	return controllers.NewAdminController(prospectService, inviteService, ticketService, appCfg)
}

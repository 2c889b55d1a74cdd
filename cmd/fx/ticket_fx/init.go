package ticket_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/api/controllers"
	"github.com/cnichols1734/belvieu-digital/internal/services"
)

var Module = fx.Provide(
	provideTicketService, provideTicketController)

func provideTicketService(db *gorm.DB) services.TicketServiceInterface {
	return services.NewTicketService(db)
}

func provideTicketController(ticketService services.TicketServiceInterface) *controllers.TicketController {
	return controllers.NewTicketController(ticketService)
}

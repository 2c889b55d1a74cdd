package account_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/api/controllers"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/internal/services"
)

var Module = fx.Provide(
	provideAccountRepo, provideInviteRepo, provideInviteService, provideAccountService, provideAuthController)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideInviteRepo(db *gorm.DB) repositories.InviteRepository {
	return repositories.NewInviteRepository(db)
}

func provideInviteService(db *gorm.DB, inviteRepo repositories.InviteRepository) services.InviteServiceInterface {
	return services.NewInviteService(db, inviteRepo)
}

func provideAccountService(db *gorm.DB, accountRepo repositories.AccountRepository, invites services.InviteServiceInterface) services.AccountServiceInterface {
	return services.NewAccountService(db, accountRepo, invites)
}

func provideAuthController(accountService services.AccountServiceInterface, inviteService services.InviteServiceInterface) *controllers.AuthController {
	return controllers.NewAuthController(accountService, inviteService)
}

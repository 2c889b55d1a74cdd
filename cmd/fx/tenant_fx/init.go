package tenant_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/internal/services"
)

var Module = fx.Provide(
	provideWorkspaceRepo, provideSiteRepo, provideSubscriptionRepo, provideEntitlementService)

func provideWorkspaceRepo(db *gorm.DB) repositories.WorkspaceRepository {
	return repositories.NewWorkspaceRepository(db)
}

func provideSiteRepo(db *gorm.DB) repositories.SiteRepository {
	return repositories.NewSiteRepository(db)
}

func provideSubscriptionRepo(db *gorm.DB) repositories.SubscriptionRepository {
	return repositories.NewSubscriptionRepository(db)
}

func provideEntitlementService(
	siteRepo repositories.SiteRepository,
	workspaceRepo repositories.WorkspaceRepository,
	subRepo repositories.SubscriptionRepository,
) services.EntitlementServiceInterface {
	return services.NewEntitlementService(siteRepo, workspaceRepo, subRepo)
}

package services

import (
	"context"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
)

type AccessLevel string

const (
	AccessFull      AccessLevel = "full"      // active or trialing
	AccessReadOnly  AccessLevel = "read_only" // past_due grace period
	AccessBlocked   AccessLevel = "blocked"   // canceled, unpaid, incomplete_expired
	AccessSubscribe AccessLevel = "subscribe" // no subscription exists yet
)

// TenantContext is the request-scoped tenant resolution result. It is
// computed once per tenant request and threaded through explicitly —
// handlers read it from the request context rather than any global.
type TenantContext struct {
	Workspace    *db_models.Workspace
	Site         *db_models.Site
	Subscription *db_models.BillingSubscription // nil when none exists
	AccessLevel  AccessLevel
}

// AccessLevelFor maps subscription state to an access level. Total over
// every status, known or not: anything unrecognized is blocked.
func AccessLevelFor(sub *db_models.BillingSubscription) AccessLevel {
	if sub == nil {
		return AccessSubscribe
	}
	switch sub.Status {
	case db_models.SubStatusActive, db_models.SubStatusTrialing:
		return AccessFull
	case db_models.SubStatusPastDue:
		return AccessReadOnly
	default:
		return AccessBlocked
	}
}

type EntitlementServiceInterface interface {
	Resolve(ctx context.Context, siteSlug string) (*TenantContext, error)
}

type EntitlementService struct {
	siteRepo      repositories.SiteRepository
	workspaceRepo repositories.WorkspaceRepository
	subRepo       repositories.SubscriptionRepository
}

func NewEntitlementService(
	siteRepo repositories.SiteRepository,
	workspaceRepo repositories.WorkspaceRepository,
	subRepo repositories.SubscriptionRepository,
) EntitlementServiceInterface {
	return &EntitlementService{
		siteRepo:      siteRepo,
		workspaceRepo: workspaceRepo,
		subRepo:       subRepo,
	}
}

// Resolve loads the site by slug, its workspace, and the latest
// subscription row, and computes the access level. Read-only: this
// path never mutates subscription state.
func (e *EntitlementService) Resolve(ctx context.Context, siteSlug string) (*TenantContext, error) {
	site, err := e.siteRepo.FindBySlug(ctx, siteSlug)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if site == nil {
		return nil, utils.ErrSiteNotFound
	}

	workspace, err := e.workspaceRepo.FindByID(ctx, site.WorkspaceID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if workspace == nil {
		return nil, utils.ErrWorkspaceNotFound
	}

	sub, err := e.subRepo.FindLatestByWorkspace(ctx, workspace.ID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	return &TenantContext{
		Workspace:    workspace,
		Site:         site,
		Subscription: sub,
		AccessLevel:  AccessLevelFor(sub),
	}, nil
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/internal/services"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
)

const tenantContextKey = "tenant_context"

// TenantMiddleware resolves the :siteSlug route param into a
// TenantContext and attaches it to the request. Runs once per tenant
// request, before any handler logic.
func TenantMiddleware(entitlement services.EntitlementServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("siteSlug")
		if slug == "" {
			utils.RespondError(c, http.StatusNotFound, "Not found")
			c.Abort()
			return
		}

		tc, err := entitlement.Resolve(c.Request.Context(), slug)
		if err != nil {
			utils.HandleServiceError(c, err)
			c.Abort()
			return
		}

		c.Set(tenantContextKey, tc)
		c.Next()
	}
}

// GetTenantContext returns the TenantContext set by TenantMiddleware.
func GetTenantContext(c *gin.Context) *services.TenantContext {
	if v, ok := c.Get(tenantContextKey); ok {
		if tc, ok := v.(*services.TenantContext); ok {
			return tc
		}
	}
	return nil
}

// MembershipRequiredMiddleware enforces the dual check: the
// authenticated user must be a member of the resolved workspace.
// Independent of access level — a non-member is forbidden regardless of
// subscription state.
func MembershipRequiredMiddleware(workspaceRepo repositories.WorkspaceRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := GetTenantContext(c)
		if tc == nil {
			utils.RespondError(c, http.StatusNotFound, "Not found")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(c.GetString("user_id"))
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		member, err := workspaceRepo.FindMembership(c.Request.Context(), userID, tc.Workspace.ID)
		if err != nil {
			utils.HandleServiceError(c, utils.ErrDatabaseError)
			c.Abort()
			return
		}
		if member == nil {
			utils.RespondError(c, http.StatusForbidden, "Forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ReadAccessRequiredMiddleware gates non-billing tenant routes. Members
// with a lapsed subscription keep read access; blocked and not-yet
// subscribed workspaces only reach the billing routes.
func ReadAccessRequiredMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := GetTenantContext(c)
		if tc == nil {
			utils.RespondError(c, http.StatusNotFound, "Not found")
			c.Abort()
			return
		}
		if tc.AccessLevel != services.AccessFull && tc.AccessLevel != services.AccessReadOnly {
			utils.RespondError(c, http.StatusForbidden,
				"An active subscription is required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// WriteAccessRequiredMiddleware blocks mutating tenant routes unless
// the subscription grants full access. Members with degraded access
// still reach read endpoints and the billing routes.
func WriteAccessRequiredMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := GetTenantContext(c)
		if tc == nil {
			utils.RespondError(c, http.StatusNotFound, "Not found")
			c.Abort()
			return
		}
		if tc.AccessLevel != services.AccessFull {
			utils.RespondError(c, http.StatusForbidden,
				"Your subscription does not allow this action")
			c.Abort()
			return
		}
		c.Next()
	}
}

package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
)

func newProspectServiceForTest(t *testing.T) (ProspectServiceInterface, *gorm.DB) {
	db := newTestDB(t)
	invites := NewInviteService(db, repositories.NewInviteRepository(db))
	return NewProspectService(db, invites), db
}

func TestProspectLifecycle(t *testing.T) {
	svc, db := newProspectServiceForTest(t)
	ctx := context.Background()
	admin := seedUser(t, db, "staff@belvieu.test", true)

	prospect, err := svc.Create(ctx, ProspectInput{
		BusinessName: "Joe's Plumbing",
		ContactEmail: "Joe@Plumbing.TEST",
		Source:       "google_maps",
	}, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, db_models.ProspectStatusResearching, prospect.Status)
	assert.Equal(t, "joe@plumbing.test", prospect.ContactEmail)

	t.Run("creation logs an activity", func(t *testing.T) {
		_, activities, err := svc.Get(ctx, prospect.ID)
		require.NoError(t, err)
		require.Len(t, activities, 1)
	})

	t.Run("status change logs the edge", func(t *testing.T) {
		require.NoError(t, svc.UpdateStatus(ctx, prospect.ID, db_models.ProspectStatusPitched, admin.ID))
		reloaded, activities, err := svc.Get(ctx, prospect.ID)
		require.NoError(t, err)
		assert.Equal(t, db_models.ProspectStatusPitched, reloaded.Status)
		require.Len(t, activities, 2)
		notes := []string{activities[0].Note, activities[1].Note}
		found := false
		for _, n := range notes {
			if strings.Contains(n, "researching") && strings.Contains(n, "pitched") {
				found = true
			}
		}
		assert.True(t, found, "expected a status change note, got %v", notes)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		err := svc.UpdateStatus(ctx, prospect.ID, db_models.ProspectStatus("won"), admin.ID)
		var verr *utils.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("list filters by status", func(t *testing.T) {
		status := db_models.ProspectStatusPitched
		got, err := svc.List(ctx, &status)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, prospect.ID, got[0].ID)

		other := db_models.ProspectStatusDeclined
		got, err = svc.List(ctx, &other)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestProspectConvert(t *testing.T) {
	svc, db := newProspectServiceForTest(t)
	ctx := context.Background()
	admin := seedUser(t, db, "staff@belvieu.test", true)

	prospect, err := svc.Create(ctx, ProspectInput{BusinessName: "Joe's Plumbing"}, admin.ID)
	require.NoError(t, err)

	email := "joe@plumbing.test"
	result, err := svc.Convert(ctx, prospect.ID, "Joe's Plumbing", "Joes-Plumbing", "", &email, admin.ID)
	require.NoError(t, err)

	t.Run("provisions the full triad", func(t *testing.T) {
		assert.Equal(t, "joes-plumbing", result.Site.Slug)
		assert.Equal(t, db_models.SiteStatusDemo, result.Site.Status)
		// Display name falls back to the workspace name.
		assert.Equal(t, "Joe's Plumbing", result.Site.DisplayName)
		require.NotNil(t, result.Workspace.ProspectID)
		assert.Equal(t, prospect.ID, *result.Workspace.ProspectID)
		require.NotNil(t, result.Invite.Email)
		assert.Equal(t, email, *result.Invite.Email)

		var settings db_models.WorkspaceSettings
		require.NoError(t, db.First(&settings, "workspace_id = ?", result.Workspace.ID).Error)
	})

	t.Run("prospect links back and becomes converted", func(t *testing.T) {
		reloaded, _, err := svc.Get(ctx, prospect.ID)
		require.NoError(t, err)
		require.NotNil(t, reloaded.WorkspaceID)
		assert.Equal(t, result.Workspace.ID, *reloaded.WorkspaceID)
		assert.Equal(t, db_models.ProspectStatusConverted, reloaded.Status)
	})

	t.Run("conversion is terminal", func(t *testing.T) {
		_, err := svc.Convert(ctx, prospect.ID, "Joe's Plumbing", "joes-plumbing-two", "", nil, admin.ID)
		var verr *utils.ValidationError
		assert.ErrorAs(t, err, &verr)

		var count int64
		require.NoError(t, db.Model(&db_models.Workspace{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("slug collision rolls everything back", func(t *testing.T) {
		second, err := svc.Create(ctx, ProspectInput{BusinessName: "Other Plumbing"}, admin.ID)
		require.NoError(t, err)

		_, err = svc.Convert(ctx, second.ID, "Other Plumbing", "joes-plumbing", "", nil, admin.ID)
		assert.ErrorIs(t, err, utils.ErrSlugTaken)

		var count int64
		require.NoError(t, db.Model(&db_models.Workspace{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

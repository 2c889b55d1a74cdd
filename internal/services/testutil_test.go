package services

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&db_models.User{},
		&db_models.Workspace{},
		&db_models.WorkspaceMember{},
		&db_models.WorkspaceSettings{},
		&db_models.Site{},
		&db_models.WorkspaceInvite{},
		&db_models.BillingCustomer{},
		&db_models.BillingSubscription{},
		&db_models.StripeEvent{},
		&db_models.Ticket{},
		&db_models.TicketMessage{},
		&db_models.TicketAttachment{},
		&db_models.Prospect{},
		&db_models.ProspectActivity{},
		&db_models.AuditEvent{},
		&db_models.ContactFormConfig{},
	))
	return db
}

func seedWorkspaceWithSite(t *testing.T, db *gorm.DB, slug string) (*db_models.Workspace, *db_models.Site) {
	t.Helper()

	workspace := &db_models.Workspace{Name: slug + " workspace"}
	require.NoError(t, db.Create(workspace).Error)

	site := &db_models.Site{
		WorkspaceID: workspace.ID,
		Slug:        slug,
		DisplayName: slug,
		Status:      db_models.SiteStatusDemo,
	}
	require.NoError(t, db.Create(site).Error)
	return workspace, site
}

func seedUser(t *testing.T, db *gorm.DB, email string, isAdmin bool) *db_models.User {
	t.Helper()

	user := &db_models.User{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test User",
		IsAdmin:      isAdmin,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// fakeMailer records sends; SendSync can be set to fail.
type fakeMailer struct {
	sent    []Mail
	failAll bool
}

func (f *fakeMailer) SendAsync(mail Mail) { f.sent = append(f.sent, mail) }

func (f *fakeMailer) SendSync(mail Mail) error {
	if f.failAll {
		return errSendFailed
	}
	f.sent = append(f.sent, mail)
	return nil
}

var errSendFailed = errors.New("smtp send failed")

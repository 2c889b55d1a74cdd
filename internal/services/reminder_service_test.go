package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
)

// seedPitchedProspect creates a pitched prospect whose first outreach
// email was logged ageDays ago.
func seedPitchedProspect(t *testing.T, db *gorm.DB, name string, ageDays int) *db_models.Prospect {
	t.Helper()
	prospect := &db_models.Prospect{
		BusinessName: name,
		ContactName:  "Pat",
		ContactEmail: "pat@" + name + ".test",
		Status:       db_models.ProspectStatusPitched,
	}
	require.NoError(t, db.Create(prospect).Error)
	logOutreach(t, db, prospect, ageDays)
	return prospect
}

func logOutreach(t *testing.T, db *gorm.DB, prospect *db_models.Prospect, ageDays int) {
	t.Helper()
	activity := &db_models.ProspectActivity{
		ProspectID:   prospect.ID,
		ActivityType: db_models.ActivityEmail,
		Note:         "Sent pitch email with demo link",
	}
	require.NoError(t, db.Create(activity).Error)
	require.NoError(t, db.Model(&db_models.ProspectActivity{}).
		Where("id = ?", activity.ID).
		Update("created_at", time.Now().AddDate(0, 0, -ageDays).Unix()).Error)
}

func newReminderServiceForTest(db *gorm.DB, mailer IMailService) ReminderServiceInterface {
	invites := NewInviteService(db, repositories.NewInviteRepository(db))
	cfg := ReminderConfig{AppBaseURL: "https://portal.test", ReplyTo: "hello@belvieu.test"}
	return NewReminderService(db, cfg, mailer, invites)
}

func markerCount(t *testing.T, db *gorm.DB, prospect *db_models.Prospect) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&db_models.ProspectActivity{}).
		Where("prospect_id = ? AND note LIKE ?", prospect.ID, "Reminder %").
		Count(&count).Error)
	return count
}

func TestReminderTierSelection(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := newReminderServiceForTest(db, mailer)
	ctx := context.Background()

	// 12 days since pitch: past d3 and d10, short of d30. Only d10 goes out.
	prospect := seedPitchedProspect(t, db, "plumber", 12)

	sent, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Subject, "still ready")
	assert.Equal(t, []string{"pat@plumber.test"}, mailer.sent[0].To)
	assert.Equal(t, "hello@belvieu.test", mailer.sent[0].ReplyTo)
	assert.Equal(t, int64(1), markerCount(t, db, prospect))

	// Second run: the d10 marker suppresses everything at or below d10,
	// and the marker itself does not reset the escalation clock.
	sent, err = svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, int64(1), markerCount(t, db, prospect))
}

func TestReminderLargestTierWins(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := newReminderServiceForTest(db, mailer)

	seedPitchedProspect(t, db, "roofer", 45)

	sent, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Subject, "Last reminder")
}

func TestReminderSkipsIneligible(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := newReminderServiceForTest(db, mailer)

	// Pitched yesterday: no tier reached.
	seedPitchedProspect(t, db, "fresh", 1)

	// Stale but declined: out of the pipeline.
	stale := seedPitchedProspect(t, db, "bailed", 20)
	require.NoError(t, db.Model(&db_models.Prospect{}).
		Where("id = ?", stale.ID).
		Update("status", string(db_models.ProspectStatusDeclined)).Error)

	// Pitched status but the outreach email was never logged.
	unlogged := &db_models.Prospect{
		BusinessName: "ghost",
		ContactEmail: "ghost@ghost.test",
		Status:       db_models.ProspectStatusPitched,
	}
	require.NoError(t, db.Create(unlogged).Error)

	// No contact email on file.
	require.NoError(t, db.Create(&db_models.Prospect{
		BusinessName: "nomail",
		Status:       db_models.ProspectStatusPitched,
	}).Error)

	sent, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, mailer.sent)
}

func TestReminderStopsAfterConversion(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := newReminderServiceForTest(db, mailer)
	ctx := context.Background()

	admin := seedUser(t, db, "staff@belvieu.test", true)
	prospect := seedPitchedProspect(t, db, "plumber", 12)

	prospects := NewProspectService(db, NewInviteService(db, repositories.NewInviteRepository(db)))
	_, err := prospects.Convert(ctx, prospect.ID, "Joe's Plumbing", "joes-plumbing", "", nil, admin.ID)
	require.NoError(t, err)

	sent, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, mailer.sent)
}

func TestReminderCarriesInviteLink(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := newReminderServiceForTest(db, mailer)

	workspace, site := seedWorkspaceWithSite(t, db, "acme")
	prospect := seedPitchedProspect(t, db, "acme", 12)
	require.NoError(t, db.Model(&db_models.Prospect{}).
		Where("id = ?", prospect.ID).
		Update("workspace_id", workspace.ID).Error)

	invites := NewInviteService(db, repositories.NewInviteRepository(db))
	invite, err := invites.Generate(context.Background(), workspace.ID, site.ID, nil, uuid.Nil)
	require.NoError(t, err)

	sent, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "https://portal.test/register?invite="+invite.Token, mailer.sent[0].ButtonURL)
}

func TestReminderWithoutInvite(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := newReminderServiceForTest(db, mailer)

	// Workspace exists but no invite was ever generated. The reminder
	// still goes out, with no registration button.
	workspace, _ := seedWorkspaceWithSite(t, db, "acme")
	prospect := seedPitchedProspect(t, db, "acme", 12)
	require.NoError(t, db.Model(&db_models.Prospect{}).
		Where("id = ?", prospect.ID).
		Update("workspace_id", workspace.ID).Error)

	sent, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Empty(t, mailer.sent[0].ButtonURL)
}

func TestReminderDryRun(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := newReminderServiceForTest(db, mailer)

	prospect := seedPitchedProspect(t, db, "landscaper", 12)

	sent, err := svc.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Empty(t, mailer.sent)
	assert.Zero(t, markerCount(t, db, prospect))
}

func TestReminderSendFailureRollsBackMarker(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{failAll: true}
	svc := newReminderServiceForTest(db, mailer)
	ctx := context.Background()

	prospect := seedPitchedProspect(t, db, "bakery", 12)

	sent, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Zero(t, markerCount(t, db, prospect))

	// SMTP recovers; the next run delivers the reminder that failed.
	mailer.failAll = false
	sent, err = svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, int64(1), markerCount(t, db, prospect))
}

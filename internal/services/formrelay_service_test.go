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

func seedFormConfig(t *testing.T, db *gorm.DB, site *db_models.Site, enabled bool) *db_models.ContactFormConfig {
	t.Helper()
	config := &db_models.ContactFormConfig{
		SiteID:          site.ID,
		AccessKey:       "key-" + site.Slug,
		RecipientEmails: "owner@" + site.Slug + ".test, backup@" + site.Slug + ".test",
		IsEnabled:       enabled,
	}
	require.NoError(t, db.Create(config).Error)
	return config
}

func TestFormRelaySubmit(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := NewFormRelayService(db, repositories.NewContactFormRepository(db), mailer)
	ctx := context.Background()

	_, site := seedWorkspaceWithSite(t, db, "acme")
	require.NoError(t, db.Model(site).Update("status", string(db_models.SiteStatusActive)).Error)
	seedFormConfig(t, db, site, true)

	t.Run("relays to all recipients", func(t *testing.T) {
		err := svc.Submit(ctx, "key-acme", FormSubmission{
			Name:    "Jane Visitor",
			Email:   "jane@visitor.test",
			Message: "Do you do <b>emergency</b> repairs?",
		})
		require.NoError(t, err)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, []string{"owner@acme.test", "backup@acme.test"}, mailer.sent[0].To)
		assert.Equal(t, "jane@visitor.test", mailer.sent[0].ReplyTo)
		assert.Contains(t, mailer.sent[0].Intro, "emergency")
		assert.NotContains(t, mailer.sent[0].Intro, "<b>")
	})

	t.Run("honeypot swallows silently", func(t *testing.T) {
		before := len(mailer.sent)
		err := svc.Submit(ctx, "key-acme", FormSubmission{
			Message:  "buy my stuff",
			BotField: "gotcha",
		})
		require.NoError(t, err)
		assert.Len(t, mailer.sent, before)
	})

	t.Run("empty message rejected", func(t *testing.T) {
		err := svc.Submit(ctx, "key-acme", FormSubmission{Name: "Jane"})
		var verr *utils.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("oversized message rejected", func(t *testing.T) {
		err := svc.Submit(ctx, "key-acme", FormSubmission{
			Message: strings.Repeat("a", maxFormMessageLen+1),
		})
		var verr *utils.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("unknown access key", func(t *testing.T) {
		err := svc.Submit(ctx, "key-wrong", FormSubmission{Message: "hi"})
		assert.ErrorIs(t, err, utils.ErrFormKeyInvalid)
	})
}

func TestFormRelayGating(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := NewFormRelayService(db, repositories.NewContactFormRepository(db), mailer)
	ctx := context.Background()

	t.Run("disabled config", func(t *testing.T) {
		_, site := seedWorkspaceWithSite(t, db, "disabled-co")
		seedFormConfig(t, db, site, false)

		err := svc.Submit(ctx, "key-disabled-co", FormSubmission{Message: "hi"})
		assert.ErrorIs(t, err, utils.ErrFormDisabled)
	})

	t.Run("paused site stops relaying", func(t *testing.T) {
		_, site := seedWorkspaceWithSite(t, db, "paused-co")
		require.NoError(t, db.Model(site).Update("status", string(db_models.SiteStatusPaused)).Error)
		seedFormConfig(t, db, site, true)

		err := svc.Submit(ctx, "key-paused-co", FormSubmission{Message: "hi"})
		assert.ErrorIs(t, err, utils.ErrFormDisabled)
	})

	t.Run("demo site still relays", func(t *testing.T) {
		_, site := seedWorkspaceWithSite(t, db, "demo-co")
		seedFormConfig(t, db, site, true)

		err := svc.Submit(ctx, "key-demo-co", FormSubmission{Message: "hi"})
		assert.NoError(t, err)
	})
}

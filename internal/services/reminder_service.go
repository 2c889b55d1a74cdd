package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// reminderTier is one escalation step for a pitched prospect that has gone
// quiet. Tiers are walked largest first so a long-stale prospect gets the
// strongest reminder it qualifies for, never several at once.
type reminderTier struct {
	Name string
	Days int
}

var reminderTiers = []reminderTier{
	{Name: "d30", Days: 30},
	{Name: "d10", Days: 10},
	{Name: "d3", Days: 3},
}

var reminderSubjects = map[string]string{
	"d3":  "Just making sure you saw this — %s",
	"d10": "Your website for %s is still ready",
	"d30": "Last reminder — your site link expires soon",
}

type ReminderConfig struct {
	AppBaseURL string
	// ReplyTo lands prospect replies in the operator's inbox.
	ReplyTo string
}

type ReminderServiceInterface interface {
	Run(ctx context.Context, dryRun bool) (int, error)
}

type reminderService struct {
	db      *gorm.DB
	cfg     ReminderConfig
	mail    IMailService
	invites InviteServiceInterface
}

func NewReminderService(db *gorm.DB, cfg ReminderConfig, mail IMailService, invites InviteServiceInterface) ReminderServiceInterface {
	return &reminderService{db: db, cfg: cfg, mail: mail, invites: invites}
}

func reminderMarker(tier reminderTier) string {
	return "Reminder " + tier.Name + " sent"
}

// Run scans pitched prospects with a contact email and sends at most one
// follow-up reminder per prospect, measured from the first outreach email
// logged against it. Prospects never pitched by email are left alone. Each
// send is committed in its own transaction so one bad address cannot sink
// the rest of the batch.
func (r *reminderService) Run(ctx context.Context, dryRun bool) (int, error) {
	db := r.db.WithContext(ctx)

	var prospects []db_models.Prospect
	if err := db.Where("status = ? AND contact_email <> ''", db_models.ProspectStatusPitched).
		Find(&prospects).Error; err != nil {
		return 0, err
	}
	zap.L().Info("reminder check", zap.Int("pitched_with_email", len(prospects)))

	now := time.Now()
	sent := 0
	for _, prospect := range prospects {
		tier, ok, err := r.dueTier(db, &prospect, now)
		if err != nil {
			return sent, err
		}
		if !ok {
			continue
		}

		if dryRun {
			zap.L().Info("dry run: reminder due",
				zap.String("prospect_id", prospect.ID.String()),
				zap.String("business_name", prospect.BusinessName),
				zap.String("contact_email", prospect.ContactEmail),
				zap.String("tier", tier.Name))
			sent++
			continue
		}

		if err := r.sendOne(ctx, &prospect, tier); err != nil {
			zap.L().Error("reminder send failed, skipping prospect",
				zap.String("prospect_id", prospect.ID.String()),
				zap.String("tier", tier.Name),
				zap.Error(err))
			continue
		}
		sent++
	}
	zap.L().Info("reminder run complete", zap.Int("sent", sent))
	return sent, nil
}

// dueTier picks the largest tier the prospect has aged into and not yet
// received. A marker at that tier means the prospect is fully escalated
// for its age, so the smaller tiers it skipped are never back-filled.
// Returns ok=false when nothing is due.
func (r *reminderService) dueTier(db *gorm.DB, prospect *db_models.Prospect, now time.Time) (reminderTier, bool, error) {
	pitchedAt, ok, err := r.firstOutreachAt(db, prospect)
	if err != nil || !ok {
		return reminderTier{}, false, err
	}
	ageDays := int(now.Sub(pitchedAt).Hours() / 24)

	for _, tier := range reminderTiers {
		if ageDays < tier.Days {
			continue
		}
		var markerCount int64
		err := db.Model(&db_models.ProspectActivity{}).
			Where("prospect_id = ? AND note LIKE ?", prospect.ID, reminderMarker(tier)+"%").
			Count(&markerCount).Error
		if err != nil {
			return reminderTier{}, false, err
		}
		if markerCount > 0 {
			return reminderTier{}, false, nil
		}
		return tier, true, nil
	}
	return reminderTier{}, false, nil
}

// firstOutreachAt anchors the escalation clock at the first email-type
// activity. Reminder markers are themselves email activities, so they are
// excluded here to keep a sent reminder from resetting the clock.
func (r *reminderService) firstOutreachAt(db *gorm.DB, prospect *db_models.Prospect) (time.Time, bool, error) {
	var first db_models.ProspectActivity
	err := db.Where("prospect_id = ? AND activity_type = ? AND note NOT LIKE ?",
		prospect.ID, db_models.ActivityEmail, "Reminder %").
		Order("created_at ASC").
		First(&first).Error
	if err == nil {
		return time.Unix(first.CreatedAt, 0), true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	return time.Time{}, false, err
}

// sendOne writes the tier marker and delivers the email in one unit: a
// failed delivery rolls the marker back so the next run retries. The
// mail body is assembled up front since the invite lookup reads its own
// connection and must not happen under the marker transaction.
func (r *reminderService) sendOne(ctx context.Context, prospect *db_models.Prospect, tier reminderTier) error {
	mail := r.buildMail(ctx, prospect, tier)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&db_models.ProspectActivity{
			ProspectID:   prospect.ID,
			ActivityType: db_models.ActivityEmail,
			Note:         reminderMarker(tier) + " to " + prospect.ContactEmail,
		}).Error; err != nil {
			return err
		}
		recordAudit(tx, nil, nil, "prospect.reminder_sent", map[string]any{
			"prospect_id": prospect.ID.String(),
			"tier":        tier.Name,
		})
		return r.mail.SendSync(mail)
	})
}

func (r *reminderService) buildMail(ctx context.Context, prospect *db_models.Prospect, tier reminderTier) Mail {
	m := Mail{
		To:      []string{prospect.ContactEmail},
		ReplyTo: r.cfg.ReplyTo,
		Subject: fmt.Sprintf(reminderSubjects[tier.Name], prospect.BusinessName),
		Intro: fmt.Sprintf(
			"Hi %s, the website we built for %s is ready whenever you are.",
			prospect.ContactName, prospect.BusinessName),
	}
	if link := r.inviteLink(ctx, prospect); link != "" {
		m.ButtonTxt = "Claim your site"
		m.ButtonURL = link
	} else if prospect.DemoURL != "" {
		m.ButtonTxt = "View your demo"
		m.ButtonURL = prospect.DemoURL
	}
	return m
}

// inviteLink returns a registration link when the prospect's workspace
// still has a live invite. Missing workspace or invite is not an error,
// the reminder just goes out without a button.
func (r *reminderService) inviteLink(ctx context.Context, prospect *db_models.Prospect) string {
	if prospect.WorkspaceID == nil {
		return ""
	}
	invite, err := r.invites.LatestUnused(ctx, *prospect.WorkspaceID)
	if errors.Is(err, utils.ErrInviteNotFound) {
		return ""
	}
	if err != nil {
		zap.L().Warn("invite lookup failed for reminder",
			zap.String("prospect_id", prospect.ID.String()), zap.Error(err))
		return ""
	}
	if invite == nil || !invite.IsValid(time.Now()) {
		return ""
	}
	return r.cfg.AppBaseURL + "/register?invite=" + invite.Token
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProspectInput struct {
	BusinessName string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Source       string
	SourceURL    string
	Notes        string
	DemoURL      string
}

// ConvertResult is the workspace/site/invite triad created when a
// prospect becomes a client.
type ConvertResult struct {
	Workspace *db_models.Workspace
	Site      *db_models.Site
	Invite    *db_models.WorkspaceInvite
}

type ProspectServiceInterface interface {
	Create(ctx context.Context, input ProspectInput, actorUserID uuid.UUID) (*db_models.Prospect, error)
	Update(ctx context.Context, id uuid.UUID, input ProspectInput) (*db_models.Prospect, error)
	Get(ctx context.Context, id uuid.UUID) (*db_models.Prospect, []db_models.ProspectActivity, error)
	List(ctx context.Context, status *db_models.ProspectStatus) ([]db_models.Prospect, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status db_models.ProspectStatus, actorUserID uuid.UUID) error
	AddActivity(ctx context.Context, prospectID uuid.UUID, activityType db_models.ActivityType, note string, actorUserID uuid.UUID) (*db_models.ProspectActivity, error)
	Convert(ctx context.Context, prospectID uuid.UUID, workspaceName, siteSlug, displayName string, inviteEmail *string, actorUserID uuid.UUID) (*ConvertResult, error)
}

type prospectService struct {
	db      *gorm.DB
	invites InviteServiceInterface
}

func NewProspectService(db *gorm.DB, invites InviteServiceInterface) ProspectServiceInterface {
	return &prospectService{db: db, invites: invites}
}

var prospectStatuses = []db_models.ProspectStatus{
	db_models.ProspectStatusResearching,
	db_models.ProspectStatusSiteBuilt,
	db_models.ProspectStatusPitched,
	db_models.ProspectStatusConverted,
	db_models.ProspectStatusDeclined,
}

var activityTypes = []db_models.ActivityType{
	db_models.ActivityEmail,
	db_models.ActivityText,
	db_models.ActivityCall,
	db_models.ActivityNote,
}

func validProspectStatus(s db_models.ProspectStatus) bool {
	for _, v := range prospectStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func validActivityType(t db_models.ActivityType) bool {
	for _, v := range activityTypes {
		if v == t {
			return true
		}
	}
	return false
}

func (p *prospectService) findProspect(tx *gorm.DB, id uuid.UUID) (*db_models.Prospect, error) {
	var prospect db_models.Prospect
	if err := tx.Where("id = ?", id).First(&prospect).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrProspectNotFound
		}
		return nil, err
	}
	return &prospect, nil
}

func (p *prospectService) Create(ctx context.Context, input ProspectInput, actorUserID uuid.UUID) (*db_models.Prospect, error) {
	name := utils.StripMarkup(input.BusinessName)
	if name == "" {
		return nil, utils.Validationf("business name is required")
	}

	prospect := &db_models.Prospect{
		BusinessName: name,
		ContactName:  utils.StripMarkup(input.ContactName),
		ContactEmail: strings.ToLower(strings.TrimSpace(input.ContactEmail)),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		Source:       strings.TrimSpace(input.Source),
		SourceURL:    strings.TrimSpace(input.SourceURL),
		Notes:        utils.StripMarkup(input.Notes),
		DemoURL:      strings.TrimSpace(input.DemoURL),
		Status:       db_models.ProspectStatusResearching,
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(prospect).Error; err != nil {
			return err
		}
		return tx.Create(&db_models.ProspectActivity{
			ProspectID:   prospect.ID,
			ActivityType: db_models.ActivityNote,
			Note:         "Prospect created",
			ActorUserID:  &actorUserID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return prospect, nil
}

func (p *prospectService) Update(ctx context.Context, id uuid.UUID, input ProspectInput) (*db_models.Prospect, error) {
	name := utils.StripMarkup(input.BusinessName)
	if name == "" {
		return nil, utils.Validationf("business name is required")
	}

	var prospect *db_models.Prospect
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := p.findProspect(tx, id)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"business_name": name,
			"contact_name":  utils.StripMarkup(input.ContactName),
			"contact_email": strings.ToLower(strings.TrimSpace(input.ContactEmail)),
			"contact_phone": strings.TrimSpace(input.ContactPhone),
			"source":        strings.TrimSpace(input.Source),
			"source_url":    strings.TrimSpace(input.SourceURL),
			"notes":         utils.StripMarkup(input.Notes),
			"demo_url":      strings.TrimSpace(input.DemoURL),
		}
		if err := tx.Model(&db_models.Prospect{}).Where("id = ?", found.ID).Updates(updates).Error; err != nil {
			return err
		}
		prospect, err = p.findProspect(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return prospect, nil
}

func (p *prospectService) Get(ctx context.Context, id uuid.UUID) (*db_models.Prospect, []db_models.ProspectActivity, error) {
	db := p.db.WithContext(ctx)
	prospect, err := p.findProspect(db, id)
	if err != nil {
		return nil, nil, err
	}
	var activities []db_models.ProspectActivity
	if err := db.Where("prospect_id = ?", id).
		Order("created_at DESC").
		Find(&activities).Error; err != nil {
		return nil, nil, err
	}
	return prospect, activities, nil
}

func (p *prospectService) List(ctx context.Context, status *db_models.ProspectStatus) ([]db_models.Prospect, error) {
	q := p.db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}
	var prospects []db_models.Prospect
	if err := q.Find(&prospects).Error; err != nil {
		return nil, err
	}
	return prospects, nil
}

func (p *prospectService) UpdateStatus(ctx context.Context, id uuid.UUID, status db_models.ProspectStatus, actorUserID uuid.UUID) error {
	if !validProspectStatus(status) {
		return utils.Validationf("unknown prospect status %q", string(status))
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prospect, err := p.findProspect(tx, id)
		if err != nil {
			return err
		}
		if prospect.Status == status {
			return nil
		}
		if err := tx.Model(&db_models.Prospect{}).
			Where("id = ?", prospect.ID).
			Update("status", string(status)).Error; err != nil {
			return err
		}
		return tx.Create(&db_models.ProspectActivity{
			ProspectID:   prospect.ID,
			ActivityType: db_models.ActivityNote,
			Note:         "Status changed from " + string(prospect.Status) + " to " + string(status),
			ActorUserID:  &actorUserID,
		}).Error
	})
}

func (p *prospectService) AddActivity(ctx context.Context, prospectID uuid.UUID, activityType db_models.ActivityType, note string, actorUserID uuid.UUID) (*db_models.ProspectActivity, error) {
	if !validActivityType(activityType) {
		return nil, utils.Validationf("unknown activity type %q", string(activityType))
	}
	note = utils.StripMarkup(note)
	if note == "" {
		return nil, utils.Validationf("activity note is required")
	}

	var activity *db_models.ProspectActivity
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prospect, err := p.findProspect(tx, prospectID)
		if err != nil {
			return err
		}
		activity = &db_models.ProspectActivity{
			ProspectID:   prospect.ID,
			ActivityType: activityType,
			Note:         note,
			ActorUserID:  &actorUserID,
		}
		return tx.Create(activity).Error
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// Convert provisions the client-facing triad for a prospect: a workspace,
// its site under the given slug, and an invite link to hand the client.
// Conversion is terminal: the prospect moves to converted here and a
// second call is rejected, so reminders stop and no duplicate workspace
// can be provisioned.
func (p *prospectService) Convert(ctx context.Context, prospectID uuid.UUID, workspaceName, siteSlug, displayName string, inviteEmail *string, actorUserID uuid.UUID) (*ConvertResult, error) {
	workspaceName = utils.StripMarkup(workspaceName)
	siteSlug = strings.ToLower(strings.TrimSpace(siteSlug))
	displayName = utils.StripMarkup(displayName)
	if workspaceName == "" {
		return nil, utils.Validationf("workspace name is required")
	}
	if siteSlug == "" {
		return nil, utils.Validationf("site slug is required")
	}
	if displayName == "" {
		displayName = workspaceName
	}

	result := &ConvertResult{}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prospect, err := p.findProspect(tx, prospectID)
		if err != nil {
			return err
		}
		if prospect.Status == db_models.ProspectStatusConverted {
			return utils.Validationf("prospect is already converted")
		}

		var slugCount int64
		if err := tx.Model(&db_models.Site{}).
			Where("slug = ?", siteSlug).
			Count(&slugCount).Error; err != nil {
			return err
		}
		if slugCount > 0 {
			return utils.ErrSlugTaken
		}

		workspace := &db_models.Workspace{
			Name:       workspaceName,
			ProspectID: &prospect.ID,
		}
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}
		site := &db_models.Site{
			WorkspaceID: workspace.ID,
			Slug:        siteSlug,
			DisplayName: displayName,
			Status:      db_models.SiteStatusDemo,
		}
		if err := tx.Create(site).Error; err != nil {
			return err
		}
		if err := tx.Create(&db_models.WorkspaceSettings{
			WorkspaceID: workspace.ID,
		}).Error; err != nil {
			return err
		}

		token, err := utils.GenerateSecureToken(inviteTokenBytes)
		if err != nil {
			return err
		}
		email := inviteEmail
		if email != nil {
			normalized := strings.ToLower(strings.TrimSpace(*email))
			if normalized == "" {
				email = nil
			} else {
				email = &normalized
			}
		}
		invite := &db_models.WorkspaceInvite{
			WorkspaceID: workspace.ID,
			SiteID:      site.ID,
			Email:       email,
			Token:       token,
			ExpiresAt:   time.Now().Add(inviteTTL).Unix(),
		}
		if err := tx.Create(invite).Error; err != nil {
			return err
		}

		if err := tx.Model(&db_models.Prospect{}).
			Where("id = ?", prospect.ID).
			Updates(map[string]any{
				"workspace_id": workspace.ID,
				"status":       string(db_models.ProspectStatusConverted),
			}).Error; err != nil {
			return err
		}
		if err := tx.Create(&db_models.ProspectActivity{
			ProspectID:   prospect.ID,
			ActivityType: db_models.ActivityNote,
			Note:         "Converted: workspace and site provisioned (" + siteSlug + ")",
			ActorUserID:  &actorUserID,
		}).Error; err != nil {
			return err
		}
		recordAudit(tx, &workspace.ID, &actorUserID, "prospect.provisioned", map[string]any{
			"prospect_id": prospect.ID.String(),
			"site_slug":   siteSlug,
		})

		result.Workspace = workspace
		result.Site = site
		result.Invite = invite
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

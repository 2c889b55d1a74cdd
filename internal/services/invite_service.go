package services

import (
	"context"
	"strings"
	"time"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	inviteTokenBytes = 48
	inviteTTL        = 45 * 24 * time.Hour
)

type InviteServiceInterface interface {
	Generate(ctx context.Context, workspaceID, siteID uuid.UUID, email *string, actorUserID uuid.UUID) (*db_models.WorkspaceInvite, error)
	Validate(ctx context.Context, token string) (*db_models.WorkspaceInvite, error)
	ValidateForEmail(ctx context.Context, token, email string) (*db_models.WorkspaceInvite, error)
	LatestUnused(ctx context.Context, workspaceID uuid.UUID) (*db_models.WorkspaceInvite, error)
	Consume(tx *gorm.DB, invite *db_models.WorkspaceInvite) error
}

type inviteService struct {
	db         *gorm.DB
	inviteRepo repositories.InviteRepository
}

func NewInviteService(db *gorm.DB, inviteRepo repositories.InviteRepository) InviteServiceInterface {
	return &inviteService{db: db, inviteRepo: inviteRepo}
}

// Generate mints a fresh invite link for a workspace. When email is set
// the link is locked to that address at registration time.
func (i *inviteService) Generate(ctx context.Context, workspaceID, siteID uuid.UUID, email *string, actorUserID uuid.UUID) (*db_models.WorkspaceInvite, error) {
	token, err := utils.GenerateSecureToken(inviteTokenBytes)
	if err != nil {
		return nil, err
	}

	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		if normalized == "" {
			email = nil
		} else {
			email = &normalized
		}
	}

	invite := &db_models.WorkspaceInvite{
		WorkspaceID: workspaceID,
		SiteID:      siteID,
		Email:       email,
		Token:       token,
		ExpiresAt:   time.Now().Add(inviteTTL).Unix(),
	}

	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invite).Error; err != nil {
			return err
		}
		recordAudit(tx, &workspaceID, &actorUserID, "invite.created", map[string]any{
			"invite_id": invite.ID.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// Validate checks the token without consuming it. Used and expired links
// get distinct errors so the registration page can explain which it was.
func (i *inviteService) Validate(ctx context.Context, token string) (*db_models.WorkspaceInvite, error) {
	invite, err := i.inviteRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, utils.ErrInviteNotFound
	}
	if invite.IsUsed() {
		return nil, utils.ErrInviteUsed
	}
	if invite.IsExpired(time.Now()) {
		return nil, utils.ErrInviteExpired
	}
	return invite, nil
}

// ValidateForEmail additionally enforces the email lock when present.
func (i *inviteService) ValidateForEmail(ctx context.Context, token, email string) (*db_models.WorkspaceInvite, error) {
	invite, err := i.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if invite.Email != nil && !strings.EqualFold(*invite.Email, strings.TrimSpace(email)) {
		return nil, utils.ErrInviteEmailMismatch
	}
	return invite, nil
}

func (i *inviteService) LatestUnused(ctx context.Context, workspaceID uuid.UUID) (*db_models.WorkspaceInvite, error) {
	invite, err := i.inviteRepo.FindLatestUnused(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if invite == nil {
		return nil, utils.ErrInviteNotFound
	}
	return invite, nil
}

// Consume marks the invite used inside the caller's transaction, so a
// failed registration leaves the link reusable. The used_at guard makes
// this the commit-time re-validation: when two registrations race on
// the same token, the second update matches no rows and loses.
func (i *inviteService) Consume(tx *gorm.DB, invite *db_models.WorkspaceInvite) error {
	now := time.Now().Unix()
	res := tx.Model(&db_models.WorkspaceInvite{}).
		Where("id = ? AND used_at IS NULL", invite.ID).
		Update("used_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrInviteUsed
	}
	invite.UsedAt = &now
	return nil
}

package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
)

type InviteRepository interface {
	Insert(ctx context.Context, invite *db_models.WorkspaceInvite) error
	FindByToken(ctx context.Context, token string) (*db_models.WorkspaceInvite, error)
	// FindLatestUnused returns the newest unconsumed invite for a
	// workspace, used when building reminder-email invite links.
	FindLatestUnused(ctx context.Context, workspaceID uuid.UUID) (*db_models.WorkspaceInvite, error)
}

type inviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (i *inviteRepository) Insert(ctx context.Context, invite *db_models.WorkspaceInvite) error {
	return i.db.WithContext(ctx).Create(invite).Error
}

func (i *inviteRepository) FindByToken(ctx context.Context, token string) (*db_models.WorkspaceInvite, error) {
	var invite db_models.WorkspaceInvite
	err := i.db.WithContext(ctx).First(&invite, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}

func (i *inviteRepository) FindLatestUnused(ctx context.Context, workspaceID uuid.UUID) (*db_models.WorkspaceInvite, error) {
	var invite db_models.WorkspaceInvite
	err := i.db.WithContext(ctx).
		Where("workspace_id = ? AND used_at IS NULL", workspaceID).
		Order("created_at DESC").
		First(&invite).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invite, nil
}

package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
)

type WorkspaceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Workspace, error)
	FindMembership(ctx context.Context, userID, workspaceID uuid.UUID) (*db_models.WorkspaceMember, error)
	HasOwner(ctx context.Context, workspaceID uuid.UUID) (bool, error)
	FindOwners(ctx context.Context, workspaceID uuid.UUID) ([]db_models.User, error)
	FindSettings(ctx context.Context, workspaceID uuid.UUID) (*db_models.WorkspaceSettings, error)
}

type workspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

func (w *workspaceRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Workspace, error) {
	var ws db_models.Workspace
	err := w.db.WithContext(ctx).First(&ws, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ws, nil
}

func (w *workspaceRepository) FindMembership(ctx context.Context, userID, workspaceID uuid.UUID) (*db_models.WorkspaceMember, error) {
	var member db_models.WorkspaceMember
	err := w.db.WithContext(ctx).
		Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (w *workspaceRepository) HasOwner(ctx context.Context, workspaceID uuid.UUID) (bool, error) {
	var count int64
	err := w.db.WithContext(ctx).Model(&db_models.WorkspaceMember{}).
		Where("workspace_id = ? AND role = ?", workspaceID, db_models.RoleOwner).
		Count(&count).Error
	return count > 0, err
}

func (w *workspaceRepository) FindOwners(ctx context.Context, workspaceID uuid.UUID) ([]db_models.User, error) {
	var users []db_models.User
	err := w.db.WithContext(ctx).
		Joins("JOIN workspace_members ON workspace_members.user_id = users.id").
		Where("workspace_members.workspace_id = ? AND workspace_members.role = ?",
			workspaceID, db_models.RoleOwner).
		Find(&users).Error
	return users, err
}

func (w *workspaceRepository) FindSettings(ctx context.Context, workspaceID uuid.UUID) (*db_models.WorkspaceSettings, error) {
	var settings db_models.WorkspaceSettings
	err := w.db.WithContext(ctx).First(&settings, "workspace_id = ?", workspaceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

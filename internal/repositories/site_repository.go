package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
)

type SiteRepository interface {
	FindBySlug(ctx context.Context, slug string) (*db_models.Site, error)
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Site, error)
	FindByWorkspace(ctx context.Context, workspaceID uuid.UUID) (*db_models.Site, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type siteRepository struct {
	db *gorm.DB
}

func NewSiteRepository(db *gorm.DB) SiteRepository {
	return &siteRepository{db: db}
}

func (s *siteRepository) FindBySlug(ctx context.Context, slug string) (*db_models.Site, error) {
	var site db_models.Site
	err := s.db.WithContext(ctx).First(&site, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

func (s *siteRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Site, error) {
	var site db_models.Site
	err := s.db.WithContext(ctx).First(&site, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

func (s *siteRepository) FindByWorkspace(ctx context.Context, workspaceID uuid.UUID) (*db_models.Site, error) {
	var site db_models.Site
	err := s.db.WithContext(ctx).First(&site, "workspace_id = ?", workspaceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

func (s *siteRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&db_models.Site{}).
		Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

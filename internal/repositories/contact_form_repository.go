package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
)

type ContactFormRepository interface {
	FindByAccessKey(ctx context.Context, accessKey string) (*db_models.ContactFormConfig, error)
	Insert(ctx context.Context, config *db_models.ContactFormConfig) error
}

type contactFormRepository struct {
	db *gorm.DB
}

func NewContactFormRepository(db *gorm.DB) ContactFormRepository {
	return &contactFormRepository{db: db}
}

func (c *contactFormRepository) FindByAccessKey(ctx context.Context, accessKey string) (*db_models.ContactFormConfig, error) {
	var config db_models.ContactFormConfig
	err := c.db.WithContext(ctx).First(&config, "access_key = ?", accessKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

func (c *contactFormRepository) Insert(ctx context.Context, config *db_models.ContactFormConfig) error {
	return c.db.WithContext(ctx).Create(config).Error
}

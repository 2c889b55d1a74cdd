package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
)

type SubscriptionRepository interface {
	// FindLatestByWorkspace returns the most recently created
	// subscription row, the authoritative one for entitlement.
	FindLatestByWorkspace(ctx context.Context, workspaceID uuid.UUID) (*db_models.BillingSubscription, error)
	FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*db_models.BillingSubscription, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (s *subscriptionRepository) FindLatestByWorkspace(ctx context.Context, workspaceID uuid.UUID) (*db_models.BillingSubscription, error) {
	var sub db_models.BillingSubscription
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *subscriptionRepository) FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*db_models.BillingSubscription, error) {
	var sub db_models.BillingSubscription
	err := s.db.WithContext(ctx).
		First(&sub, "stripe_subscription_id = ?", stripeSubscriptionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/price"
	"github.com/stripe/stripe-go/v76/subscription"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	BasicPriceID  string
	SetupPriceID  string // one-time setup fee, not a recurring plan
	ProPriceID    string
	AppBaseURL    string // e.g. https://portal.belvieudigital.com
}

// Webhook delivery outcomes reported back to the controller.
const (
	EventProcessed        = "processed"
	EventAlreadyProcessed = "already_processed"
)

// ProcessorClient is the slice of the payment processor API this service
// needs. The real implementation wraps the Stripe SDK; tests swap in a fake.
type ProcessorClient interface {
	GetSubscription(id string) (*stripe.Subscription, error)
	GetCheckoutSession(id string) (*stripe.CheckoutSession, error)
	CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	CreatePortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
	GetPrice(id string) (*stripe.Price, error)
}

type stripeProcessorClient struct{}

// NewStripeProcessorClient sets the SDK key and returns the live client.
func NewStripeProcessorClient(cfg StripeConfig) ProcessorClient {
	stripe.Key = cfg.SecretKey
	return &stripeProcessorClient{}
}

func (c *stripeProcessorClient) GetSubscription(id string) (*stripe.Subscription, error) {
	return subscription.Get(id, nil)
}

func (c *stripeProcessorClient) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	return checkoutsession.Get(id, nil)
}

func (c *stripeProcessorClient) CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return customer.New(params)
}

func (c *stripeProcessorClient) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return checkoutsession.New(params)
}

func (c *stripeProcessorClient) CreatePortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return portalsession.New(params)
}

func (c *stripeProcessorClient) GetPrice(id string) (*stripe.Price, error) {
	return price.Get(id, nil)
}

type StripeServiceInterface interface {
	HandleEvent(ctx context.Context, event stripe.Event) (string, error)
	CreateCheckoutSession(ctx context.Context, workspaceID uuid.UUID, customerEmail, plan string) (string, error)
	CreatePortalSession(ctx context.Context, workspaceID uuid.UUID) (string, error)
	SyncFromCheckoutSession(ctx context.Context, sessionID string) error
	VerifyPrices(ctx context.Context) error
}

type eventHandler func(tx *gorm.DB, event stripe.Event) error

type stripeService struct {
	db       *gorm.DB
	cfg      StripeConfig
	client   ProcessorClient
	mail     IMailService
	handlers map[string]eventHandler
}

func NewStripeService(db *gorm.DB, cfg StripeConfig, client ProcessorClient, mail IMailService) StripeServiceInterface {
	s := &stripeService{db: db, cfg: cfg, client: client, mail: mail}
	s.handlers = map[string]eventHandler{
		"checkout.session.completed":    s.handleCheckoutCompleted,
		"customer.subscription.updated": s.handleSubscriptionUpdated,
		"customer.subscription.deleted": s.handleSubscriptionDeleted,
		"invoice.payment_failed":        s.handleInvoicePaymentFailed,
		"invoice.payment_succeeded":     s.handleInvoicePaymentSucceeded,
	}
	return s
}

// HandleEvent runs one webhook delivery through the idempotency ledger and
// the matching handler, all inside a single transaction. A handler error
// rolls back everything including the ledger row, so the processor's retry
// gets a clean slate.
func (s *stripeService) HandleEvent(ctx context.Context, event stripe.Event) (string, error) {
	outcome := EventProcessed

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seen db_models.StripeEvent
		err := tx.Where("stripe_event_id = ?", event.ID).First(&seen).Error
		if err == nil {
			outcome = EventAlreadyProcessed
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if handler, ok := s.handlers[string(event.Type)]; ok {
			if err := handler(tx, event); err != nil {
				return err
			}
		} else {
			// Unknown types are acknowledged and recorded so redeliveries
			// of them short-circuit too.
			zap.L().Info("ignoring unhandled stripe event type",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}

		ledger := db_models.StripeEvent{
			StripeEventID: event.ID,
			EventType:     string(event.Type),
			ProcessedAt:   time.Now().Unix(),
		}
		return tx.Create(&ledger).Error
	})

	if err != nil {
		// Concurrent delivery of the same event: the other transaction won
		// the unique index on stripe_event_id.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return EventAlreadyProcessed, nil
		}
		return "", err
	}
	return outcome, nil
}

func (s *stripeService) handleCheckoutCompleted(tx *gorm.DB, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("unmarshal checkout session: %w", err)
	}

	// workspace_id is stamped onto the session at creation time. A session
	// without it cannot be attributed, so fail the delivery loudly instead
	// of guessing.
	rawWorkspaceID := sess.Metadata["workspace_id"]
	if rawWorkspaceID == "" {
		return fmt.Errorf("checkout session %s carries no workspace_id metadata", sess.ID)
	}
	workspaceID, err := uuid.Parse(rawWorkspaceID)
	if err != nil {
		return fmt.Errorf("checkout session %s has malformed workspace_id %q: %w", sess.ID, rawWorkspaceID, err)
	}

	var workspace db_models.Workspace
	if err := tx.Where("id = ?", workspaceID).First(&workspace).Error; err != nil {
		return fmt.Errorf("resolve workspace %s for session %s: %w", workspaceID, sess.ID, err)
	}

	if sess.Customer != nil {
		if err := s.getOrCreateBillingCustomer(tx, workspaceID, sess.Customer.ID); err != nil {
			return err
		}
	}

	if sess.Subscription == nil {
		// One-time payment (e.g. setup fee checkout). Nothing to upsert.
		zap.L().Info("checkout completed without subscription",
			zap.String("session_id", sess.ID),
			zap.String("workspace_id", workspaceID.String()))
		return nil
	}

	// The session payload only references the subscription; fetch the live
	// object for status, period end and the price actually purchased.
	liveSub, err := s.client.GetSubscription(sess.Subscription.ID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", sess.Subscription.ID, err)
	}

	if err := s.upsertSubscription(tx, workspaceID, liveSub); err != nil {
		return err
	}
	if err := s.applyDerivedSiteStatus(tx, workspaceID, db_models.SubscriptionStatus(liveSub.Status)); err != nil {
		return err
	}
	if err := s.autoConvertProspect(tx, &workspace); err != nil {
		return err
	}

	recordAudit(tx, &workspaceID, nil, "billing.checkout_completed", map[string]any{
		"session_id":      sess.ID,
		"subscription_id": liveSub.ID,
	})
	s.sendActivationEmail(tx, &workspace)
	return nil
}

func (s *stripeService) handleSubscriptionUpdated(tx *gorm.DB, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	local, err := s.resolveLocalSubscription(tx, &sub)
	if err != nil {
		return err
	}
	if local == nil {
		// Update for a subscription we never saw a checkout for. Usually an
		// out-of-order or foreign delivery; acknowledge and move on.
		zap.L().Warn("subscription update for unknown subscription",
			zap.String("stripe_subscription_id", sub.ID))
		return nil
	}

	cancelIntent := sub.CancelAtPeriodEnd || sub.CancelAt > 0
	updates := map[string]any{
		"status":               string(sub.Status),
		"cancel_at_period_end": cancelIntent,
	}
	if sub.CurrentPeriodEnd > 0 {
		updates["current_period_end"] = sub.CurrentPeriodEnd
	}
	if priceID := firstPriceID(&sub); priceID != "" {
		updates["stripe_price_id"] = priceID
		updates["plan"] = s.planFromPrice(priceID)
	}
	if err := tx.Model(&db_models.BillingSubscription{}).
		Where("id = ?", local.ID).
		Updates(updates).Error; err != nil {
		return err
	}

	if err := s.applyDerivedSiteStatus(tx, local.WorkspaceID, db_models.SubscriptionStatus(sub.Status)); err != nil {
		return err
	}
	recordAudit(tx, &local.WorkspaceID, nil, "billing.subscription_updated", map[string]any{
		"subscription_id": sub.ID,
		"status":          string(sub.Status),
		"cancel_intent":   cancelIntent,
	})
	return nil
}

func (s *stripeService) handleSubscriptionDeleted(tx *gorm.DB, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	local, err := s.resolveLocalSubscription(tx, &sub)
	if err != nil {
		return err
	}
	if local == nil {
		zap.L().Warn("subscription delete for unknown subscription",
			zap.String("stripe_subscription_id", sub.ID))
		return nil
	}

	// Regardless of what status the payload claims, a deleted subscription
	// is canceled and its pending-cancel flag is moot.
	if err := tx.Model(&db_models.BillingSubscription{}).
		Where("id = ?", local.ID).
		Updates(map[string]any{
			"status":               string(db_models.SubStatusCanceled),
			"cancel_at_period_end": false,
		}).Error; err != nil {
		return err
	}

	if err := s.applyDerivedSiteStatus(tx, local.WorkspaceID, db_models.SubStatusCanceled); err != nil {
		return err
	}
	recordAudit(tx, &local.WorkspaceID, nil, "billing.subscription_canceled", map[string]any{
		"subscription_id": sub.ID,
	})
	return nil
}

func (s *stripeService) handleInvoicePaymentFailed(tx *gorm.DB, event stripe.Event) error {
	local, subID, err := s.resolveInvoiceSubscription(tx, event)
	if err != nil || local == nil {
		return err
	}

	if local.Status == db_models.SubStatusPastDue {
		return nil
	}
	if err := tx.Model(&db_models.BillingSubscription{}).
		Where("id = ?", local.ID).
		Update("status", string(db_models.SubStatusPastDue)).Error; err != nil {
		return err
	}

	// past_due keeps the site live; members see the read-only portal.
	if err := s.applyDerivedSiteStatus(tx, local.WorkspaceID, db_models.SubStatusPastDue); err != nil {
		return err
	}
	recordAudit(tx, &local.WorkspaceID, nil, "billing.payment_failed", map[string]any{
		"subscription_id": subID,
	})
	return nil
}

func (s *stripeService) handleInvoicePaymentSucceeded(tx *gorm.DB, event stripe.Event) error {
	local, subID, err := s.resolveInvoiceSubscription(tx, event)
	if err != nil || local == nil {
		return err
	}

	// Only a recovery path. Fresh activations arrive via checkout completed
	// and renewals of healthy subscriptions need no state change.
	if local.Status != db_models.SubStatusPastDue && local.Status != db_models.SubStatusUnpaid {
		return nil
	}
	if err := tx.Model(&db_models.BillingSubscription{}).
		Where("id = ?", local.ID).
		Update("status", string(db_models.SubStatusActive)).Error; err != nil {
		return err
	}
	if err := s.applyDerivedSiteStatus(tx, local.WorkspaceID, db_models.SubStatusActive); err != nil {
		return err
	}
	recordAudit(tx, &local.WorkspaceID, nil, "billing.payment_recovered", map[string]any{
		"subscription_id": subID,
	})
	return nil
}

// resolveLocalSubscription finds our row for a processor subscription,
// first by subscription id, then by customer id. Returns nil, nil when
// neither resolves.
func (s *stripeService) resolveLocalSubscription(tx *gorm.DB, sub *stripe.Subscription) (*db_models.BillingSubscription, error) {
	var local db_models.BillingSubscription
	err := tx.Where("stripe_subscription_id = ?", sub.ID).First(&local).Error
	if err == nil {
		return &local, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if sub.Customer == nil {
		return nil, nil
	}
	var bc db_models.BillingCustomer
	err = tx.Where("stripe_customer_id = ?", sub.Customer.ID).First(&bc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = tx.Where("workspace_id = ?", bc.WorkspaceID).
		Order("created_at DESC").
		First(&local).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// Adopt the processor id so the next delivery hits the fast path.
	local.StripeSubscriptionID = sub.ID
	if err := tx.Model(&db_models.BillingSubscription{}).
		Where("id = ?", local.ID).
		Update("stripe_subscription_id", sub.ID).Error; err != nil {
		return nil, err
	}
	return &local, nil
}

func (s *stripeService) resolveInvoiceSubscription(tx *gorm.DB, event stripe.Event) (*db_models.BillingSubscription, string, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return nil, "", fmt.Errorf("unmarshal invoice: %w", err)
	}
	if inv.Subscription == nil {
		zap.L().Warn("invoice event without subscription", zap.String("event_id", event.ID))
		return nil, "", nil
	}

	var local db_models.BillingSubscription
	err := tx.Where("stripe_subscription_id = ?", inv.Subscription.ID).First(&local).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		zap.L().Warn("invoice event for unknown subscription",
			zap.String("event_id", event.ID),
			zap.String("stripe_subscription_id", inv.Subscription.ID))
		return nil, inv.Subscription.ID, nil
	}
	if err != nil {
		return nil, "", err
	}
	return &local, inv.Subscription.ID, nil
}

func (s *stripeService) getOrCreateBillingCustomer(tx *gorm.DB, workspaceID uuid.UUID, stripeCustomerID string) error {
	var bc db_models.BillingCustomer
	err := tx.Where("workspace_id = ?", workspaceID).First(&bc).Error
	if err == nil {
		if bc.StripeCustomerID != stripeCustomerID {
			return tx.Model(&db_models.BillingCustomer{}).
				Where("id = ?", bc.ID).
				Update("stripe_customer_id", stripeCustomerID).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(&db_models.BillingCustomer{
		WorkspaceID:      workspaceID,
		StripeCustomerID: stripeCustomerID,
	}).Error
}

func (s *stripeService) upsertSubscription(tx *gorm.DB, workspaceID uuid.UUID, sub *stripe.Subscription) error {
	priceID := firstPriceID(sub)
	cancelIntent := sub.CancelAtPeriodEnd || sub.CancelAt > 0

	var periodEnd *int64
	if sub.CurrentPeriodEnd > 0 {
		v := sub.CurrentPeriodEnd
		periodEnd = &v
	}

	var existing db_models.BillingSubscription
	err := tx.Where("stripe_subscription_id = ?", sub.ID).First(&existing).Error
	if err == nil {
		return tx.Model(&db_models.BillingSubscription{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"status":               string(sub.Status),
				"stripe_price_id":      priceID,
				"plan":                 s.planFromPrice(priceID),
				"current_period_end":   periodEnd,
				"cancel_at_period_end": cancelIntent,
			}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return tx.Create(&db_models.BillingSubscription{
		WorkspaceID:          workspaceID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        priceID,
		Plan:                 s.planFromPrice(priceID),
		Status:               db_models.SubscriptionStatus(sub.Status),
		CurrentPeriodEnd:     periodEnd,
		CancelAtPeriodEnd:    cancelIntent,
	}).Error
}

// applyDerivedSiteStatus folds the subscription status onto the workspace's
// sites. Statuses with no defined mapping leave the site alone.
func (s *stripeService) applyDerivedSiteStatus(tx *gorm.DB, workspaceID uuid.UUID, status db_models.SubscriptionStatus) error {
	siteStatus, ok := deriveSiteStatus(status)
	if !ok {
		return nil
	}
	return tx.Model(&db_models.Site{}).
		Where("workspace_id = ? AND status <> ?", workspaceID, siteStatus).
		Update("status", string(siteStatus)).Error
}

func deriveSiteStatus(status db_models.SubscriptionStatus) (db_models.SiteStatus, bool) {
	switch status {
	case db_models.SubStatusActive, db_models.SubStatusTrialing, db_models.SubStatusPastDue:
		return db_models.SiteStatusActive, true
	case db_models.SubStatusCanceled, db_models.SubStatusUnpaid, db_models.SubStatusIncompleteExpired:
		return db_models.SiteStatusPaused, true
	default:
		return "", false
	}
}

// autoConvertProspect closes the sales loop when a workspace born from a
// prospect gets its first paid subscription.
func (s *stripeService) autoConvertProspect(tx *gorm.DB, workspace *db_models.Workspace) error {
	if workspace.ProspectID == nil {
		return nil
	}
	var prospect db_models.Prospect
	err := tx.Where("id = ?", *workspace.ProspectID).First(&prospect).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if prospect.Status == db_models.ProspectStatusConverted {
		return nil
	}

	// The webhook's workspace is the source of truth: if the prospect was
	// re-pointed at another workspace in the meantime, the paying one wins.
	if err := tx.Model(&db_models.Prospect{}).
		Where("id = ?", prospect.ID).
		Updates(map[string]any{
			"status":       string(db_models.ProspectStatusConverted),
			"workspace_id": workspace.ID,
		}).Error; err != nil {
		return err
	}
	if err := tx.Create(&db_models.ProspectActivity{
		ProspectID:   prospect.ID,
		ActivityType: db_models.ActivityNote,
		Note:         "Converted automatically after subscription checkout",
	}).Error; err != nil {
		return err
	}
	recordAudit(tx, &workspace.ID, nil, "prospect.auto_converted", map[string]any{
		"prospect_id": prospect.ID.String(),
	})
	return nil
}

func (s *stripeService) sendActivationEmail(tx *gorm.DB, workspace *db_models.Workspace) {
	if s.mail == nil {
		return
	}
	var owners []db_models.User
	if err := tx.Model(&db_models.User{}).
		Joins("JOIN workspace_members ON workspace_members.user_id = users.id").
		Where("workspace_members.workspace_id = ? AND workspace_members.role = ?",
			workspace.ID, db_models.RoleOwner).
		Find(&owners).Error; err != nil {
		zap.L().Warn("activation email recipient lookup failed",
			zap.String("workspace_id", workspace.ID.String()), zap.Error(err))
		return
	}
	if len(owners) == 0 {
		return
	}

	recipients := make([]string, 0, len(owners))
	for _, o := range owners {
		recipients = append(recipients, o.Email)
	}
	s.mail.SendAsync(Mail{
		To:        recipients,
		Subject:   "Your website is live",
		Intro:     fmt.Sprintf("Thanks for subscribing! The site for %s is now active and your client portal is ready.", workspace.Name),
		ButtonTxt: "Open your portal",
		ButtonURL: s.cfg.AppBaseURL,
	})
}

func (s *stripeService) planFromPrice(priceID string) string {
	switch priceID {
	case s.cfg.BasicPriceID:
		return "basic"
	case s.cfg.ProPriceID:
		return "pro"
	default:
		return priceID
	}
}

func (s *stripeService) priceForPlan(plan string) (string, error) {
	switch plan {
	case "basic":
		return s.cfg.BasicPriceID, nil
	case "pro":
		return s.cfg.ProPriceID, nil
	default:
		return "", utils.Validationf("unknown plan %q", plan)
	}
}

func firstPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	item := sub.Items.Data[0]
	if item.Price == nil {
		return ""
	}
	return item.Price.ID
}

// CreateCheckoutSession returns the hosted checkout URL for a workspace.
// If our stored processor customer no longer exists (test-mode data wipes
// are the usual culprit) the customer is recreated and the session retried
// once.
func (s *stripeService) CreateCheckoutSession(ctx context.Context, workspaceID uuid.UUID, customerEmail, plan string) (string, error) {
	priceID, err := s.priceForPlan(plan)
	if err != nil {
		return "", err
	}

	customerID, err := s.ensureCustomer(ctx, workspaceID, customerEmail)
	if err != nil {
		return "", err
	}

	var site db_models.Site
	if err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		First(&site).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", utils.ErrSiteNotFound
		}
		return "", err
	}

	url, err := s.createSession(workspaceID, site.Slug, customerID, priceID)
	if err == nil {
		return url, nil
	}
	if !isMissingResource(err) {
		return "", err
	}

	zap.L().Warn("stored stripe customer is gone, recreating",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("stripe_customer_id", customerID))
	customerID, rerr := s.recreateCustomer(ctx, workspaceID, customerEmail)
	if rerr != nil {
		return "", rerr
	}
	return s.createSession(workspaceID, site.Slug, customerID, priceID)
}

// Return URLs land back on the tenant's own billing pages.
func (s *stripeService) createSession(workspaceID uuid.UUID, siteSlug, customerID, priceID string) (string, error) {
	base := s.cfg.AppBaseURL + "/sites/" + siteSlug + "/billing"
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(base + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(base),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"workspace_id": workspaceID.String()},
		},
	}
	params.AddMetadata("workspace_id", workspaceID.String())

	sess, err := s.client.CreateCheckoutSession(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

func (s *stripeService) ensureCustomer(ctx context.Context, workspaceID uuid.UUID, email string) (string, error) {
	var bc db_models.BillingCustomer
	err := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&bc).Error
	if err == nil {
		return bc.StripeCustomerID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	return s.recreateCustomer(ctx, workspaceID, email)
}

func (s *stripeService) recreateCustomer(ctx context.Context, workspaceID uuid.UUID, email string) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.AddMetadata("workspace_id", workspaceID.String())
	cust, err := s.client.CreateCustomer(params)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bc db_models.BillingCustomer
		ferr := tx.Where("workspace_id = ?", workspaceID).First(&bc).Error
		if ferr == nil {
			return tx.Model(&db_models.BillingCustomer{}).
				Where("id = ?", bc.ID).
				Update("stripe_customer_id", cust.ID).Error
		}
		if !errors.Is(ferr, gorm.ErrRecordNotFound) {
			return ferr
		}
		return tx.Create(&db_models.BillingCustomer{
			WorkspaceID:      workspaceID,
			StripeCustomerID: cust.ID,
		}).Error
	})
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (s *stripeService) CreatePortalSession(ctx context.Context, workspaceID uuid.UUID) (string, error) {
	var bc db_models.BillingCustomer
	err := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&bc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", utils.ErrNoBillingCustomer
	}
	if err != nil {
		return "", err
	}

	returnURL := s.cfg.AppBaseURL + "/billing"
	var site db_models.Site
	if serr := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		First(&site).Error; serr == nil {
		returnURL = s.cfg.AppBaseURL + "/sites/" + site.Slug + "/billing"
	}

	sess, err := s.client.CreatePortalSession(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(bc.StripeCustomerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// SyncFromCheckoutSession is the polling fallback for the success redirect:
// when the webhook hasn't landed yet the frontend hands us the session id
// and we pull state directly. Reuses the same upsert path as the webhook,
// so a later redelivery is a harmless no-op.
func (s *stripeService) SyncFromCheckoutSession(ctx context.Context, sessionID string) error {
	sess, err := s.client.GetCheckoutSession(sessionID)
	if err != nil {
		return fmt.Errorf("fetch checkout session %s: %w", sessionID, err)
	}
	if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return utils.Validationf("checkout session %s is not paid yet", sessionID)
	}
	if sess.Subscription == nil {
		return nil
	}

	rawWorkspaceID := sess.Metadata["workspace_id"]
	workspaceID, err := uuid.Parse(rawWorkspaceID)
	if err != nil {
		return fmt.Errorf("checkout session %s has unusable workspace_id %q", sessionID, rawWorkspaceID)
	}

	liveSub, err := s.client.GetSubscription(sess.Subscription.ID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", sess.Subscription.ID, err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var workspace db_models.Workspace
		if err := tx.Where("id = ?", workspaceID).First(&workspace).Error; err != nil {
			return err
		}
		if sess.Customer != nil {
			if err := s.getOrCreateBillingCustomer(tx, workspaceID, sess.Customer.ID); err != nil {
				return err
			}
		}
		if err := s.upsertSubscription(tx, workspaceID, liveSub); err != nil {
			return err
		}
		if err := s.applyDerivedSiteStatus(tx, workspaceID, db_models.SubscriptionStatus(liveSub.Status)); err != nil {
			return err
		}
		return s.autoConvertProspect(tx, &workspace)
	})
}

// VerifyPrices checks that every configured price id exists and is active.
// Run at deploy time via the CLI so a bad env var fails fast, not at the
// first customer checkout.
func (s *stripeService) VerifyPrices(ctx context.Context) error {
	checks := []struct {
		name string
		id   string
	}{
		{"basic", s.cfg.BasicPriceID},
		{"pro", s.cfg.ProPriceID},
		{"setup", s.cfg.SetupPriceID},
	}
	for _, check := range checks {
		if check.id == "" {
			return fmt.Errorf("price id for %q is not configured", check.name)
		}
		p, err := s.client.GetPrice(check.id)
		if err != nil {
			return fmt.Errorf("price %q (%s): %w", check.name, check.id, err)
		}
		if !p.Active {
			return fmt.Errorf("price %q (%s) is not active", check.name, check.id)
		}
	}
	return nil
}

func isMissingResource(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}

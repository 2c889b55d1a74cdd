package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
)

type fakeProcessor struct {
	subs     map[string]*stripe.Subscription
	sessions map[string]*stripe.CheckoutSession
	prices   map[string]*stripe.Price

	createdCustomers  int
	sessionErr        error
	sessionErrOnce    bool
	lastSessionParams *stripe.CheckoutSessionParams
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		subs:     map[string]*stripe.Subscription{},
		sessions: map[string]*stripe.CheckoutSession{},
		prices:   map[string]*stripe.Price{},
	}
}

func (f *fakeProcessor) GetSubscription(id string) (*stripe.Subscription, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription %s", id)
	}
	return sub, nil
}

func (f *fakeProcessor) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session %s", id)
	}
	return sess, nil
}

func (f *fakeProcessor) CreateCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.createdCustomers++
	return &stripe.Customer{ID: fmt.Sprintf("cus_fake_%d", f.createdCustomers)}, nil
}

func (f *fakeProcessor) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.lastSessionParams = params
	if f.sessionErr != nil {
		err := f.sessionErr
		if f.sessionErrOnce {
			f.sessionErr = nil
		}
		return nil, err
	}
	return &stripe.CheckoutSession{ID: "cs_new", URL: "https://checkout.stripe.test/cs_new"}, nil
}

func (f *fakeProcessor) CreatePortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return &stripe.BillingPortalSession{URL: "https://portal.stripe.test/" + *params.Customer}, nil
}

func (f *fakeProcessor) GetPrice(id string) (*stripe.Price, error) {
	p, ok := f.prices[id]
	if !ok {
		return nil, fmt.Errorf("no such price %s", id)
	}
	return p, nil
}

func testStripeConfig() StripeConfig {
	return StripeConfig{
		SecretKey:     "sk_test_x",
		WebhookSecret: "whsec_x",
		BasicPriceID:  "price_basic",
		SetupPriceID:  "price_setup",
		ProPriceID:    "price_pro",
		AppBaseURL:    "https://portal.test",
	}
}

func rawEvent(t *testing.T, id, eventType string, payload any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return stripe.Event{
		ID:   id,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func activeFakeSub(id, customerID, priceID string) *stripe.Subscription {
	return &stripe.Subscription{
		ID:               id,
		Status:           stripe.SubscriptionStatusActive,
		CurrentPeriodEnd: 1790000000,
		Customer:         &stripe.Customer{ID: customerID},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{Price: &stripe.Price{ID: priceID}}},
		},
	}
}

func seedCheckoutFixture(t *testing.T, db *gorm.DB) (*db_models.Workspace, *db_models.Site, *db_models.Prospect) {
	t.Helper()
	prospect := &db_models.Prospect{
		BusinessName: "Joe's Plumbing",
		Status:       db_models.ProspectStatusPitched,
	}
	require.NoError(t, db.Create(prospect).Error)

	workspace := &db_models.Workspace{Name: "Joe's Plumbing", ProspectID: &prospect.ID}
	require.NoError(t, db.Create(workspace).Error)
	site := &db_models.Site{
		WorkspaceID: workspace.ID,
		Slug:        "joes-plumbing",
		DisplayName: "Joe's Plumbing",
		Status:      db_models.SiteStatusDemo,
	}
	require.NoError(t, db.Create(site).Error)
	return workspace, site, prospect
}

func checkoutCompletedEvent(t *testing.T, eventID string, workspace *db_models.Workspace) stripe.Event {
	return rawEvent(t, eventID, "checkout.session.completed", map[string]any{
		"id":           "cs_1",
		"customer":     "cus_1",
		"subscription": "sub_1",
		"metadata":     map[string]string{"workspace_id": workspace.ID.String()},
	})
}

func TestHandleCheckoutCompleted(t *testing.T) {
	db := newTestDB(t)
	proc := newFakeProcessor()
	proc.subs["sub_1"] = activeFakeSub("sub_1", "cus_1", "price_basic")
	mailer := &fakeMailer{}
	svc := NewStripeService(db, testStripeConfig(), proc, mailer)
	ctx := context.Background()

	workspace, _, prospect := seedCheckoutFixture(t, db)
	owner := seedUser(t, db, "joe@plumbing.test", false)
	require.NoError(t, db.Create(&db_models.WorkspaceMember{
		UserID: owner.ID, WorkspaceID: workspace.ID, Role: db_models.RoleOwner,
	}).Error)

	outcome, err := svc.HandleEvent(ctx, checkoutCompletedEvent(t, "evt_1", workspace))
	require.NoError(t, err)
	assert.Equal(t, EventProcessed, outcome)

	var bc db_models.BillingCustomer
	require.NoError(t, db.First(&bc, "workspace_id = ?", workspace.ID).Error)
	assert.Equal(t, "cus_1", bc.StripeCustomerID)

	var sub db_models.BillingSubscription
	require.NoError(t, db.First(&sub, "workspace_id = ?", workspace.ID).Error)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, db_models.SubStatusActive, sub.Status)
	assert.Equal(t, "basic", sub.Plan)

	var site db_models.Site
	require.NoError(t, db.First(&site, "workspace_id = ?", workspace.ID).Error)
	assert.Equal(t, db_models.SiteStatusActive, site.Status)

	var reloadedProspect db_models.Prospect
	require.NoError(t, db.First(&reloadedProspect, "id = ?", prospect.ID).Error)
	assert.Equal(t, db_models.ProspectStatusConverted, reloadedProspect.Status)
	require.NotNil(t, reloadedProspect.WorkspaceID)
	assert.Equal(t, workspace.ID, *reloadedProspect.WorkspaceID)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"joe@plumbing.test"}, mailer.sent[0].To)

	var ledger db_models.StripeEvent
	require.NoError(t, db.First(&ledger, "stripe_event_id = ?", "evt_1").Error)
}

func TestHandleEventIdempotency(t *testing.T) {
	db := newTestDB(t)
	proc := newFakeProcessor()
	proc.subs["sub_1"] = activeFakeSub("sub_1", "cus_1", "price_basic")
	svc := NewStripeService(db, testStripeConfig(), proc, nil)
	ctx := context.Background()

	workspace, _, _ := seedCheckoutFixture(t, db)
	event := checkoutCompletedEvent(t, "evt_dup", workspace)

	outcome, err := svc.HandleEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, EventProcessed, outcome)

	outcome, err = svc.HandleEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, EventAlreadyProcessed, outcome)

	var count int64
	require.NoError(t, db.Model(&db_models.BillingSubscription{}).
		Where("workspace_id = ?", workspace.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestHandleCheckoutMissingMetadata(t *testing.T) {
	db := newTestDB(t)
	svc := NewStripeService(db, testStripeConfig(), newFakeProcessor(), nil)

	event := rawEvent(t, "evt_bad", "checkout.session.completed", map[string]any{
		"id": "cs_anon", "customer": "cus_1", "subscription": "sub_1",
	})
	_, err := svc.HandleEvent(context.Background(), event)
	require.Error(t, err)

	// Failed deliveries leave no ledger row, so Stripe's retry reprocesses.
	var count int64
	require.NoError(t, db.Model(&db_models.StripeEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandleSubscriptionUpdated(t *testing.T) {
	db := newTestDB(t)
	proc := newFakeProcessor()
	svc := NewStripeService(db, testStripeConfig(), proc, nil)
	ctx := context.Background()

	workspace, _, _ := seedCheckoutFixture(t, db)
	require.NoError(t, db.Create(&db_models.BillingSubscription{
		WorkspaceID:          workspace.ID,
		StripeSubscriptionID: "sub_1",
		Plan:                 "basic",
		Status:               db_models.SubStatusActive,
	}).Error)

	t.Run("cancel intent recorded", func(t *testing.T) {
		event := rawEvent(t, "evt_upd1", "customer.subscription.updated", map[string]any{
			"id":                   "sub_1",
			"status":               "active",
			"cancel_at_period_end": true,
			"current_period_end":   1795000000,
			"customer":             "cus_1",
			"items":                map[string]any{"data": []map[string]any{{"price": map[string]any{"id": "price_pro"}}}},
		})
		outcome, err := svc.HandleEvent(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, EventProcessed, outcome)

		var sub db_models.BillingSubscription
		require.NoError(t, db.First(&sub, "stripe_subscription_id = ?", "sub_1").Error)
		assert.True(t, sub.CancelAtPeriodEnd)
		assert.Equal(t, db_models.SubStatusActive, sub.Status)
		assert.Equal(t, "pro", sub.Plan)
	})

	t.Run("resolves via customer when sub id is new", func(t *testing.T) {
		require.NoError(t, db.Create(&db_models.BillingCustomer{
			WorkspaceID:      workspace.ID,
			StripeCustomerID: "cus_1",
		}).Error)

		event := rawEvent(t, "evt_upd2", "customer.subscription.updated", map[string]any{
			"id":       "sub_replaced",
			"status":   "past_due",
			"customer": "cus_1",
		})
		_, err := svc.HandleEvent(ctx, event)
		require.NoError(t, err)

		var sub db_models.BillingSubscription
		require.NoError(t, db.First(&sub, "stripe_subscription_id = ?", "sub_replaced").Error)
		assert.Equal(t, db_models.SubStatusPastDue, sub.Status)
	})

	t.Run("unknown subscription acknowledged without writes", func(t *testing.T) {
		event := rawEvent(t, "evt_upd3", "customer.subscription.updated", map[string]any{
			"id": "sub_foreign", "status": "active", "customer": "cus_foreign",
		})
		outcome, err := svc.HandleEvent(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, EventProcessed, outcome)
	})
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	db := newTestDB(t)
	svc := NewStripeService(db, testStripeConfig(), newFakeProcessor(), nil)
	ctx := context.Background()

	workspace, site, _ := seedCheckoutFixture(t, db)
	require.NoError(t, db.Model(site).Update("status", string(db_models.SiteStatusActive)).Error)
	require.NoError(t, db.Create(&db_models.BillingSubscription{
		WorkspaceID:          workspace.ID,
		StripeSubscriptionID: "sub_1",
		Status:               db_models.SubStatusActive,
		CancelAtPeriodEnd:    true,
	}).Error)

	event := rawEvent(t, "evt_del", "customer.subscription.deleted", map[string]any{
		"id": "sub_1", "status": "canceled", "customer": "cus_1",
	})
	_, err := svc.HandleEvent(ctx, event)
	require.NoError(t, err)

	var sub db_models.BillingSubscription
	require.NoError(t, db.First(&sub, "stripe_subscription_id = ?", "sub_1").Error)
	assert.Equal(t, db_models.SubStatusCanceled, sub.Status)
	assert.False(t, sub.CancelAtPeriodEnd)

	var reloadedSite db_models.Site
	require.NoError(t, db.First(&reloadedSite, "id = ?", site.ID).Error)
	assert.Equal(t, db_models.SiteStatusPaused, reloadedSite.Status)
}

func TestHandleInvoiceEvents(t *testing.T) {
	db := newTestDB(t)
	svc := NewStripeService(db, testStripeConfig(), newFakeProcessor(), nil)
	ctx := context.Background()

	workspace, site, _ := seedCheckoutFixture(t, db)
	require.NoError(t, db.Model(site).Update("status", string(db_models.SiteStatusActive)).Error)
	require.NoError(t, db.Create(&db_models.BillingSubscription{
		WorkspaceID:          workspace.ID,
		StripeSubscriptionID: "sub_1",
		Status:               db_models.SubStatusActive,
	}).Error)

	t.Run("payment failed marks past_due, site stays live", func(t *testing.T) {
		event := rawEvent(t, "evt_fail", "invoice.payment_failed", map[string]any{
			"id": "in_1", "customer": "cus_1", "subscription": "sub_1",
		})
		_, err := svc.HandleEvent(ctx, event)
		require.NoError(t, err)

		var sub db_models.BillingSubscription
		require.NoError(t, db.First(&sub, "stripe_subscription_id = ?", "sub_1").Error)
		assert.Equal(t, db_models.SubStatusPastDue, sub.Status)

		var reloadedSite db_models.Site
		require.NoError(t, db.First(&reloadedSite, "id = ?", site.ID).Error)
		assert.Equal(t, db_models.SiteStatusActive, reloadedSite.Status)
	})

	t.Run("payment succeeded recovers past_due", func(t *testing.T) {
		event := rawEvent(t, "evt_ok", "invoice.payment_succeeded", map[string]any{
			"id": "in_2", "customer": "cus_1", "subscription": "sub_1",
		})
		_, err := svc.HandleEvent(ctx, event)
		require.NoError(t, err)

		var sub db_models.BillingSubscription
		require.NoError(t, db.First(&sub, "stripe_subscription_id = ?", "sub_1").Error)
		assert.Equal(t, db_models.SubStatusActive, sub.Status)
	})

	t.Run("invoice for unknown subscription is acknowledged", func(t *testing.T) {
		event := rawEvent(t, "evt_mystery", "invoice.payment_failed", map[string]any{
			"id": "in_3", "customer": "cus_x", "subscription": "sub_x",
		})
		outcome, err := svc.HandleEvent(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, EventProcessed, outcome)
	})
}

func TestHandleUnknownEventType(t *testing.T) {
	db := newTestDB(t)
	svc := NewStripeService(db, testStripeConfig(), newFakeProcessor(), nil)

	event := rawEvent(t, "evt_odd", "customer.tax_id.created", map[string]any{"id": "txi_1"})
	outcome, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, EventProcessed, outcome)

	// Recorded, so a redelivery short-circuits.
	outcome, err = svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, EventAlreadyProcessed, outcome)
}

func TestCreateCheckoutSession(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown plan rejected", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewStripeService(db, testStripeConfig(), newFakeProcessor(), nil)
		workspace, _, _ := seedCheckoutFixture(t, db)

		_, err := svc.CreateCheckoutSession(ctx, workspace.ID, "joe@test", "platinum")
		var verr *utils.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("creates customer on first checkout", func(t *testing.T) {
		db := newTestDB(t)
		proc := newFakeProcessor()
		svc := NewStripeService(db, testStripeConfig(), proc, nil)
		workspace, _, _ := seedCheckoutFixture(t, db)

		url, err := svc.CreateCheckoutSession(ctx, workspace.ID, "joe@test", "basic")
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.stripe.test/cs_new", url)
		assert.Equal(t, 1, proc.createdCustomers)

		var bc db_models.BillingCustomer
		require.NoError(t, db.First(&bc, "workspace_id = ?", workspace.ID).Error)

		require.NotNil(t, proc.lastSessionParams)
		assert.Equal(t, workspace.ID.String(), proc.lastSessionParams.Metadata["workspace_id"])
		assert.Equal(t,
			"https://portal.test/sites/joes-plumbing/billing/success?session_id={CHECKOUT_SESSION_ID}",
			*proc.lastSessionParams.SuccessURL)
	})

	t.Run("stale customer recreated and retried once", func(t *testing.T) {
		db := newTestDB(t)
		proc := newFakeProcessor()
		proc.sessionErr = &stripe.Error{Code: stripe.ErrorCodeResourceMissing}
		proc.sessionErrOnce = true
		svc := NewStripeService(db, testStripeConfig(), proc, nil)
		workspace, _, _ := seedCheckoutFixture(t, db)
		require.NoError(t, db.Create(&db_models.BillingCustomer{
			WorkspaceID:      workspace.ID,
			StripeCustomerID: "cus_stale",
		}).Error)

		url, err := svc.CreateCheckoutSession(ctx, workspace.ID, "joe@test", "pro")
		require.NoError(t, err)
		assert.NotEmpty(t, url)

		var bc db_models.BillingCustomer
		require.NoError(t, db.First(&bc, "workspace_id = ?", workspace.ID).Error)
		assert.NotEqual(t, "cus_stale", bc.StripeCustomerID)
	})
}

func TestCreatePortalSession(t *testing.T) {
	db := newTestDB(t)
	svc := NewStripeService(db, testStripeConfig(), newFakeProcessor(), nil)
	workspace, _, _ := seedCheckoutFixture(t, db)
	ctx := context.Background()

	_, err := svc.CreatePortalSession(ctx, workspace.ID)
	assert.ErrorIs(t, err, utils.ErrNoBillingCustomer)

	require.NoError(t, db.Create(&db_models.BillingCustomer{
		WorkspaceID:      workspace.ID,
		StripeCustomerID: "cus_1",
	}).Error)

	url, err := svc.CreatePortalSession(ctx, workspace.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.stripe.test/cus_1", url)
}

func TestSyncFromCheckoutSession(t *testing.T) {
	db := newTestDB(t)
	proc := newFakeProcessor()
	svc := NewStripeService(db, testStripeConfig(), proc, nil)
	ctx := context.Background()

	workspace, _, _ := seedCheckoutFixture(t, db)
	proc.subs["sub_1"] = activeFakeSub("sub_1", "cus_1", "price_basic")
	proc.sessions["cs_1"] = &stripe.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Customer:      &stripe.Customer{ID: "cus_1"},
		Subscription:  &stripe.Subscription{ID: "sub_1"},
		Metadata:      map[string]string{"workspace_id": workspace.ID.String()},
	}

	require.NoError(t, svc.SyncFromCheckoutSession(ctx, "cs_1"))

	var sub db_models.BillingSubscription
	require.NoError(t, db.First(&sub, "workspace_id = ?", workspace.ID).Error)
	assert.Equal(t, db_models.SubStatusActive, sub.Status)

	// A later webhook redelivery of the same state is a harmless upsert.
	require.NoError(t, svc.SyncFromCheckoutSession(ctx, "cs_1"))
	var count int64
	require.NoError(t, db.Model(&db_models.BillingSubscription{}).
		Where("workspace_id = ?", workspace.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

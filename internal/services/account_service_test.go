package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
)

func newAccountServiceForTest(t *testing.T) (AccountServiceInterface, InviteServiceInterface, *gorm.DB) {
	db := newTestDB(t)
	invites := NewInviteService(db, repositories.NewInviteRepository(db))
	accounts := NewAccountService(db, repositories.NewAccountRepository(db), invites)
	return accounts, invites, db
}

func TestRegisterThroughInvite(t *testing.T) {
	accounts, invites, db := newAccountServiceForTest(t)
	ctx := context.Background()
	ws, site := seedWorkspaceWithSite(t, db, "acme")
	admin := seedUser(t, db, "staff@belvieu.test", true)

	t.Run("first member becomes owner", func(t *testing.T) {
		invite, err := invites.Generate(ctx, ws.ID, site.ID, nil, admin.ID)
		require.NoError(t, err)

		result, err := accounts.Register(ctx, invite.Token, "owner@acme.test", "swordfish1", "Joe Owner")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, ws.ID, result.Workspace.ID)

		var member db_models.WorkspaceMember
		require.NoError(t, db.First(&member, "user_id = ?", result.User.ID).Error)
		assert.Equal(t, db_models.RoleOwner, member.Role)
	})

	t.Run("second member joins as member", func(t *testing.T) {
		invite, err := invites.Generate(ctx, ws.ID, site.ID, nil, admin.ID)
		require.NoError(t, err)

		result, err := accounts.Register(ctx, invite.Token, "helper@acme.test", "swordfish1", "Helper")
		require.NoError(t, err)

		var member db_models.WorkspaceMember
		require.NoError(t, db.First(&member, "user_id = ?", result.User.ID).Error)
		assert.Equal(t, db_models.RoleMember, member.Role)
	})

	t.Run("invite is consumed by registration", func(t *testing.T) {
		invite, err := invites.Generate(ctx, ws.ID, site.ID, nil, admin.ID)
		require.NoError(t, err)
		_, err = accounts.Register(ctx, invite.Token, "third@acme.test", "swordfish1", "Third")
		require.NoError(t, err)

		_, err = accounts.Register(ctx, invite.Token, "fourth@acme.test", "swordfish1", "Fourth")
		assert.ErrorIs(t, err, utils.ErrInviteUsed)
	})

	t.Run("duplicate email rejected and invite survives", func(t *testing.T) {
		invite, err := invites.Generate(ctx, ws.ID, site.ID, nil, admin.ID)
		require.NoError(t, err)

		_, err = accounts.Register(ctx, invite.Token, "owner@acme.test", "swordfish1", "Dup")
		assert.ErrorIs(t, err, utils.ErrEmailAlreadyExists)

		// The failed attempt must not burn the invite.
		_, err = invites.Validate(ctx, invite.Token)
		assert.NoError(t, err)
	})

	t.Run("locked invite rejects other emails", func(t *testing.T) {
		locked := "vip@acme.test"
		invite, err := invites.Generate(ctx, ws.ID, site.ID, &locked, admin.ID)
		require.NoError(t, err)

		_, err = accounts.Register(ctx, invite.Token, "notvip@acme.test", "swordfish1", "Not VIP")
		assert.ErrorIs(t, err, utils.ErrInviteEmailMismatch)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		invite, err := invites.Generate(ctx, ws.ID, site.ID, nil, admin.ID)
		require.NoError(t, err)

		_, err = accounts.Register(ctx, invite.Token, "weak@acme.test", "short", "Weak")
		var verr *utils.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestAccountFindByID(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewAccountRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "joe@acme.test", false)

	got, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.Email, got.Email)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLogin(t *testing.T) {
	accounts, invites, db := newAccountServiceForTest(t)
	ctx := context.Background()
	ws, site := seedWorkspaceWithSite(t, db, "acme")
	admin := seedUser(t, db, "staff@belvieu.test", true)

	invite, err := invites.Generate(ctx, ws.ID, site.ID, nil, admin.ID)
	require.NoError(t, err)
	_, err = accounts.Register(ctx, invite.Token, "joe@acme.test", "swordfish1", "Joe")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		result, err := accounts.Login(ctx, "Joe@Acme.TEST", "swordfish1")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, "joe@acme.test", result.User.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := accounts.Login(ctx, "joe@acme.test", "nope")
		assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		_, err := accounts.Login(ctx, "ghost@acme.test", "whatever")
		assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
	})

	t.Run("disabled account", func(t *testing.T) {
		require.NoError(t, db.Model(&db_models.User{}).
			Where("email = ?", "joe@acme.test").
			Update("is_active", false).Error)

		_, err := accounts.Login(ctx, "joe@acme.test", "swordfish1")
		assert.ErrorIs(t, err, utils.ErrAccountDisabled)
	})
}

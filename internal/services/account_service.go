package services

import (
	"context"
	"errors"
	"strings"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/internal/repositories"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"gorm.io/gorm"
)

// RegisterResult is what a successful invite-gated signup produces.
type RegisterResult struct {
	User      *db_models.User
	Workspace *db_models.Workspace
	Token     string
}

type LoginResult struct {
	User  *db_models.User
	Token string
}

type AccountServiceInterface interface {
	Register(ctx context.Context, inviteToken, email, password, fullName string) (*RegisterResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type accountService struct {
	db          *gorm.DB
	accountRepo repositories.AccountRepository
	invites     InviteServiceInterface
}

func NewAccountService(db *gorm.DB, accountRepo repositories.AccountRepository, invites InviteServiceInterface) AccountServiceInterface {
	return &accountService{db: db, accountRepo: accountRepo, invites: invites}
}

// Register creates an account through an invite link. There is no open
// signup: every registration is tied to a workspace via its invite. The
// first member a workspace gains becomes its owner; later invites join as
// members.
func (a *accountService) Register(ctx context.Context, inviteToken, email, password, fullName string) (*RegisterResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = utils.StripMarkup(fullName)
	if email == "" || !strings.Contains(email, "@") {
		return nil, utils.Validationf("a valid email address is required")
	}
	if len(password) < 8 {
		return nil, utils.Validationf("password must be at least 8 characters")
	}

	invite, err := a.invites.ValidateForEmail(ctx, inviteToken, email)
	if err != nil {
		return nil, err
	}

	existing, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, utils.ErrEmailAlreadyExists
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &db_models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     true,
	}

	var workspace db_models.Workspace
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", invite.WorkspaceID).First(&workspace).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrWorkspaceNotFound
			}
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.ErrEmailAlreadyExists
			}
			return err
		}

		var ownerCount int64
		if err := tx.Model(&db_models.WorkspaceMember{}).
			Where("workspace_id = ? AND role = ?", workspace.ID, db_models.RoleOwner).
			Count(&ownerCount).Error; err != nil {
			return err
		}
		role := db_models.RoleMember
		if ownerCount == 0 {
			role = db_models.RoleOwner
		}
		if err := tx.Create(&db_models.WorkspaceMember{
			UserID:      user.ID,
			WorkspaceID: workspace.ID,
			Role:        role,
		}).Error; err != nil {
			return err
		}

		if err := a.invites.Consume(tx, invite); err != nil {
			return err
		}
		recordAudit(tx, &workspace.ID, &user.ID, "user.registered", map[string]any{
			"email": user.Email,
			"role":  string(role),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := utils.CreateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{User: user, Workspace: &workspace, Token: token}, nil
}

func (a *accountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	// Same error for unknown email and wrong password.
	if user == nil {
		return nil, utils.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(user.PasswordHash, password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, utils.ErrAccountDisabled
	}

	token, err := utils.CreateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

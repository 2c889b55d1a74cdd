package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

// Workspace is the top-level tenant container, one per client business.
type Workspace struct {
	BaseModel
	Name       string     `gorm:"not null"`
	ProspectID *uuid.UUID `gorm:"index"` // prospect this workspace was converted from
}

type WorkspaceMember struct {
	BaseModel
	UserID      uuid.UUID  `gorm:"index;uniqueIndex:uq_user_workspace"`
	WorkspaceID uuid.UUID  `gorm:"index;uniqueIndex:uq_user_workspace"`
	Role        MemberRole `gorm:"default:owner"` // owner | member
}

type WorkspaceSettings struct {
	BaseModel
	WorkspaceID       uuid.UUID `gorm:"uniqueIndex;not null"`
	BrandColor        string    `gorm:"size:7"`
	PlanFeatures      datatypes.JSON
	UpdateAllowance   *int // monthly content-update quota, nil = unlimited
	NotificationPrefs datatypes.JSON
}

package model

import (
	"time"
)

// Group 用户组，grantee 解析按 name 匹配.
type Group struct {
	ID          uint   `gorm:"primaryKey"           json:"id"`
	Name        string `gorm:"size:255;uniqueIndex" json:"name"`
	Description string `gorm:"type:text"            json:"description"`

	Memberships []GroupMembership `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupMembership 用户-组关系.
type GroupMembership struct {
	GroupID uint `gorm:"primaryKey" json:"group_id"`
	UserID  uint `gorm:"primaryKey" json:"user_id"`
}

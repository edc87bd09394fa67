package model

import (
	"time"
)

// MemberType 项目成员类型，用户或用户组.
type MemberType string

const (
	MemberUser  MemberType = "user"
	MemberGroup MemberType = "group"
)

// Project 项目，grantee 解析按 name 匹配.
type Project struct {
	ID          uint   `gorm:"primaryKey"           json:"id"`
	Name        string `gorm:"size:255;uniqueIndex" json:"name"`
	Description string `gorm:"type:text"            json:"description"`

	Memberships []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectMembership 项目成员关系，member_id 按 member_type 指向用户或用户组.
type ProjectMembership struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ProjectID  uint       `gorm:"index:idx_project_member,unique" json:"project_id"`
	MemberType MemberType `gorm:"size:16;index:idx_project_member,unique" json:"member_type"`
	MemberID   uint       `gorm:"index:idx_project_member,unique" json:"member_id"`
}

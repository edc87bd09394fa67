package model

import (
	"time"
)

// UserRole 用户角色. admin 绕过访问解析规则，可见所有记录.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// User 用户，grantee 解析按 email 匹配.
type User struct {
	ID    uint     `gorm:"primaryKey"           json:"id"`
	Email string   `gorm:"size:255;uniqueIndex" json:"email"`
	Name  string   `gorm:"size:255"             json:"name"`
	Role  UserRole `gorm:"size:16;default:user" json:"role"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin 判断是否为特权用户.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

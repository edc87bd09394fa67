package model

import (
	"time"
)

// GranteeType 授权对象类型.
type GranteeType string

const (
	GranteeUser    GranteeType = "user"
	GranteeGroup   GranteeType = "group"
	GranteeProject GranteeType = "project"
)

// ValidGranteeType 判断授权对象类型是否合法.
func ValidGranteeType(t GranteeType) bool {
	switch t {
	case GranteeUser, GranteeGroup, GranteeProject:
		return true
	default:
		return false
	}
}

// FileAccessGrant 文件访问授权，(file, grantee_type, grantee_id) 三元组.
// 同一对象的重复授权无害但冗余，不做唯一约束.
type FileAccessGrant struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	FileID      uint        `gorm:"index"      json:"file_id"`
	GranteeType GranteeType `gorm:"size:16"    json:"grantee_type"`
	GranteeID   uint        `gorm:"index"      json:"grantee_id"`
	GrantedAt   time.Time   `gorm:"autoCreateTime" json:"granted_at"`
}

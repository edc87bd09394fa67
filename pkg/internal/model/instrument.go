// Package model 定义采集服务的数据库模型.
package model

import (
	"time"
)

// 传输适配器类型.
const (
	AdapterRclone = "rclone"
	AdapterGlobus = "globus"
	AdapterRsync  = "rsync"
)

// ServiceAccount 访问仪器共享目录的服务账号，密码加密存储.
type ServiceAccount struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:255"   json:"name"`
	Domain   string `gorm:"size:255"   json:"domain"`
	Username string `gorm:"size:255"   json:"username"`
	// PasswordEncrypted secretbox 加密后 base64 编码的密码，仅在构造适配器时解密
	PasswordEncrypted string `gorm:"type:text" json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Instrument 科学仪器，文件经 SMB/CIFS 共享目录对外可见.
type Instrument struct {
	ID          uint   `gorm:"primaryKey"            json:"id"`
	Name        string `gorm:"size:255;uniqueIndex"  json:"name"`
	Description string `gorm:"type:text"             json:"description"`
	Location    string `gorm:"size:255"              json:"location"`

	// CIFS 连接信息
	CIFSHost     string `gorm:"size:255"  json:"cifs_host"`
	CIFSShare    string `gorm:"size:255"  json:"cifs_share"`
	CIFSBasePath string `gorm:"size:1024" json:"cifs_base_path"`

	ServiceAccountID *uint  `gorm:"index"                        json:"service_account_id"`
	Adapter          string `gorm:"size:32;default:rclone"       json:"adapter"`
	Enabled          bool   `gorm:"default:true"                 json:"enabled"`

	ServiceAccount *ServiceAccount   `gorm:"foreignKey:ServiceAccountID" json:"-"`
	Hooks          []HookConfig      `gorm:"foreignKey:InstrumentID"     json:"-"`
	Schedules      []HarvestSchedule `gorm:"foreignKey:InstrumentID"     json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

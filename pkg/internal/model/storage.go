package model

import (
	"time"
)

// StorageType 存储位置类型.
type StorageType string

const (
	StoragePosix StorageType = "posix"
	StorageS3    StorageType = "s3"
	StorageCIFS  StorageType = "cifs"
	StorageNFS   StorageType = "nfs"
)

// StorageLocation 采集文件的落盘目的地. s3 类型在传输完成后追加归档上传.
type StorageLocation struct {
	ID       uint        `gorm:"primaryKey"   json:"id"`
	Name     string      `gorm:"size:255"     json:"name"`
	Type     StorageType `gorm:"size:16"      json:"type"`
	BasePath string      `gorm:"size:1024"    json:"base_path"`
	// Bucket s3 类型存储位置的目标桶，空串时回落到全局配置
	Bucket  string `gorm:"size:255"     json:"bucket"`
	Enabled bool   `gorm:"default:true" json:"enabled"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

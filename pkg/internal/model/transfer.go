package model

import (
	"time"
)

// TransferStatus 传输生命周期状态.
type TransferStatus string

const (
	TransferPending    TransferStatus = "pending"
	TransferInProgress TransferStatus = "in_progress"
	TransferCompleted  TransferStatus = "completed"
	TransferFailed     TransferStatus = "failed"
	TransferSkipped    TransferStatus = "skipped"
)

// FileTransfer 一次传输尝试，一个 FileRecord 可以有多次尝试（重定向、重试）.
type FileTransfer struct {
	ID                uint           `gorm:"primaryKey"              json:"id"`
	FileID            uint           `gorm:"index"                   json:"file_id"`
	StorageLocationID uint           `gorm:"index"                   json:"storage_location_id"`
	DestinationPath   string         `gorm:"size:2048"               json:"destination_path"`
	Adapter           string         `gorm:"size:32"                 json:"adapter"`
	Status            TransferStatus `gorm:"size:16;default:pending" json:"status"`
	BytesTransferred  int64          `json:"bytes_transferred"`
	SourceChecksum    string         `gorm:"size:128"  json:"source_checksum"`
	DestChecksum      string         `gorm:"size:128"  json:"dest_checksum"`
	ChecksumVerified  bool           `json:"checksum_verified"`
	StartedAt         *time.Time     `json:"started_at"`
	CompletedAt       *time.Time     `json:"completed_at"`
	ErrorMessage      string         `gorm:"type:text" json:"error_message"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

package types

import "time"

// FileInfo 对外展示的文件记录.
type FileInfo struct {
	ID                uint           `json:"id"`
	PersistentID      string         `json:"persistent_id"`
	InstrumentID      uint           `json:"instrument_id"`
	SourcePath        string         `json:"source_path"`
	Filename          string         `json:"filename"`
	SizeBytes         int64          `json:"size_bytes"`
	DestChecksum      string         `json:"dest_checksum,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	FirstDiscoveredAt time.Time      `json:"first_discovered_at"`
}

// ListFilesResponse 当前用户可见文件的列表.
type ListFilesResponse struct {
	Files []FileInfo `json:"files"`
	Total int        `json:"total"`
}

// CreateGrantRequest 为文件追加访问授权的请求体.
type CreateGrantRequest struct {
	FileID      uint   `json:"file_id"      binding:"required"`
	GranteeType string `json:"grantee_type" binding:"required,oneof=user group project"`
	GranteeID   uint   `json:"grantee_id"   binding:"required"`
}

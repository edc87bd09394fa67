package model

import (
	"time"

	"github.com/bytedance/sonic"
)

// 持久标识符方案.
const (
	SchemeARK    = "ark"
	SchemeDOI    = "doi"
	SchemeHandle = "handle"
)

// FileRecord 采集到的文件记录，每个文件最多采集一次.
// (instrument_id, source_path) 唯一约束是去重的外部契约，由存储层强制.
type FileRecord struct {
	ID                 uint   `gorm:"primaryKey"           json:"id"`
	PersistentID       string `gorm:"size:255;uniqueIndex" json:"persistent_id"`
	PersistentIDScheme string `gorm:"size:16"              json:"persistent_id_scheme"`

	InstrumentID uint   `gorm:"index:idx_instrument_source,unique"          json:"instrument_id"`
	SourcePath   string `gorm:"size:1024;index:idx_instrument_source,unique" json:"source_path"`
	Filename     string `gorm:"size:512;index"                              json:"filename"`
	SizeBytes    int64  `json:"size_bytes"`
	// SourceMtime 远端文件的修改时间，列表未提供时为空
	SourceMtime *time.Time `json:"source_mtime"`
	// DestChecksum 目标文件的 xxhash64 十六进制校验和，传输成功后回填
	DestChecksum string `gorm:"size:64" json:"dest_checksum"`
	// MetadataJSON 任意键值元数据，以 JSON 字符串存储，由后置钩子写入
	MetadataJSON      string    `gorm:"type:text" json:"metadata_json"`
	FirstDiscoveredAt time.Time `json:"first_discovered_at"`
	OwnerID           *uint     `gorm:"index" json:"owner_id"`

	Transfers    []FileTransfer    `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"-"`
	AccessGrants []FileAccessGrant `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Metadata 解码元数据 JSON，空串返回空 map.
func (f *FileRecord) Metadata() (map[string]any, error) {
	if f.MetadataJSON == "" {
		return map[string]any{}, nil
	}

	var m map[string]any
	if err := sonic.UnmarshalString(f.MetadataJSON, &m); err != nil {
		return nil, err
	}

	return m, nil
}

// MergeMetadata 将 updates 合并进元数据（同键后者覆盖）并重新编码.
func (f *FileRecord) MergeMetadata(updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	current, err := f.Metadata()
	if err != nil {
		return err
	}

	for k, v := range updates {
		current[k] = v
	}

	encoded, err := sonic.MarshalString(current)
	if err != nil {
		return err
	}

	f.MetadataJSON = encoded

	return nil
}

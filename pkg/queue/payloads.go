package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileRef 标识一个采集入库的文件.
type FileRef struct {
	FileID       uint   `json:"file_id"`
	PersistentID string `json:"persistent_id,omitempty"`
	SourcePath   string `json:"source_path"`
	Filename     string `json:"filename"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
	Checksum     string `json:"checksum,omitempty"`
}

// FileHarvestedPayload 文件传输完成并入库.
type FileHarvestedPayload struct {
	File             FileRef `json:"file"`
	InstrumentID     uint    `json:"instrument_id"`
	InstrumentName   string  `json:"instrument_name"`
	DestinationPath  string  `json:"destination_path"`
	BytesTransferred int64   `json:"bytes_transferred"`
}

// FileSkippedPayload 文件被前置钩子跳过.
type FileSkippedPayload struct {
	File           FileRef `json:"file"`
	InstrumentID   uint    `json:"instrument_id"`
	InstrumentName string  `json:"instrument_name"`
	Reason         string  `json:"reason,omitempty"`
}

// FileFailedPayload 文件传输失败.
type FileFailedPayload struct {
	File           FileRef `json:"file"`
	InstrumentID   uint    `json:"instrument_id"`
	InstrumentName string  `json:"instrument_name"`
	Error          string  `json:"error,omitempty"`
}

// RunCompletedPayload 一次采集运行结束.
type RunCompletedPayload struct {
	InstrumentID   uint   `json:"instrument_id"`
	InstrumentName string `json:"instrument_name"`
	ScheduleID     uint   `json:"schedule_id"`
	Discovered     int    `json:"discovered"`
	New            int    `json:"new"`
	Transferred    int    `json:"transferred"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
}

// AccessGrantedPayload 创建了新的访问授权.
type AccessGrantedPayload struct {
	FileID      uint   `json:"file_id"`
	GranteeType string `json:"grantee_type"`
	GranteeID   uint   `json:"grantee_id"`
}

package model

import (
	"time"

	"github.com/bytedance/sonic"
)

// HookTrigger 钩子触发阶段，相对实际文件拷贝的前后.
type HookTrigger string

const (
	TriggerPreTransfer  HookTrigger = "pre_transfer"
	TriggerPostTransfer HookTrigger = "post_transfer"
)

// HookKind 钩子实现类型. 目前仅支持 builtin，其余类型在查找时显式拒绝.
type HookKind string

const (
	HookKindBuiltin HookKind = "builtin"
	HookKindScript  HookKind = "script"
	HookKindWebhook HookKind = "webhook"
)

// HookConfig 声明一个钩子：触发阶段、实现、优先级（小者先执行）与不透明配置载荷.
type HookConfig struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"size:255"   json:"name"`
	Description string      `gorm:"type:text"  json:"description"`
	Trigger     HookTrigger `gorm:"size:16"    json:"trigger"`
	Kind        HookKind    `gorm:"size:16;default:builtin" json:"kind"`
	// BuiltinName builtin 实现的注册名，如 file_filter
	BuiltinName string `gorm:"size:255" json:"builtin_name"`
	// ConfigJSON 由具体钩子实现解释的配置载荷
	ConfigJSON   string `gorm:"type:text"    json:"config_json"`
	InstrumentID *uint  `gorm:"index"        json:"instrument_id"`
	Priority     int    `gorm:"default:0"    json:"priority"`
	Enabled      bool   `gorm:"default:true" json:"enabled"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UnmarshalConfig 将配置载荷解码到钩子实现自己的配置结构.
func (h *HookConfig) UnmarshalConfig(v any) error {
	if h.ConfigJSON == "" {
		return nil
	}

	return sonic.UnmarshalString(h.ConfigJSON, v)
}

package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS    MQType = "nats"
	MQTypeChannel MQType = "channel"

	DefaultMQEnabled     = false                 // 默认不启用事件发布
	DefaultMQURL         = "nats://localhost:4222"
	DefaultMQClientID    = "streamweave-app"     // 默认客户端ID
	DefaultMaxReconnects = 5                     // 默认最大重连次数
	DefaultReconnectWait = 5                     // 默认重连等待时间（秒）
)

// MQConfig 消息队列配置. channel 类型使用进程内 gochannel 实现，便于测试与单机部署.
type MQConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Type          MQType `mapstructure:"type"           rule:"oneof=nats channel"`
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"client_id"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	MaxReconnects int    `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.enabled", DefaultMQEnabled)
	v.SetDefault("mq.type", MQTypeChannel)
	v.SetDefault("mq.url", DefaultMQURL)
	v.SetDefault("mq.client_id", DefaultMQClientID)
	v.SetDefault("mq.user", "")
	v.SetDefault("mq.password", "")
	v.SetDefault("mq.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.reconnect_wait", DefaultReconnectWait)
}

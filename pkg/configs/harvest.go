package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultARKNaan      = "99999"  // 默认 ARK NAAN（测试保留号段）
	DefaultARKShoulder  = "fk4"    // 默认 ARK shoulder
	DefaultIDScheme     = "ark"    // 默认持久标识符方案
	DefaultRcloneBinary = "rclone" // 默认 rclone 可执行文件
	DefaultWorkers      = 1        // 默认单文件处理并发数（与参考行为一致的串行处理）
	DefaultFileTimeout  = 30       // 单文件传输超时（分钟）
)

// HarvestConfig 采集管线配置.
type HarvestConfig struct {
	// ARKNaan 持久标识符的 NAAN 号段.
	ARKNaan string `mapstructure:"ark_naan"`
	// ARKShoulder 持久标识符的 shoulder 前缀.
	ARKShoulder string `mapstructure:"ark_shoulder"`
	// IDScheme 默认标识符方案，目前仅支持 ark.
	IDScheme string `mapstructure:"id_scheme" rule:"oneof=ark doi handle"`
	// RcloneBinary rclone 可执行文件路径.
	RcloneBinary string `mapstructure:"rclone_binary"`
	// Workers 单次运行内并行处理文件的 worker 数量，1 表示串行.
	Workers int `mapstructure:"workers" rule:"min=1,max=64"`
	// FileTimeoutMinutes 单文件传输的超时时间（分钟）.
	FileTimeoutMinutes int `mapstructure:"file_timeout_minutes" rule:"min=1"`
	// EncryptionKey 服务账号密码加密密钥（base64 编码的 32 字节）.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// GetFileTimeout 返回单文件传输超时时间.
func (c *HarvestConfig) GetFileTimeout() time.Duration {
	return time.Duration(c.FileTimeoutMinutes) * time.Minute
}

func (c *HarvestConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("harvest.ark_naan", DefaultARKNaan)
	v.SetDefault("harvest.ark_shoulder", DefaultARKShoulder)
	v.SetDefault("harvest.id_scheme", DefaultIDScheme)
	v.SetDefault("harvest.rclone_binary", DefaultRcloneBinary)
	v.SetDefault("harvest.workers", DefaultWorkers)
	v.SetDefault("harvest.file_timeout_minutes", DefaultFileTimeout)
	v.SetDefault("harvest.encryption_key", "")
}

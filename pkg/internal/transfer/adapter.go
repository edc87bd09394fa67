// Package transfer 定义传输适配器抽象及其基于 rclone 子进程的 SMB/CIFS 实现.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeisme/streamweave/pkg/configs"
	"github.com/yeisme/streamweave/pkg/internal/model"
	"github.com/yeisme/streamweave/pkg/internal/secrets"
)

// DiscoveredFile 远端列举出的一个文件.
type DiscoveredFile struct {
	// Path 相对仪器 base path 的路径
	Path      string
	Filename  string
	SizeBytes int64
	ModTime   *time.Time
}

// TransferResult 单文件传输的结果. 子进程失败以 Success=false 表达，
// 不作为 error 返回.
type TransferResult struct {
	Success          bool
	SourcePath       string
	DestinationPath  string
	BytesTransferred int64
	DestChecksum     string
	// ChecksumVerified 源端无校验和可比对时为 false
	ChecksumVerified bool
	ErrorMessage     string
}

// Adapter 传输适配器的最小能力集. 实现按仪器逐次构造，不跨仪器复用.
type Adapter interface {
	// Discover 递归列举远端文件，不含目录项
	Discover(ctx context.Context) ([]DiscoveredFile, error)
	// Transfer 拷贝单个文件并对目标重新计算校验和
	Transfer(ctx context.Context, sourcePath, destPath string) *TransferResult
	// Checksum 计算本地文件的 64 位非加密哈希（hex）
	Checksum(ctx context.Context, localPath string) (string, error)
}

var (
	// ErrAdapterNotSupported 仪器声明的适配器类型尚未实现.
	ErrAdapterNotSupported = errors.New("transfer: adapter type not supported")
	// ErrNoServiceAccount 仪器未配置服务账号.
	ErrNoServiceAccount = errors.New("transfer: instrument has no service account")
)

const defaultSMBDomain = "WORKGROUP"

// NewAdapter 按仪器配置构造适配器，服务账号密码在这里解密.
// 配置错误（不支持的适配器、缺失凭据）在任何文件被触碰前失败.
func NewAdapter(cfg *configs.HarvestConfig, inst *model.Instrument, box *secrets.Box) (Adapter, error) {
	if inst.Adapter != model.AdapterRclone {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotSupported, inst.Adapter)
	}

	sa := inst.ServiceAccount
	if sa == nil {
		return nil, fmt.Errorf("%w: instrument %s", ErrNoServiceAccount, inst.Name)
	}

	password, err := box.Decrypt(sa.PasswordEncrypted)
	if err != nil {
		return nil, fmt.Errorf("transfer: decrypt credentials for instrument %s: %w", inst.Name, err)
	}

	domain := sa.Domain
	if domain == "" {
		domain = defaultSMBDomain
	}

	return NewRcloneAdapter(RcloneOptions{
		Binary:   cfg.RcloneBinary,
		Host:     inst.CIFSHost,
		Share:    inst.CIFSShare,
		BasePath: inst.CIFSBasePath,
		User:     sa.Username,
		Password: password,
		Domain:   domain,
	}), nil
}

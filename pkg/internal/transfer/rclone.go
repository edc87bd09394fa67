package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
)

const (
	// stderrTruncateLimit 错误信息中 stderr 的最大长度
	stderrTruncateLimit = 2048
	checksumBufferSize  = 64 * 1024
)

// RcloneOptions rclone 适配器的连接参数.
type RcloneOptions struct {
	Binary   string
	Host     string
	Share    string
	BasePath string
	User     string
	Password string
	Domain   string
}

// commandRunner 执行子进程并返回 stdout/stderr，测试中可替换.
type commandRunner func(ctx context.Context, extraEnv []string, name string, args ...string) (stdout, stderr []byte, err error)

// RcloneAdapter 基于 rclone 子进程的 SMB/CIFS 适配器.
//
// 不写任何共享配置文件：连接参数全部通过命令行参数与环境变量传入，
// 不同仪器的并发采集之间没有共享状态. 密码经 rclone obscure 变换后
// 通过 RCLONE_SMB_PASS 传递，首次使用时计算并缓存.
type RcloneAdapter struct {
	opts RcloneOptions
	run  commandRunner

	obscureOnce sync.Once
	obscured    string
	obscureErr  error
}

// NewRcloneAdapter 构造 rclone 适配器.
func NewRcloneAdapter(opts RcloneOptions) *RcloneAdapter {
	if opts.Binary == "" {
		opts.Binary = "rclone"
	}

	return &RcloneAdapter{opts: opts, run: execRunner}
}

// execRunner 默认的子进程执行器.
func execRunner(ctx context.Context, extraEnv []string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.Bytes(), stderr.Bytes(), err
}

// obscurePassword 调用 rclone obscure 变换密码，适配器生命周期内只计算一次.
func (a *RcloneAdapter) obscurePassword(ctx context.Context) (string, error) {
	a.obscureOnce.Do(func() {
		stdout, stderr, err := a.run(ctx, nil, a.opts.Binary, "obscure", a.opts.Password)
		if err != nil {
			a.obscureErr = fmt.Errorf("rclone obscure failed: %w: %s", err, truncate(stderr))

			return
		}

		a.obscured = strings.TrimSpace(string(stdout))
	})

	return a.obscured, a.obscureErr
}

// remotePath 构造 rclone 远端路径 :smb:<share>/<base>/<path>.
func (a *RcloneAdapter) remotePath(path string) string {
	parts := []string{a.opts.Share}

	if base := strings.Trim(a.opts.BasePath, "/"); base != "" {
		parts = append(parts, base)
	}

	if path != "" {
		parts = append(parts, path)
	}

	return ":smb:" + strings.Join(parts, "/")
}

func (a *RcloneAdapter) baseFlags() []string {
	return []string{
		"--smb-host", a.opts.Host,
		"--smb-user", a.opts.User,
		"--smb-domain", a.opts.Domain,
	}
}

func (a *RcloneAdapter) env(ctx context.Context) ([]string, error) {
	pass, err := a.obscurePassword(ctx)
	if err != nil {
		return nil, err
	}

	return []string{"RCLONE_SMB_PASS=" + pass}, nil
}

// lsjsonEntry rclone lsjson 输出的条目.
type lsjsonEntry struct {
	Path    string `json:"Path"`
	Name    string `json:"Name"`
	Size    int64  `json:"Size"`
	ModTime string `json:"ModTime"`
	IsDir   bool   `json:"IsDir"`
}

// Discover 通过 rclone lsjson --recursive 列举远端文件，排除目录项.
func (a *RcloneAdapter) Discover(ctx context.Context) ([]DiscoveredFile, error) {
	env, err := a.env(ctx)
	if err != nil {
		return nil, err
	}

	args := append([]string{"lsjson", "--recursive"}, a.baseFlags()...)
	args = append(args, a.remotePath(""))

	stdout, stderr, err := a.run(ctx, env, a.opts.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("rclone lsjson failed: %w: %s", err, truncate(stderr))
	}

	var entries []lsjsonEntry
	if err := sonic.Unmarshal(stdout, &entries); err != nil {
		return nil, fmt.Errorf("parse lsjson output: %w", err)
	}

	files := make([]DiscoveredFile, 0, len(entries))

	for _, e := range entries {
		if e.IsDir {
			continue
		}

		var modTime *time.Time
		if t, perr := time.Parse(time.RFC3339, e.ModTime); perr == nil {
			modTime = &t
		}

		files = append(files, DiscoveredFile{
			Path:      e.Path,
			Filename:  e.Name,
			SizeBytes: e.Size,
			ModTime:   modTime,
		})
	}

	return files, nil
}

// Transfer 通过 rclone copyto 拷贝单个文件. 成功后重新读取目标文件计算
// 校验和；源端没有可比对的校验和，ChecksumVerified 恒为 false.
func (a *RcloneAdapter) Transfer(ctx context.Context, sourcePath, destPath string) *TransferResult {
	fail := func(msg string) *TransferResult {
		return &TransferResult{
			Success:         false,
			SourcePath:      sourcePath,
			DestinationPath: destPath,
			ErrorMessage:    msg,
		}
	}

	env, err := a.env(ctx)
	if err != nil {
		return fail(err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fail(fmt.Sprintf("create destination directory: %v", err))
	}

	args := append([]string{"copyto"}, a.baseFlags()...)
	args = append(args, a.remotePath(sourcePath), destPath)

	if _, stderr, err := a.run(ctx, env, a.opts.Binary, args...); err != nil {
		return fail(fmt.Sprintf("rclone copyto failed: %v: %s", err, truncate(stderr)))
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return fail("destination file not found after transfer")
	}

	checksum, err := a.Checksum(ctx, destPath)
	if err != nil {
		return fail(fmt.Sprintf("checksum destination: %v", err))
	}

	return &TransferResult{
		Success:          true,
		SourcePath:       sourcePath,
		DestinationPath:  destPath,
		BytesTransferred: info.Size(),
		DestChecksum:     checksum,
		ChecksumVerified: false,
	}
}

// Checksum 流式计算 xxhash64，hex 编码（16 位定长）.
func (a *RcloneAdapter) Checksum(_ context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()

	buf := make([]byte, checksumBufferSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// truncate 截断 stderr 供日志与错误信息使用.
func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > stderrTruncateLimit {
		return s[:stderrTruncateLimit] + "...(truncated)"
	}

	return s
}

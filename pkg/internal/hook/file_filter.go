package hook

import (
	"context"
	"fmt"

	"github.com/yeisme/streamweave/pkg/internal/model"
)

// BuiltinFileFilter 文件过滤钩子的注册名.
const BuiltinFileFilter = "file_filter"

func init() {
	RegisterBuiltin(BuiltinFileFilter, newFileFilter)
}

// redirectRule 重定向规则：匹配的文件改写目标路径.
type redirectRule struct {
	Pattern     string `json:"pattern"`
	Destination string `json:"destination"`
}

// fileFilterConfig 过滤钩子配置. 所有模式以 shell-glob 语义同时匹配
// 文件名与完整路径.
type fileFilterConfig struct {
	Include  []string       `json:"include"`
	Exclude  []string       `json:"exclude"`
	Redirect []redirectRule `json:"redirect"`
}

type fileFilter struct {
	cfg fileFilterConfig
}

func newFileFilter(hc *model.HookConfig) (Hook, error) {
	f := &fileFilter{}
	if err := hc.UnmarshalConfig(&f.cfg); err != nil {
		return nil, fmt.Errorf("file_filter config: %w", err)
	}

	return f, nil
}

// Execute 依次评估：重定向规则（首个命中生效）、排除模式（命中即 skip）、
// 包含模式（非空时必须命中其一，否则 skip）.
func (f *fileFilter) Execute(_ context.Context, hctx *Context) (*Result, error) {
	match := func(pattern string) bool {
		return matchGlob(pattern, hctx.Filename) || matchGlob(pattern, hctx.SourcePath)
	}

	for _, r := range f.cfg.Redirect {
		if match(r.Pattern) {
			return &Result{
				Action:       ActionRedirect,
				RedirectPath: r.Destination,
				Message:      fmt.Sprintf("redirected by pattern %q", r.Pattern),
			}, nil
		}
	}

	for _, p := range f.cfg.Exclude {
		if match(p) {
			return &Result{
				Action:  ActionSkip,
				Message: fmt.Sprintf("excluded by pattern %q", p),
			}, nil
		}
	}

	if len(f.cfg.Include) > 0 {
		for _, p := range f.cfg.Include {
			if match(p) {
				return Proceed(), nil
			}
		}

		return &Result{
			Action:  ActionSkip,
			Message: "no include pattern matched",
		}, nil
	}

	return Proceed(), nil
}

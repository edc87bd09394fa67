package hook

import (
	"errors"
	"fmt"

	"github.com/yeisme/streamweave/pkg/internal/model"
)

var (
	// ErrUnknownBuiltin builtin 注册名未知.
	ErrUnknownBuiltin = errors.New("hook: unknown builtin name")
	// ErrUnsupportedKind 实现类型暂不支持（script、webhook）.
	ErrUnsupportedKind = errors.New("hook: unsupported hook kind")
)

// Constructor 从 HookConfig 构造钩子实例，配置载荷在这里解码与校验.
type Constructor func(hc *model.HookConfig) (Hook, error)

var builtins = map[string]Constructor{}

// RegisterBuiltin 注册 builtin 钩子构造器，包 init 时调用.
func RegisterBuiltin(name string, ctor Constructor) {
	builtins[name] = ctor
}

// Build 按配置构造钩子实例. 未知名称与非 builtin 类型在这里显式拒绝，
// 不会延迟到执行期.
func Build(hc *model.HookConfig) (Hook, error) {
	if hc.Kind != model.HookKindBuiltin {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, hc.Kind)
	}

	ctor, ok := builtins[hc.BuiltinName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuiltin, hc.BuiltinName)
	}

	return ctor(hc)
}

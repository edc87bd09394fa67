package hook

import (
	"context"
	"fmt"
	"sort"

	"github.com/yeisme/streamweave/pkg/internal/model"
	nlog "github.com/yeisme/streamweave/pkg/log"
)

// Runner 按阶段执行一组钩子配置.
//
// 行为按阶段区分：
//   - pre_transfer：顺序执行，首个 skip/redirect 结果立即短路返回；proceed 的
//     元数据更新并入累加器后继续.
//   - post_transfer：全部执行，不短路；元数据从左到右合并（后者覆盖同名键），
//     授权请求按顺序拼接.
//
// 钩子构造失败、执行报错或 panic 均被捕获并记录，视作该钩子未运行.
type Runner struct{}

// NewRunner 创建钩子执行器.
func NewRunner() *Runner {
	return &Runner{}
}

// Run 选出 enabled 且触发阶段匹配的钩子，按优先级升序（同优先级保持插入序）
// 执行，返回聚合结果.
func (r *Runner) Run(ctx context.Context, trigger model.HookTrigger, hcs []model.HookConfig, hctx *Context) *Result {
	selected := make([]model.HookConfig, 0, len(hcs))

	for _, hc := range hcs {
		if hc.Enabled && hc.Trigger == trigger {
			selected = append(selected, hc)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Priority < selected[j].Priority
	})

	out := &Result{Action: ActionProceed, MetadataUpdates: map[string]any{}}

	for i := range selected {
		hc := &selected[i]

		res := r.execOne(ctx, hc, hctx)
		if res == nil {
			continue
		}

		// 更新立刻并入 hctx，后续钩子（如按元数据字段取值的授权钩子）
		// 观察到的是累加后的元数据
		hctx.Metadata = mergeMetadata(hctx.Metadata, res.MetadataUpdates)

		if trigger == model.TriggerPreTransfer && (res.Action == ActionSkip || res.Action == ActionRedirect) {
			// 短路：该结果的 message 与 redirect 路径具有最终效力
			res.MetadataUpdates = mergeMetadata(out.MetadataUpdates, res.MetadataUpdates)

			return res
		}

		out.MetadataUpdates = mergeMetadata(out.MetadataUpdates, res.MetadataUpdates)
		out.Grants = append(out.Grants, res.Grants...)
	}

	return out
}

// execOne 构造并执行单个钩子，任何失败都只记录并返回 nil.
func (r *Runner) execOne(ctx context.Context, hc *model.HookConfig, hctx *Context) (res *Result) {
	defer func() {
		if p := recover(); p != nil {
			nlog.Logger().Error().
				Str("hook", hc.Name).
				Interface("panic", p).
				Msg("hook panicked, contribution skipped")

			res = nil
		}
	}()

	h, err := Build(hc)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("hook", hc.Name).Msg("hook build failed, skipped")

		return nil
	}

	res, err = h.Execute(ctx, hctx)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("hook", hc.Name).Msg("hook execution failed, contribution skipped")

		return nil
	}

	return res
}

// mergeMetadata 合并元数据更新，updates 覆盖 base 中的同名键.
func mergeMetadata(base, updates map[string]any) map[string]any {
	if base == nil {
		base = map[string]any{}
	}

	for k, v := range updates {
		base[k] = v
	}

	return base
}

// truthy 判断元数据值是否为"真值"：非 nil、非空串、非零、非 false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return fmt.Sprintf("%v", t) != ""
	}
}

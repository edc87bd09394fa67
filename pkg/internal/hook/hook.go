// Package hook 实现采集管线的钩子契约与执行器.
//
// 钩子消费一个 Context（文件与传输信息）并产出一个 Result（动作、元数据更新、
// 授权请求）. 钩子对 Context 只读，持久化由编排器负责.
package hook

import (
	"context"

	"github.com/yeisme/streamweave/pkg/internal/model"
)

// Action 钩子建议的动作.
type Action string

const (
	ActionProceed  Action = "proceed"
	ActionSkip     Action = "skip"
	ActionRedirect Action = "redirect"
)

// Context 钩子的输入：文件与本次传输的快照.
type Context struct {
	SourcePath      string
	Filename        string
	InstrumentID    uint
	InstrumentName  string
	SizeBytes       int64
	DestinationPath string
	// Metadata 累积的文件元数据，前序钩子的更新已合并
	Metadata map[string]any
	// TransferSuccess 仅在 post_transfer 阶段有意义
	TransferSuccess bool
	Checksum        string
}

// GrantKind 授权请求的形态.
type GrantKind string

const (
	// GrantLiteral 直接携带受让方 id，解析由调用方负责
	GrantLiteral GrantKind = "literal"
	// GrantDeferred 携带待解析的名称（用户邮箱、组名、项目名）
	GrantDeferred GrantKind = "deferred"
)

// GrantRequest 钩子发出的授权请求. Literal 与 Deferred 二选一，由 Kind 区分.
type GrantRequest struct {
	GranteeType model.GranteeType
	Kind        GrantKind
	// LiteralID literal 形态下的受让方 id 文本，可能是非法 id
	LiteralID string
	// Field/Name deferred 形态下元数据字段名与解析出的名称
	Field string
	Name  string
}

// Result 钩子的输出.
type Result struct {
	Action          Action
	MetadataUpdates map[string]any
	Grants          []GrantRequest
	RedirectPath    string
	Message         string
}

// Proceed 构造一个空的 proceed 结果.
func Proceed() *Result {
	return &Result{Action: ActionProceed}
}

// Hook 单一执行能力.
type Hook interface {
	Execute(ctx context.Context, hctx *Context) (*Result, error)
}

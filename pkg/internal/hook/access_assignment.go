package hook

import (
	"context"
	"fmt"

	"github.com/yeisme/streamweave/pkg/internal/model"
)

// BuiltinAccessAssignment 授权分配钩子的注册名.
const BuiltinAccessAssignment = "access_assignment"

func init() {
	RegisterBuiltin(BuiltinAccessAssignment, newAccessAssignment)
}

const (
	grantSourceLiteral  = "literal"
	grantSourceMetadata = "metadata"
)

// grantRule 授权规则. literal 规则的 match_field 即受让方 id 文本；
// metadata 规则的 match_field 是元数据字段名，字段值为真值时发出待解析请求.
type grantRule struct {
	GranteeType string `json:"grantee_type"`
	MatchField  string `json:"match_field"`
	Source      string `json:"source"`
}

type accessAssignmentConfig struct {
	Rules []grantRule `json:"rules"`
}

type accessAssignment struct {
	cfg accessAssignmentConfig
}

func newAccessAssignment(hc *model.HookConfig) (Hook, error) {
	a := &accessAssignment{}
	if err := hc.UnmarshalConfig(&a.cfg); err != nil {
		return nil, fmt.Errorf("access_assignment config: %w", err)
	}

	for _, r := range a.cfg.Rules {
		if !model.ValidGranteeType(model.GranteeType(r.GranteeType)) {
			return nil, fmt.Errorf("access_assignment: invalid grantee_type %q", r.GranteeType)
		}

		if r.Source != grantSourceLiteral && r.Source != grantSourceMetadata {
			return nil, fmt.Errorf("access_assignment: unknown source %q", r.Source)
		}
	}

	return a, nil
}

// Execute 发出授权请求，实际解析与校验由编排器完成.
func (a *accessAssignment) Execute(_ context.Context, hctx *Context) (*Result, error) {
	var grants []GrantRequest

	for _, r := range a.cfg.Rules {
		gt := model.GranteeType(r.GranteeType)

		switch r.Source {
		case grantSourceLiteral:
			grants = append(grants, GrantRequest{
				GranteeType: gt,
				Kind:        GrantLiteral,
				LiteralID:   r.MatchField,
			})
		case grantSourceMetadata:
			v, ok := hctx.Metadata[r.MatchField]
			if !ok || !truthy(v) {
				continue
			}

			grants = append(grants, GrantRequest{
				GranteeType: gt,
				Kind:        GrantDeferred,
				Field:       r.MatchField,
				Name:        fmt.Sprintf("%v", v),
			})
		}
	}

	return &Result{Action: ActionProceed, Grants: grants}, nil
}

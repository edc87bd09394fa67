package hook

import (
	"context"
	"fmt"
	"regexp"

	"github.com/yeisme/streamweave/pkg/internal/model"
)

// BuiltinMetadataEnrichment 元数据提取钩子的注册名.
const BuiltinMetadataEnrichment = "metadata_enrichment"

func init() {
	RegisterBuiltin(BuiltinMetadataEnrichment, newMetadataEnrichment)
}

const (
	metadataSourceFilename = "filename"
	metadataSourcePath     = "path"
)

// metadataRule 单条提取规则：带命名捕获组的正则与匹配来源.
type metadataRule struct {
	Pattern string `json:"pattern"`
	// Source 取值 filename 或 path
	Source string `json:"source"`
}

type metadataEnrichmentConfig struct {
	Rules []metadataRule `json:"rules"`
}

type compiledRule struct {
	re     *regexp.Regexp
	source string
}

type metadataEnrichment struct {
	rules []compiledRule
}

func newMetadataEnrichment(hc *model.HookConfig) (Hook, error) {
	var cfg metadataEnrichmentConfig
	if err := hc.UnmarshalConfig(&cfg); err != nil {
		return nil, fmt.Errorf("metadata_enrichment config: %w", err)
	}

	m := &metadataEnrichment{}

	for _, r := range cfg.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("metadata_enrichment pattern %q: %w", r.Pattern, err)
		}

		source := r.Source
		if source == "" {
			source = metadataSourceFilename
		}

		if source != metadataSourceFilename && source != metadataSourcePath {
			return nil, fmt.Errorf("metadata_enrichment: unknown source %q", r.Source)
		}

		m.rules = append(m.rules, compiledRule{re: re, source: source})
	}

	return m, nil
}

// Execute 逐条规则匹配，命名捕获合并进输出元数据，后序规则覆盖同名捕获.
// 不命中的规则不产生任何内容.
func (m *metadataEnrichment) Execute(_ context.Context, hctx *Context) (*Result, error) {
	updates := map[string]any{}

	for _, r := range m.rules {
		subject := hctx.Filename
		if r.source == metadataSourcePath {
			subject = hctx.SourcePath
		}

		sub := r.re.FindStringSubmatch(subject)
		if sub == nil {
			continue
		}

		for i, name := range r.re.SubexpNames() {
			if i == 0 || name == "" {
				continue
			}

			updates[name] = sub[i]
		}
	}

	return &Result{Action: ActionProceed, MetadataUpdates: updates}, nil
}

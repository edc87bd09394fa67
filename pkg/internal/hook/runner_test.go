package hook

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/yeisme/streamweave/pkg/internal/model"
)

// countingHook 记录执行次数的测试钩子.
type countingHook struct {
	calls  *atomic.Int32
	result *Result
	panics bool
}

func (c *countingHook) Execute(_ context.Context, _ *Context) (*Result, error) {
	c.calls.Add(1)

	if c.panics {
		panic("boom")
	}

	return c.result, nil
}

func registerTestHook(t *testing.T, name string, h Hook) {
	t.Helper()
	RegisterBuiltin(name, func(_ *model.HookConfig) (Hook, error) { return h, nil })
}

func builtinConfig(name string, trigger model.HookTrigger, priority int) model.HookConfig {
	return model.HookConfig{
		Name:        name,
		Trigger:     trigger,
		Kind:        model.HookKindBuiltin,
		BuiltinName: name,
		Priority:    priority,
		Enabled:     true,
	}
}

func TestPreTransferShortCircuit(t *testing.T) {
	var skipCalls, redirectCalls atomic.Int32

	registerTestHook(t, "test_skip_tmp", &countingHook{
		calls:  &skipCalls,
		result: &Result{Action: ActionSkip, Message: "tmp excluded"},
	})
	registerTestHook(t, "test_always_redirect", &countingHook{
		calls:  &redirectCalls,
		result: &Result{Action: ActionRedirect, RedirectPath: "/elsewhere"},
	})

	hcs := []model.HookConfig{
		builtinConfig("test_skip_tmp", model.TriggerPreTransfer, 0),
		builtinConfig("test_always_redirect", model.TriggerPreTransfer, 10),
	}

	res := NewRunner().Run(context.Background(), model.TriggerPreTransfer, hcs, &Context{Filename: "a.tmp"})

	if res.Action != ActionSkip {
		t.Fatalf("action = %s, want skip", res.Action)
	}

	if res.Message != "tmp excluded" {
		t.Fatalf("message = %q", res.Message)
	}

	if got := redirectCalls.Load(); got != 0 {
		t.Fatalf("redirect hook ran %d times after short-circuit", got)
	}
}

func TestPostTransferMergeLaterWins(t *testing.T) {
	var c1, c2 atomic.Int32

	registerTestHook(t, "test_meta_a1", &countingHook{
		calls:  &c1,
		result: &Result{Action: ActionProceed, MetadataUpdates: map[string]any{"a": "1"}},
	})
	registerTestHook(t, "test_meta_a2b3", &countingHook{
		calls:  &c2,
		result: &Result{Action: ActionProceed, MetadataUpdates: map[string]any{"a": "2", "b": "3"}},
	})

	hcs := []model.HookConfig{
		builtinConfig("test_meta_a1", model.TriggerPostTransfer, 0),
		builtinConfig("test_meta_a2b3", model.TriggerPostTransfer, 10),
	}

	res := NewRunner().Run(context.Background(), model.TriggerPostTransfer, hcs, &Context{})

	if res.MetadataUpdates["a"] != "2" || res.MetadataUpdates["b"] != "3" {
		t.Fatalf("merged metadata = %v", res.MetadataUpdates)
	}

	if c1.Load() != 1 || c2.Load() != 1 {
		t.Fatal("post-transfer hooks must all run")
	}
}

func TestPostTransferGrantsConcatenated(t *testing.T) {
	var c atomic.Int32

	registerTestHook(t, "test_grant_1", &countingHook{
		calls: &c,
		result: &Result{Action: ActionProceed, Grants: []GrantRequest{
			{GranteeType: model.GranteeUser, Kind: GrantLiteral, LiteralID: "1"},
		}},
	})
	registerTestHook(t, "test_grant_2", &countingHook{
		calls: &c,
		result: &Result{Action: ActionProceed, Grants: []GrantRequest{
			{GranteeType: model.GranteeGroup, Kind: GrantDeferred, Name: "lab"},
		}},
	})

	hcs := []model.HookConfig{
		builtinConfig("test_grant_1", model.TriggerPostTransfer, 0),
		builtinConfig("test_grant_2", model.TriggerPostTransfer, 1),
	}

	res := NewRunner().Run(context.Background(), model.TriggerPostTransfer, hcs, &Context{})

	if len(res.Grants) != 2 {
		t.Fatalf("grants = %d, want 2", len(res.Grants))
	}

	if res.Grants[0].Kind != GrantLiteral || res.Grants[1].Kind != GrantDeferred {
		t.Fatalf("grant order not preserved: %+v", res.Grants)
	}
}

// snoopingHook 执行时快照所见的上下文元数据.
type snoopingHook struct {
	seen map[string]any
}

func (s *snoopingHook) Execute(_ context.Context, hctx *Context) (*Result, error) {
	s.seen = map[string]any{}
	for k, v := range hctx.Metadata {
		s.seen[k] = v
	}

	return Proceed(), nil
}

func TestLaterHookSeesAccumulatedMetadata(t *testing.T) {
	var c atomic.Int32

	registerTestHook(t, "test_meta_writer", &countingHook{
		calls:  &c,
		result: &Result{Action: ActionProceed, MetadataUpdates: map[string]any{"owner": "alice@example.com"}},
	})

	snoop := &snoopingHook{}
	registerTestHook(t, "test_meta_reader", snoop)

	for _, trigger := range []model.HookTrigger{model.TriggerPreTransfer, model.TriggerPostTransfer} {
		hcs := []model.HookConfig{
			builtinConfig("test_meta_writer", trigger, 0),
			builtinConfig("test_meta_reader", trigger, 10),
		}

		NewRunner().Run(context.Background(), trigger, hcs, &Context{Metadata: map[string]any{}})

		if snoop.seen["owner"] != "alice@example.com" {
			t.Fatalf("trigger %s: later hook saw metadata %v, want owner from earlier hook", trigger, snoop.seen)
		}
	}
}

func TestPanickingHookSkipped(t *testing.T) {
	var pc, ok atomic.Int32

	registerTestHook(t, "test_panics", &countingHook{calls: &pc, panics: true})
	registerTestHook(t, "test_after_panic", &countingHook{
		calls:  &ok,
		result: &Result{Action: ActionProceed, MetadataUpdates: map[string]any{"x": "y"}},
	})

	hcs := []model.HookConfig{
		builtinConfig("test_panics", model.TriggerPostTransfer, 0),
		builtinConfig("test_after_panic", model.TriggerPostTransfer, 1),
	}

	res := NewRunner().Run(context.Background(), model.TriggerPostTransfer, hcs, &Context{})

	if pc.Load() != 1 || ok.Load() != 1 {
		t.Fatal("runner must continue past a panicking hook")
	}

	if res.MetadataUpdates["x"] != "y" {
		t.Fatalf("metadata = %v", res.MetadataUpdates)
	}
}

func TestDisabledAndMismatchedTriggerIgnored(t *testing.T) {
	var c atomic.Int32

	registerTestHook(t, "test_ignored", &countingHook{calls: &c, result: Proceed()})

	disabled := builtinConfig("test_ignored", model.TriggerPreTransfer, 0)
	disabled.Enabled = false

	hcs := []model.HookConfig{
		disabled,
		builtinConfig("test_ignored", model.TriggerPostTransfer, 0),
	}

	NewRunner().Run(context.Background(), model.TriggerPreTransfer, hcs, &Context{})

	if c.Load() != 0 {
		t.Fatal("disabled or mismatched hooks must not run")
	}
}

func TestBuildRejectsUnknownAndUnsupported(t *testing.T) {
	if _, err := Build(&model.HookConfig{Kind: model.HookKindWebhook}); err == nil {
		t.Fatal("webhook kind must be rejected")
	}

	if _, err := Build(&model.HookConfig{Kind: model.HookKindBuiltin, BuiltinName: "no_such_hook"}); err == nil {
		t.Fatal("unknown builtin must be rejected")
	}
}

package hook

import (
	"context"
	"testing"

	"github.com/yeisme/streamweave/pkg/internal/model"
)

func mustBuild(t *testing.T, name, configJSON string) Hook {
	t.Helper()

	h, err := Build(&model.HookConfig{
		Kind:        model.HookKindBuiltin,
		BuiltinName: name,
		ConfigJSON:  configJSON,
	})
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}

	return h
}

func TestFileFilterOrder(t *testing.T) {
	// redirect 优先于 exclude，exclude 优先于 include
	h := mustBuild(t, BuiltinFileFilter, `{
		"include": ["*.tif"],
		"exclude": ["*.tmp", "raw_*"],
		"redirect": [{"pattern": "*.tmp", "destination": "/quarantine"}]
	}`)

	cases := []struct {
		name   string
		file   string
		path   string
		action Action
	}{
		{"redirect wins over exclude", "a.tmp", "exp/a.tmp", ActionRedirect},
		{"exclude by filename", "raw_b.tif", "exp/raw_b.tif", ActionSkip},
		{"include match proceeds", "c.tif", "exp/c.tif", ActionProceed},
		{"no include match skips", "d.csv", "exp/d.csv", ActionSkip},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := h.Execute(context.Background(), &Context{Filename: tc.file, SourcePath: tc.path})
			if err != nil {
				t.Fatal(err)
			}

			if res.Action != tc.action {
				t.Fatalf("action = %s, want %s", res.Action, tc.action)
			}
		})
	}
}

func TestFileFilterMatchesFullPath(t *testing.T) {
	h := mustBuild(t, BuiltinFileFilter, `{"exclude": ["calib/*"]}`)

	res, err := h.Execute(context.Background(), &Context{Filename: "scan.tif", SourcePath: "calib/2026/scan.tif"})
	if err != nil {
		t.Fatal(err)
	}

	if res.Action != ActionSkip {
		t.Fatalf("path-level glob should match across separators, got %s", res.Action)
	}
}

func TestFileFilterExcludeMessageCitesPattern(t *testing.T) {
	h := mustBuild(t, BuiltinFileFilter, `{"exclude": ["*.tmp"]}`)

	res, _ := h.Execute(context.Background(), &Context{Filename: "b.tmp", SourcePath: "exp/b.tmp"})
	if res.Action != ActionSkip || res.Message == "" {
		t.Fatalf("skip message must cite the pattern, got %+v", res)
	}
}

func TestMetadataEnrichmentNamedCaptures(t *testing.T) {
	h := mustBuild(t, BuiltinMetadataEnrichment, `{
		"rules": [
			{"pattern": "^(?P<sample>[a-z]+)_(?P<run>\\d+)", "source": "filename"},
			{"pattern": "(?P<project>proj-[0-9]+)", "source": "path"},
			{"pattern": "(?P<sample>nope)", "source": "filename"}
		]
	}`)

	res, err := h.Execute(context.Background(), &Context{
		Filename:   "mouse_042.tif",
		SourcePath: "proj-7/mouse_042.tif",
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.MetadataUpdates["sample"] != "mouse" || res.MetadataUpdates["run"] != "042" {
		t.Fatalf("filename captures = %v", res.MetadataUpdates)
	}

	if res.MetadataUpdates["project"] != "proj-7" {
		t.Fatalf("path capture = %v", res.MetadataUpdates)
	}
}

func TestMetadataEnrichmentRejectsBadPattern(t *testing.T) {
	_, err := Build(&model.HookConfig{
		Kind:        model.HookKindBuiltin,
		BuiltinName: BuiltinMetadataEnrichment,
		ConfigJSON:  `{"rules": [{"pattern": "([unclosed"}]}`,
	})
	if err == nil {
		t.Fatal("invalid regexp must fail at construction")
	}
}

func TestAccessAssignmentLiteralAndMetadata(t *testing.T) {
	h := mustBuild(t, BuiltinAccessAssignment, `{
		"rules": [
			{"grantee_type": "group", "match_field": "42", "source": "literal"},
			{"grantee_type": "user", "match_field": "owner_email", "source": "metadata"},
			{"grantee_type": "project", "match_field": "missing_field", "source": "metadata"}
		]
	}`)

	res, err := h.Execute(context.Background(), &Context{
		Metadata: map[string]any{"owner_email": "pi@lab.example"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Grants) != 2 {
		t.Fatalf("grants = %+v, want 2", res.Grants)
	}

	if res.Grants[0].Kind != GrantLiteral || res.Grants[0].LiteralID != "42" {
		t.Fatalf("literal grant = %+v", res.Grants[0])
	}

	if res.Grants[1].Kind != GrantDeferred || res.Grants[1].Name != "pi@lab.example" {
		t.Fatalf("deferred grant = %+v", res.Grants[1])
	}
}

func TestAccessAssignmentFalsyMetadataDropped(t *testing.T) {
	h := mustBuild(t, BuiltinAccessAssignment, `{
		"rules": [{"grantee_type": "user", "match_field": "owner", "source": "metadata"}]
	}`)

	res, _ := h.Execute(context.Background(), &Context{Metadata: map[string]any{"owner": ""}})
	if len(res.Grants) != 0 {
		t.Fatalf("empty metadata value must not emit a grant: %+v", res.Grants)
	}
}

func TestAccessAssignmentRejectsInvalidGranteeType(t *testing.T) {
	_, err := Build(&model.HookConfig{
		Kind:        model.HookKindBuiltin,
		BuiltinName: BuiltinAccessAssignment,
		ConfigJSON:  `{"rules": [{"grantee_type": "robot", "match_field": "x", "source": "literal"}]}`,
	})
	if err == nil {
		t.Fatal("invalid grantee type must fail at construction")
	}
}

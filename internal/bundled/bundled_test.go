package bundled_test

import (
	"testing"

	"github.com/opencfg/confcheck/internal/bundled"
	"github.com/opencfg/confcheck/internal/core/domain"
	"github.com/opencfg/confcheck/internal/core/usecase"
)

func TestDefaultConfigMatchesBundledSchema(t *testing.T) {
	result, err := usecase.ValidateSources(bundled.ProjectSchema, bundled.DefaultProjectConfig, domain.ModeStrict)
	if err != nil {
		t.Fatalf("validate bundled defaults: %v", err)
	}
	if !result.Valid() {
		t.Fatalf("bundled default config violates bundled schema: %+v", result.Violations)
	}
}

func TestBundledSchemaRejectsBadLicense(t *testing.T) {
	doc := []byte(`{
		"user_config": null,
		"project_config": {
			"project_name": "demo",
			"pkg_license": "WTFPL",
			"build_backend": null,
			"dependency_manager": "uv",
			"static_code_checkers": [],
			"formatter": [],
			"spell_checker": null,
			"docs": null,
			"code_editor": null,
			"pre_commit": false,
			"cloud_code_base": null,
		},
	}`)

	result, err := usecase.ValidateSources(bundled.ProjectSchema, doc, domain.ModeStrict)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid() {
		t.Fatal("expected violation for unknown license")
	}
	if len(result.Violations) != 1 || result.Violations[0].Kind != domain.KindValueNotInEnum {
		t.Fatalf("unexpected violations: %+v", result.Violations)
	}
	wantPath := []string{"project_config", "pkg_license"}
	got := result.Violations[0].Path
	if len(got) != len(wantPath) || got[0] != wantPath[0] || got[1] != wantPath[1] {
		t.Fatalf("unexpected path: %v", got)
	}
}

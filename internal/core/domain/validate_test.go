package domain

import (
	"reflect"
	"testing"
)

func projectSchema(t *testing.T) Schema {
	t.Helper()
	doc := mustParse(t, `{
		"type": "object",
		"properties": {
			"project_name": {"type": "string"},
			"pkg_license": {"enum": ["MIT", "GPL", "Apache", "BSD", "Proprietary"], "type": "string"},
			"build_backend": {
				"anyOf": [
					{"enum": ["Poetry-core", "Setuptools", "Hatchling"], "type": "string"},
					{"type": "null"}
				]
			},
			"static_code_checkers": {
				"type": "array",
				"items": {"enum": ["flake8", "mypy", "pyright", "pylint"], "type": "string"}
			},
			"pre_commit": {"type": "boolean"},
		},
		"required": ["project_name", "pkg_license", "pre_commit"],
	}`)
	sch, err := ParseSchema(doc)
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return sch
}

func TestValidateConformingDocument(t *testing.T) {
	sch := projectSchema(t)
	doc := mustParse(t, `{
		// comments and trailing commas are fine
		"project_name": "demo",
		"pkg_license": "MIT",
		"build_backend": null,
		"static_code_checkers": ["flake8", "mypy"],
		"pre_commit": true,
	}`)

	result := Validate(sch, doc, ModeStrict)
	if !result.Valid() {
		t.Fatalf("expected valid document, got violations: %+v", result.Violations)
	}
}

func TestValidateAccumulatesAllViolationsInSchemaOrder(t *testing.T) {
	sch := projectSchema(t)
	doc := mustParse(t, `{"pkg_license": "WTFPL"}`)

	result := Validate(sch, doc, ModeStrict)
	if result.Valid() {
		t.Fatal("expected violations")
	}
	if len(result.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %+v", len(result.Violations), result.Violations)
	}

	first := result.Violations[0]
	if first.Kind != KindMissingRequired || !reflect.DeepEqual(first.Path, []string{"project_name"}) {
		t.Fatalf("unexpected first violation: %+v", first)
	}
	second := result.Violations[1]
	if second.Kind != KindValueNotInEnum || !reflect.DeepEqual(second.Path, []string{"pkg_license"}) {
		t.Fatalf("unexpected second violation: %+v", second)
	}
	if second.Message != `value "WTFPL" is not allowed, must be one of: MIT, GPL, Apache, BSD, Proprietary` {
		t.Fatalf("unexpected enum message: %s", second.Message)
	}
	third := result.Violations[2]
	if third.Kind != KindMissingRequired || !reflect.DeepEqual(third.Path, []string{"pre_commit"}) {
		t.Fatalf("unexpected third violation: %+v", third)
	}
}

func TestValidateWrongTypes(t *testing.T) {
	sch := projectSchema(t)
	doc := mustParse(t, `{
		"project_name": 42,
		"pkg_license": true,
		"static_code_checkers": "flake8",
		"pre_commit": "yes",
	}`)

	result := Validate(sch, doc, ModeStrict)
	wantKinds := []ViolationKind{KindWrongType, KindWrongType, KindWrongType, KindWrongType}
	if len(result.Violations) != len(wantKinds) {
		t.Fatalf("expected %d violations, got %+v", len(wantKinds), result.Violations)
	}
	for i, v := range result.Violations {
		if v.Kind != wantKinds[i] {
			t.Fatalf("violation %d: expected %s, got %+v", i, wantKinds[i], v)
		}
	}
	if result.Violations[0].Message != "expected string, got number" {
		t.Fatalf("unexpected message: %s", result.Violations[0].Message)
	}
	if result.Violations[3].Message != "expected boolean, got string" {
		t.Fatalf("unexpected message: %s", result.Violations[3].Message)
	}
}

func TestValidateNullHandling(t *testing.T) {
	sch := projectSchema(t)

	// build_backend is nullable, project_name is not.
	doc := mustParse(t, `{
		"project_name": null,
		"pkg_license": "MIT",
		"build_backend": null,
		"pre_commit": false,
	}`)

	result := Validate(sch, doc, ModeStrict)
	if len(result.Violations) != 1 {
		t.Fatalf("expected exactly one violation, got %+v", result.Violations)
	}
	v := result.Violations[0]
	if v.Kind != KindWrongType || !reflect.DeepEqual(v.Path, []string{"project_name"}) {
		t.Fatalf("unexpected violation: %+v", v)
	}
	if v.Message != "expected string, got null" {
		t.Fatalf("unexpected message: %s", v.Message)
	}
}

func TestValidateArrayElementPathsUseIndexes(t *testing.T) {
	sch := projectSchema(t)
	doc := mustParse(t, `{
		"project_name": "demo",
		"pkg_license": "MIT",
		"static_code_checkers": ["flake8", "eslint", 7],
		"pre_commit": true,
	}`)

	result := Validate(sch, doc, ModeStrict)
	if len(result.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", result.Violations)
	}
	if !reflect.DeepEqual(result.Violations[0].Path, []string{"static_code_checkers", "1"}) {
		t.Fatalf("unexpected path: %v", result.Violations[0].Path)
	}
	if result.Violations[0].Kind != KindValueNotInEnum {
		t.Fatalf("unexpected kind: %s", result.Violations[0].Kind)
	}
	if !reflect.DeepEqual(result.Violations[1].Path, []string{"static_code_checkers", "2"}) {
		t.Fatalf("unexpected path: %v", result.Violations[1].Path)
	}
	if result.Violations[1].Kind != KindWrongType {
		t.Fatalf("unexpected kind: %s", result.Violations[1].Kind)
	}
}

func TestValidateStrictReportsUnexpectedFields(t *testing.T) {
	sch := projectSchema(t)
	doc := mustParse(t, `{
		"project_name": "demo",
		"pkg_license": "MIT",
		"pre_commit": true,
		"extra_field": "surprise",
	}`)

	strict := Validate(sch, doc, ModeStrict)
	if len(strict.Violations) != 1 {
		t.Fatalf("expected one violation in strict mode, got %+v", strict.Violations)
	}
	v := strict.Violations[0]
	if v.Kind != KindUnexpectedField || !reflect.DeepEqual(v.Path, []string{"extra_field"}) {
		t.Fatalf("unexpected violation: %+v", v)
	}
	if v.Message != "field is not defined in the schema" {
		t.Fatalf("unexpected message: %s", v.Message)
	}

	lenient := Validate(sch, doc, ModeLenient)
	if !lenient.Valid() {
		t.Fatalf("expected lenient mode to ignore unknown fields, got %+v", lenient.Violations)
	}
}

func TestValidateNestedObjectPaths(t *testing.T) {
	doc := mustParse(t, `{
		"$defs": {
			"UserConfig": {
				"type": "object",
				"properties": {
					"author": {"type": "string"},
					"author_email": {"type": "string"}
				},
				"required": ["author", "author_email"]
			}
		},
		"type": "object",
		"properties": {
			"user_config": {
				"anyOf": [{"$ref": "#/$defs/UserConfig"}, {"type": "null"}]
			}
		},
		"required": ["user_config"]
	}`)
	sch, err := ParseSchema(doc)
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}

	result := Validate(sch, mustParse(t, `{"user_config": {"author": "Ada"}}`), ModeStrict)
	if len(result.Violations) != 1 {
		t.Fatalf("expected one violation, got %+v", result.Violations)
	}
	if !reflect.DeepEqual(result.Violations[0].Path, []string{"user_config", "author_email"}) {
		t.Fatalf("unexpected path: %v", result.Violations[0].Path)
	}

	// Nullable object variant accepts null outright.
	if got := Validate(sch, mustParse(t, `{"user_config": null}`), ModeStrict); !got.Valid() {
		t.Fatalf("expected null user_config to be valid, got %+v", got.Violations)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	sch := projectSchema(t)
	doc := mustParse(t, `{"pkg_license": "WTFPL", "mystery": 1}`)

	first := Validate(sch, doc, ModeStrict)
	for i := 0; i < 5; i++ {
		again := Validate(sch, doc, ModeStrict)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n first %+v\n again %+v", i, first, again)
		}
	}
}

func TestParseModeDefaultsToStrict(t *testing.T) {
	mode, err := ParseMode("")
	if err != nil || mode != ModeStrict {
		t.Fatalf("expected strict default, got %s, %v", mode, err)
	}
	if _, err := ParseMode("loose"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

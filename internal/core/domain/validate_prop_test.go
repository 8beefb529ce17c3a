package domain

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/opencfg/confcheck/internal/jwcc"
)

func str(s string) *jwcc.Value { return &jwcc.Value{Kind: jwcc.String, Str: s} }

func boolean(b bool) *jwcc.Value { return &jwcc.Value{Kind: jwcc.Bool, Bool: b} }

func objectDoc(members ...jwcc.Member) *jwcc.Value {
	return &jwcc.Value{Kind: jwcc.Object, Members: members}
}

func TestValidateProperties(t *testing.T) {
	sch := projectSchema(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	licenses := gen.OneConstOf("MIT", "GPL", "Apache", "BSD", "Proprietary")
	checkers := gen.SliceOf(gen.OneConstOf("flake8", "mypy", "pyright", "pylint"))

	buildDoc := func(name, license string, checks []string, preCommit bool) *jwcc.Value {
		arr := &jwcc.Value{Kind: jwcc.Array}
		for _, c := range checks {
			arr.Elems = append(arr.Elems, str(c))
		}
		return objectDoc(
			jwcc.Member{Name: "project_name", Value: str(name)},
			jwcc.Member{Name: "pkg_license", Value: str(license)},
			jwcc.Member{Name: "static_code_checkers", Value: arr},
			jwcc.Member{Name: "pre_commit", Value: boolean(preCommit)},
		)
	}

	properties.Property("documents built from allowed values validate clean", prop.ForAll(
		func(name, license string, checks []string, preCommit bool) bool {
			result := Validate(sch, buildDoc(name, license, checks, preCommit), ModeStrict)
			if !result.Valid() {
				t.Logf("unexpected violations: %+v", result.Violations)
				return false
			}
			return true
		},
		gen.AlphaString(), licenses, checkers, gen.Bool(),
	))

	properties.Property("validation is deterministic", prop.ForAll(
		func(name, license string, checks []string, preCommit bool) bool {
			doc := buildDoc(name, license, checks, preCommit)
			first := Validate(sch, doc, ModeStrict)
			second := Validate(sch, doc, ModeStrict)
			return reflect.DeepEqual(first, second)
		},
		gen.AlphaString(), licenses, checkers, gen.Bool(),
	))

	properties.Property("strict mode reports exactly the added unknown field", prop.ForAll(
		func(name, license string, preCommit bool, extra string) bool {
			doc := buildDoc(name, license, nil, preCommit)
			doc.Members = append(doc.Members, jwcc.Member{Name: "x_" + extra, Value: str("anything")})

			strict := Validate(sch, doc, ModeStrict)
			if len(strict.Violations) != 1 || strict.Violations[0].Kind != KindUnexpectedField {
				t.Logf("strict violations: %+v", strict.Violations)
				return false
			}
			lenient := Validate(sch, doc, ModeLenient)
			if !lenient.Valid() {
				t.Logf("lenient violations: %+v", lenient.Violations)
				return false
			}
			return true
		},
		gen.AlphaString(), licenses, gen.Bool(), gen.AlphaString(),
	))

	properties.Property("violations never exceed one per schema field plus unknowns", prop.ForAll(
		func(license string) bool {
			doc := objectDoc(jwcc.Member{Name: "pkg_license", Value: str(license)})
			result := Validate(sch, doc, ModeStrict)
			// project_name and pre_commit are always missing here; pkg_license
			// yields at most one more violation.
			return len(result.Violations) >= 2 && len(result.Violations) <= 3
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

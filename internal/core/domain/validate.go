package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opencfg/confcheck/internal/jwcc"
)

// Mode controls how fields absent from the schema are treated.
type Mode string

const (
	ModeStrict  Mode = "strict"  // unknown fields are reported
	ModeLenient Mode = "lenient" // unknown fields are ignored
)

// ParseMode maps a user-supplied mode string to a Mode. The empty string
// defaults to strict.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeStrict):
		return ModeStrict, nil
	case string(ModeLenient):
		return ModeLenient, nil
	default:
		return "", fmt.Errorf("unknown mode %q, want strict or lenient", s)
	}
}

type ViolationKind string

const (
	KindMissingRequired ViolationKind = "missing_required"
	KindWrongType       ViolationKind = "wrong_type"
	KindValueNotInEnum  ViolationKind = "value_not_in_enum"
	KindUnexpectedField ViolationKind = "unexpected_field"
)

// Violation is a single reported deviation of a document from its schema.
type Violation struct {
	Path    []string      `json:"path"`
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
}

// Result is the outcome of one validation pass. An empty violation list
// means the document conforms.
type Result struct {
	Violations []Violation `json:"violations"`
}

func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

// Validate walks schema depth-first in field declaration order and collects
// every violation found in doc. It never stops at the first failure and is a
// pure function of its inputs: the same pair always yields the same result.
func Validate(schema Schema, doc *jwcc.Value, mode Mode) Result {
	w := &walker{mode: mode}
	w.checkField(&schema.Root, doc, nil)
	return Result{Violations: w.violations}
}

type walker struct {
	mode       Mode
	violations []Violation
}

func (w *walker) report(path []string, kind ViolationKind, msg string) {
	w.violations = append(w.violations, Violation{
		Path:    append([]string(nil), path...),
		Kind:    kind,
		Message: msg,
	})
}

func (w *walker) checkField(f *Field, v *jwcc.Value, path []string) {
	if v.Kind == jwcc.Null {
		if !f.Nullable {
			w.report(path, KindWrongType, fmt.Sprintf("expected %s, got null", f.Type))
		}
		return
	}

	switch f.Type {
	case TypeString:
		if v.Kind != jwcc.String {
			w.report(path, KindWrongType, fmt.Sprintf("expected string, got %s", v.Kind))
		}
	case TypeBool:
		if v.Kind != jwcc.Bool {
			w.report(path, KindWrongType, fmt.Sprintf("expected boolean, got %s", v.Kind))
		}
	case TypeEnum:
		w.checkEnum(f, v, path)
	case TypeArray:
		if v.Kind != jwcc.Array {
			w.report(path, KindWrongType, fmt.Sprintf("expected array, got %s", v.Kind))
			return
		}
		for i, elem := range v.Elems {
			w.checkField(f.Elem, elem, child(path, strconv.Itoa(i)))
		}
	case TypeObject:
		if v.Kind != jwcc.Object {
			w.report(path, KindWrongType, fmt.Sprintf("expected object, got %s", v.Kind))
			return
		}
		w.checkObject(f, v, path)
	}
}

func (w *walker) checkEnum(f *Field, v *jwcc.Value, path []string) {
	if v.Kind != jwcc.String {
		w.report(path, KindWrongType, fmt.Sprintf("expected string, got %s", v.Kind))
		return
	}
	for _, allowed := range f.Enum {
		if v.Str == allowed {
			return
		}
	}
	w.report(path, KindValueNotInEnum,
		fmt.Sprintf("value %q is not allowed, must be one of: %s", v.Str, strings.Join(f.Enum, ", ")))
}

func (w *walker) checkObject(f *Field, v *jwcc.Value, path []string) {
	for i := range f.Fields {
		sub := &f.Fields[i]
		member := v.Lookup(sub.Name)
		if member == nil {
			if sub.Required {
				w.report(child(path, sub.Name), KindMissingRequired, "required field is missing")
			}
			continue
		}
		w.checkField(sub, member, child(path, sub.Name))
	}

	if w.mode != ModeStrict {
		return
	}
	known := make(map[string]bool, len(f.Fields))
	for i := range f.Fields {
		known[f.Fields[i].Name] = true
	}
	for _, m := range v.Members {
		if !known[m.Name] {
			w.report(child(path, m.Name), KindUnexpectedField, "field is not defined in the schema")
		}
	}
}

func child(path []string, seg string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	return append(out, seg)
}

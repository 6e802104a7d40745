package validate

import (
	"fmt"
	"strings"

	"github.com/Hardel-DW/rsmcdoc/ast"
)

// validateUnion filters out version-gated alternatives first, then
// tries the remaining alternatives in declared order; the first clean
// one wins. When none is clean,
// the report attaches the failure of the alternative that came
// closest (fewest errors, declaration order breaking ties).
func (v *Validator) validateUnion(value any, u ast.UnionType, path Path, depth int) ([]ValidationError, []Dependency) {
	visible := make([]ast.UnionAlternative, 0, len(u.Alternatives))
	for _, alt := range u.Alternatives {
		gate, hasGate := fieldGate(alt.Annotations)
		if hasGate && !gate.Visible(v.active) {
			continue
		}
		visible = append(visible, alt)
	}
	if len(visible) == 0 {
		return []ValidationError{{
			Kind:    TypeMismatch,
			Path:    path.String(),
			Message: "no union alternative is available at this version",
		}}, nil
	}

	// A union of one is just that type (the parser wraps a lone
	// annotated alternative this way): no summary error on failure.
	if len(visible) == 1 {
		alt := visible[0]
		errs, deps := v.validateNode(value, alt.Type, path, depth+1)
		annErrs, annDeps := v.checkFieldAnnotations(value, alt.Annotations, path)
		return append(errs, annErrs...), append(deps, annDeps...)
	}

	var bestErrs []ValidationError
	var bestDeps []Dependency
	best := -1
	for _, alt := range visible {
		errs, deps := v.validateNode(value, alt.Type, path, depth+1)
		annErrs, annDeps := v.checkFieldAnnotations(value, alt.Annotations, path)
		errs = append(errs, annErrs...)
		deps = append(deps, annDeps...)
		if len(errs) == 0 {
			return nil, deps
		}
		if best == -1 || len(errs) < best {
			best = len(errs)
			bestErrs = errs
			bestDeps = deps
		}
	}

	summary := ValidationError{
		Kind:    TypeMismatch,
		Path:    path.String(),
		Message: fmt.Sprintf("value matches no alternative of %s", describeUnion(visible)),
	}
	return append([]ValidationError{summary}, bestErrs...), bestDeps
}

func describeUnion(alts []ast.UnionAlternative) string {
	parts := make([]string, len(alts))
	for i, a := range alts {
		parts[i] = describeType(a.Type)
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// describeType renders a short human label for a type expression, used
// in union and enum diagnostics.
func describeType(t ast.TypeExpr) string {
	switch x := t.(type) {
	case ast.PrimitiveType:
		return x.Name
	case ast.NamedType:
		return x.Name.String()
	case ast.ArrayType:
		return describeType(x.Element) + "[]"
	case ast.UnionType:
		return describeUnion(x.Alternatives)
	case ast.StructType:
		return "struct"
	case ast.EnumType:
		return "enum"
	case ast.DispatcherRefType:
		return x.Registry + "[...]"
	case ast.PercentPlaceholderType:
		return "any"
	default:
		return "type"
	}
}

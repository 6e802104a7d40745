package validate

import (
	"fmt"
	"sort"

	"github.com/Hardel-DW/rsmcdoc/ast"
)

func (v *Validator) validateStruct(value any, st ast.StructType, path Path, depth int) ([]ValidationError, []Dependency) {
	fields, expandErrs := v.idx.ExpandFields(st.Fields)
	errs, deps := v.validateStructFields(value, fields, path, depth)
	for _, e := range expandErrs {
		errs = append(errs, ValidationError{Kind: SchemaError, Path: path.String(), Message: e})
	}
	return errs, deps
}

// validateStructFields checks an object against a field list: every
// visible declared field is checked for presence and, if present, type;
// every JSON key with no matching visible field is UnknownField.
func (v *Validator) validateStructFields(value any, fields []ast.Field, path Path, depth int) ([]ValidationError, []Dependency) {
	obj, ok := value.(map[string]any)
	if !ok {
		return mismatch("object", value, path), nil
	}

	var errs []ValidationError
	var deps []Dependency
	matched := make(map[string]bool, len(fields))

	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		childPath := path.child(f.Name)
		// A gate written in type position (`name: #[since="1.16"] T`) is
		// parsed as a one-alternative union; it gates the field itself.
		gateAnns := f.Annotations
		if u, ok := f.Type.(ast.UnionType); ok && len(u.Alternatives) == 1 {
			gateAnns = append(append([]ast.Annotation(nil), f.Annotations...), u.Alternatives[0].Annotations...)
		}
		gate, hasGate := fieldGate(gateAnns)
		visible := !hasGate || gate.Visible(v.active)
		raw, present := obj[f.Name]

		matched[f.Name] = true
		if !visible {
			if present {
				errs = append(errs, ValidationError{
					Kind:    UnknownField,
					Path:    childPath.String(),
					Message: fmt.Sprintf("field %q is not available at this version", f.Name),
				})
			}
			continue
		}

		if !present {
			if !f.Optional {
				errs = append(errs, ValidationError{
					Kind:    MissingField,
					Path:    childPath.String(),
					Message: fmt.Sprintf("missing required field %q", f.Name),
				})
			}
			continue
		}

		fieldErrs, fieldDeps := v.validateNode(raw, f.Type, childPath, depth+1)
		errs = append(errs, fieldErrs...)
		deps = append(deps, fieldDeps...)

		annErrs, annDeps := v.checkFieldAnnotations(raw, f.Annotations, childPath)
		errs = append(errs, annErrs...)
		deps = append(deps, annDeps...)
	}

	var unknown []string
	for k := range obj {
		if !matched[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		errs = append(errs, ValidationError{
			Kind:    UnknownField,
			Path:    path.child(k).String(),
			Message: fmt.Sprintf("unknown field %q", k),
		})
	}

	return errs, deps
}

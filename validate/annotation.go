package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Hardel-DW/rsmcdoc/ast"
	"github.com/Hardel-DW/rsmcdoc/registry"
	"github.com/Hardel-DW/rsmcdoc/version"
)

// fieldGate extracts the #[since]/#[until] pair from an annotation
// list. Bounds whose values do not parse as versions are ignored, so a
// malformed gate never hides a field.
func fieldGate(anns []ast.Annotation) (version.Gate, bool) {
	var g version.Gate
	found := false
	for _, a := range anns {
		switch a.Name {
		case "since":
			if v, err := version.Parse(annotationValue(a)); err == nil {
				g.Since, g.HasSince = v, true
				found = true
			}
		case "until":
			if v, err := version.Parse(annotationValue(a)); err == nil {
				g.Until, g.HasUntil = v, true
				found = true
			}
		}
	}
	return g, found
}

func annotationValue(a ast.Annotation) string {
	if a.Value != "" {
		return a.Value
	}
	if len(a.Args) > 0 {
		return a.Args[0].Str
	}
	return ""
}

// checkFieldAnnotations runs the validation-time annotation behaviors
// against an already type-checked field value: #[id] (resource
// identifier shape, dependency extraction, registry
// membership), #[uuid], and #[match_regex]. Unknown annotation names
// are ignored for forward compatibility.
func (v *Validator) checkFieldAnnotations(value any, anns []ast.Annotation, path Path) ([]ValidationError, []Dependency) {
	var errs []ValidationError
	var deps []Dependency
	for _, a := range anns {
		switch a.Name {
		case "id":
			e, d := v.checkID(value, a, path)
			errs = append(errs, e...)
			deps = append(deps, d...)
		case "uuid":
			errs = append(errs, checkUUID(value, path)...)
		case "match_regex":
			errs = append(errs, checkMatchRegex(value, annotationValue(a), path)...)
		}
	}
	return errs, deps
}

// idTarget reads the registry name and tag policy out of either
// accepted #[id] surface form: `#[id="registry"]` or
// `#[id(registry="...", tags="allowed")]`.
func idTarget(a ast.Annotation) (registryName string, tagsAllowed bool) {
	if a.Value != "" {
		return a.Value, false
	}
	registryName, _ = a.Arg("registry")
	tags, _ := a.Arg("tags")
	return registryName, tags == "allowed"
}

func (v *Validator) checkID(value any, a ast.Annotation, path Path) ([]ValidationError, []Dependency) {
	s, ok := value.(string)
	if !ok {
		// The primitive check already reported the shape mismatch.
		return nil, nil
	}
	registryName, tagsAllowed := idTarget(a)
	if registryName == "" {
		return nil, nil
	}

	if strings.HasPrefix(s, "#") {
		if !tagsAllowed {
			return []ValidationError{{
				Kind:    UnknownRegistryValue,
				Path:    path.String(),
				Message: fmt.Sprintf("tag reference %q is not permitted for registry %q", s, registryName),
			}}, nil
		}
		norm, wellFormed := normalizeResourceID(s[1:])
		if !wellFormed {
			return []ValidationError{{
				Kind:    InvalidResourceId,
				Path:    path.String(),
				Message: fmt.Sprintf("%q is not a well-formed tag reference", s),
			}}, nil
		}
		return nil, []Dependency{{Registry: registryName, Value: "#" + norm, Path: path.String()}}
	}

	norm, wellFormed := normalizeResourceID(s)
	if !wellFormed {
		return []ValidationError{{
			Kind:    InvalidResourceId,
			Path:    path.String(),
			Message: fmt.Sprintf("%q is not a well-formed resource identifier", s),
		}}, nil
	}

	deps := []Dependency{{Registry: registryName, Value: norm, Path: path.String()}}
	switch v.registry.Contains(registryName, norm) {
	case registry.Found:
		return nil, deps
	case registry.RegistryNotFound:
		return []ValidationError{{
			Kind:    UnknownRegistryValue,
			Path:    path.String(),
			Message: fmt.Sprintf("%q not found: registry %q is not known", norm, registryName),
		}}, deps
	default:
		return []ValidationError{{
			Kind:    UnknownRegistryValue,
			Path:    path.String(),
			Message: fmt.Sprintf("%q is not a known %s", norm, registryName),
		}}, deps
	}
}

// normalizeResourceID validates and normalizes a resource identifier
// to canonical form: `namespace:path` with namespace matching
// [a-z0-9_.-]+ and path additionally allowing `/`; a bare path gets
// the `minecraft` namespace.
func normalizeResourceID(s string) (string, bool) {
	namespace, idPath := "minecraft", s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		namespace, idPath = s[:i], s[i+1:]
	}
	if namespace == "" || idPath == "" {
		return "", false
	}
	for i := 0; i < len(namespace); i++ {
		if !isIDByte(namespace[i]) {
			return "", false
		}
	}
	for i := 0; i < len(idPath); i++ {
		if !isIDByte(idPath[i]) && idPath[i] != '/' {
			return "", false
		}
	}
	return namespace + ":" + idPath, true
}

func isIDByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' || c == '.' || c == '-'
}

// checkUUID implements #[uuid]: the value must be a UUID-shaped string
// or Minecraft's int-array encoding (four 32-bit integers).
func checkUUID(value any, path Path) []ValidationError {
	switch x := value.(type) {
	case string:
		if _, err := uuid.Parse(x); err != nil {
			return []ValidationError{{
				Kind:    ConstraintViolation,
				Path:    path.String(),
				Message: fmt.Sprintf("%q is not a valid UUID", x),
			}}
		}
		return nil
	case []any:
		if len(x) != 4 {
			return []ValidationError{{
				Kind:    ConstraintViolation,
				Path:    path.String(),
				Message: fmt.Sprintf("UUID int array must have 4 elements, got %d", len(x)),
			}}
		}
		for i, item := range x {
			n, ok := asNumber(item)
			if !ok || n != math.Trunc(n) || !inIntegerRange("int", n) {
				return []ValidationError{{
					Kind:    ConstraintViolation,
					Path:    path.indexed(i).String(),
					Message: "UUID int array elements must be 32-bit integers",
				}}
			}
		}
		return nil
	default:
		return nil
	}
}

func checkMatchRegex(value any, pattern string, path Path) []ValidationError {
	s, ok := value.(string)
	if !ok || pattern == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return []ValidationError{{
			Kind:    SchemaError,
			Path:    path.String(),
			Message: fmt.Sprintf("invalid match_regex pattern %q", pattern),
		}}
	}
	if !re.MatchString(s) {
		return []ValidationError{{
			Kind:    ConstraintViolation,
			Path:    path.String(),
			Message: fmt.Sprintf("%q does not match pattern %q", s, pattern),
		}}
	}
	return nil
}

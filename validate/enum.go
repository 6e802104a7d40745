package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/Hardel-DW/rsmcdoc/ast"
)

// maxListedVariants caps how many legal enum values a diagnostic
// enumerates before eliding the rest.
const maxListedVariants = 10

// validateEnum requires the JSON value to equal one of the variants'
// literal values per the backing type.
func validateEnum(value any, e ast.EnumType, path Path) []ValidationError {
	if e.Backing == "string" {
		s, ok := value.(string)
		if !ok {
			return mismatch("string", value, path)
		}
		for _, variant := range e.Variants {
			if variant.ValueStr == s {
				return nil
			}
		}
		return enumViolation(value, e, path)
	}

	n, ok := asNumber(value)
	if !ok || n != math.Trunc(n) {
		return mismatch(e.Backing, value, path)
	}
	for _, variant := range e.Variants {
		if variant.IsNumeric && variant.ValueNum == n {
			return nil
		}
	}
	return enumViolation(value, e, path)
}

func enumViolation(value any, e ast.EnumType, path Path) []ValidationError {
	legal := make([]string, 0, len(e.Variants))
	for _, variant := range e.Variants {
		if len(legal) == maxListedVariants {
			legal = append(legal, "...")
			break
		}
		if e.Backing == "string" {
			legal = append(legal, fmt.Sprintf("%q", variant.ValueStr))
		} else {
			legal = append(legal, fmt.Sprintf("%v", variant.ValueNum))
		}
	}
	return []ValidationError{{
		Kind:    ConstraintViolation,
		Path:    path.String(),
		Message: fmt.Sprintf("%v is not a legal enum value (one of %s)", value, strings.Join(legal, ", ")),
	}}
}

package validate

import "math"

// checkPrimitive requires a JSON-kind match plus, for the integer
// family, an integral-and-in-range check.
func checkPrimitive(v any, name string, path Path) []ValidationError {
	switch name {
	case "any":
		return nil
	case "string":
		if _, ok := v.(string); !ok {
			return mismatch("string", v, path)
		}
		return nil
	case "boolean":
		if _, ok := v.(bool); !ok {
			return mismatch("boolean", v, path)
		}
		return nil
	case "byte", "short", "int", "long":
		n, ok := asNumber(v)
		if !ok {
			return mismatch(name, v, path)
		}
		if n != math.Trunc(n) {
			return mismatch(name, v, path)
		}
		if !inIntegerRange(name, n) {
			return mismatch(name, v, path)
		}
		return nil
	case "float", "double":
		if _, ok := asNumber(v); !ok {
			return mismatch(name, v, path)
		}
		return nil
	default:
		return mismatch(name, v, path)
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func inIntegerRange(name string, n float64) bool {
	switch name {
	case "byte":
		return n >= -128 && n <= 127
	case "short":
		return n >= -32768 && n <= 32767
	case "int":
		return n >= -2147483648 && n <= 2147483647
	case "long":
		return n >= -9223372036854775808 && n <= 9223372036854775807
	default:
		return true
	}
}

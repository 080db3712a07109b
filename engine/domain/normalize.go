package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeAlcohol maps a raw alcohol or alcoholic field to a Tristate.
// nil and "" are Unknown, booleans pass through, anything else is coerced to
// an integer where non-zero is True and zero is False. Values that cannot be
// coerced are Unknown.
func NormalizeAlcohol(raw any) Tristate {
	switch v := raw.(type) {
	case nil:
		return Unknown
	case bool:
		return TristateOf(v)
	case string:
		if v == "" {
			return Unknown
		}
		return intString(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return TristateOf(n != 0)
		}
		f, err := v.Float64()
		if err != nil {
			return Unknown
		}
		return truncated(f)
	case float64:
		return truncated(v)
	case float32:
		return truncated(float64(v))
	case int:
		return TristateOf(v != 0)
	case int64:
		return TristateOf(v != 0)
	case int32:
		return TristateOf(v != 0)
	default:
		return Unknown
	}
}

func intString(s string) Tristate {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		// Out of range still means a valid, non-zero integer.
		if errors.Is(err, strconv.ErrRange) {
			return True
		}
		return Unknown
	}
	return TristateOf(n != 0)
}

func truncated(f float64) Tristate {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Unknown
	}
	return TristateOf(math.Trunc(f) != 0)
}

// NormalizeTags accepts nil, a single string or a list of strings.
func NormalizeTags(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case string:
		return []string{v}, nil
	case []string:
		return append([]string{}, v...), nil
	case []any:
		tags := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, NewValidationError(fmt.Sprintf("tags[%d]", i), typeName(item), ErrInvalidType)
			}
			tags = append(tags, s)
		}
		return tags, nil
	default:
		return nil, NewValidationError("tags", typeName(raw), ErrInvalidType)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number, float64, float32, int, int64, int32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

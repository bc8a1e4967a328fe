package provider

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ExtractID normalizes an identifier from various API response formats.
//
// API-Football returns numeric ids, SportMonks numeric or string ids
// depending on the endpoint. Both end up as the same decimal string.
func ExtractID(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// ExtractGoals normalizes a score value. Returns ok=false when the value is
// absent or not numeric, which callers keep as a nil score.
func ExtractGoals(val interface{}) (int, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	case map[string]interface{}:
		// SportMonks nested score objects: {"goals": 2, "participant": "home"}
		for _, key := range []string{"goals", "total"} {
			if inner, exists := v[key]; exists && inner != nil {
				return ExtractGoals(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

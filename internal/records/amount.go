package records

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/parser"
)

var reCurrencyTokens = regexp.MustCompile(`(?i)[₹$€£]|\brs\b\.?|\b(?:inr|usd|eur|gbp)\b`)

// ParseAmount coerces a client-supplied amount to a non-negative decimal rounded to 2 places.
// Strings may carry currency tokens and thousands separators ("₹1,200.50", "Rs. 99").
func ParseAmount(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		var err error
		if f, err = t.Float64(); err != nil {
			return 0, common.ValidationFailed("amount is not a number", err)
		}
	case string:
		s := reCurrencyTokens.ReplaceAllString(t, "")
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		if s == "" {
			return 0, nil
		}
		var err error
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, common.ValidationFailed(fmt.Sprintf("amount %q is not a number", t), err)
		}
	default:
		return 0, common.ValidationFailed(fmt.Sprintf("amount has unsupported type %T", v), nil)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, common.ValidationFailed("amount must be a non-negative number", nil)
	}
	return parser.RoundAmount(f), nil
}

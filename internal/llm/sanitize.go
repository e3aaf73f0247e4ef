package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// answerSynonyms maps keys models commonly use instead of ours. When several synonyms
// of one key are present the earliest entry wins.
var answerSynonyms = []struct{ from, to string }{
	{"vendor_name", "vendor"},
	{"merchant", "vendor"},
	{"merchant_name", "vendor"},
	{"payee", "vendor"},
	{"total", "amount"},
	{"amount_paid", "amount"},
	{"txn_id", "transaction_id"},
	{"transactionId", "transaction_id"},
	{"reference", "transaction_id"},
	{"utr", "transaction_id"},
	{"upi_ref", "transaction_id"},
	{"transaction_date", "date"},
	{"tx_date", "date"},
}

// StripCodeFences removes ```json ... ``` wrappers and anything outside the outermost object.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return strings.Trim(s, "`")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

// NormalizeAnswersJSON maps synonyms onto the answer keys, coerces numbers and nulls to
// strings and drops unknown keys, so a mostly-right answer still validates.
func NormalizeAnswersJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string
	for _, syn := range answerSynonyms {
		from, to := syn.from, syn.to
		v, ok := m[from]
		if !ok {
			continue
		}
		if cur, exists := m[to]; !exists || cur == nil || cur == "" {
			m[to] = v
		}
		delete(m, from)
		changed = append(changed, from+"->"+to)
	}

	out := make(map[string]string, 4)
	for _, k := range []string{"vendor", "amount", "transaction_id", "date"} {
		switch t := m[k].(type) {
		case nil:
			out[k] = ""
		case string:
			s := strings.TrimSpace(t)
			if strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
				s = ""
			}
			out[k] = s
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
			changed = append(changed, k+"(number)")
		default:
			out[k] = ""
			changed = append(changed, k+"(type)")
		}
		delete(m, k)
	}
	for k := range m {
		changed = append(changed, k+"(unknown)")
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.answer.normalized", "changed", changed)
	}
	return b, changed, nil
}

package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

var (
	reHasDigit       = regexp.MustCompile(`\d`)
	reCurrencyMarker = regexp.MustCompile(`(?i)[₹$€£¥]|\brs\.?|\b(inr|usd|eur|gbp)\b`)
)

// AnswerText turns a model reply into the labeled text the field parser reads.
// JSON replies are normalized, validated and rendered as "Label: value" lines; a reply
// that is not JSON is passed through as is. An empty reply is ErrEmptyAnswer.
func AnswerText(content string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyAnswer
	}

	cleaned := StripCodeFences(trimmed)
	if !json.Valid([]byte(cleaned)) {
		logger.Debug("llm.answer.free_text", "chars", len(trimmed))
		return trimmed, nil
	}

	normalized, _, err := NormalizeAnswersJSON([]byte(cleaned), logger)
	if err != nil {
		return "", fmt.Errorf("normalize answer: %w", err)
	}
	if err := ValidateAnswersJSON(normalized); err != nil {
		return "", fmt.Errorf("validate answer: %w", err)
	}

	var a Answers
	if err := json.Unmarshal(normalized, &a); err != nil {
		return "", fmt.Errorf("unmarshal answer: %w", err)
	}
	txt := a.Render()
	if txt == "" {
		return "", ErrEmptyAnswer
	}
	return txt, nil
}

// Render writes the answers as labeled lines, skipping blanks.
// An amount without any currency marker gets a rupee sign so the amount rules can anchor on it.
func (a Answers) Render() string {
	var b strings.Builder
	line := func(label, v string) {
		v = strings.TrimSpace(strings.ReplaceAll(v, "\n", " "))
		if v == "" {
			return
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	line("Merchant", a.Vendor)
	if amt := strings.TrimSpace(a.Amount); reHasDigit.MatchString(amt) {
		if !reCurrencyMarker.MatchString(amt) {
			amt = "₹" + amt
		}
		line("Amount", amt)
	}
	line("Transaction ID", a.TransactionID)
	line("Date", a.Date)
	return strings.TrimRight(b.String(), "\n")
}

package parser

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/dipex/constants"
	"github.com/joseph-ayodele/dipex/internal/entity"
)

// Defaults are the values a field keeps when no rule matches.
type Defaults struct {
	Currency string
	Now      func() time.Time
}

func (d Defaults) withFallbacks() Defaults {
	if strings.TrimSpace(d.Currency) == "" {
		d.Currency = constants.DefaultCurrency
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Parse extracts a fully populated candidate from raw text. It never fails; fields
// without a matching rule keep their defaults.
func Parse(text string) entity.ExtractionCandidate {
	return ParseWithDefaults(text, Defaults{})
}

// ParseWithDefaults is Parse with an injected default currency and clock.
func ParseWithDefaults(text string, d Defaults) entity.ExtractionCandidate {
	d = d.withFallbacks()

	c := entity.ExtractionCandidate{
		Vendor:        constants.UnknownVendor,
		Amount:        0,
		Currency:      strings.ToUpper(d.Currency),
		Date:          Today(d.Now()),
		Category:      string(constants.Other),
		PaymentMethod: constants.PaymentMethodUnknown,
		PaymentStatus: string(constants.PaymentStatusUnknown),
		RawText:       text,
	}

	if v, _, ok := firstMatch(amountRules, text); ok {
		num, cur, _ := strings.Cut(v, "|")
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			c.Amount = RoundAmount(f)
			if cur != "" {
				c.Currency = cur
			}
		}
	}
	if v, _, ok := firstMatch(transactionIDRules, text); ok {
		c.TransactionID = v
	}
	if v, _, ok := firstMatch(merchantRules, text); ok {
		c.Vendor = v
	}
	if t, ok := NormalizeDate(text); ok {
		c.Date = t
	}
	if v, _, ok := firstMatch(paymentMethodRules, text); ok {
		c.PaymentMethod = v
	}

	c.Category = string(constants.CategoryForVendor(c.Vendor))
	c.PaymentStatus = string(Status(text))
	return c
}

// NormalizeDate finds the first date token in s and returns it as a UTC calendar date.
// Accepted forms: D-M-Y, D/M/Y, Y-M-D, "12 Jan 2025" and "Jan 12, 2025". Two-digit
// years are read as 20YY.
func NormalizeDate(s string) (time.Time, bool) {
	v, _, ok := firstMatch(dateRules, s)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(entity.DateLayout, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func canonicalDate(year, month, day string) (string, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if len(year) == 2 {
		y += 2000
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31 Feb into March; reject instead.
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}
	return t.Format(entity.DateLayout), true
}

// Today truncates now to a UTC calendar date.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Status scans the whole text for failure words, then success words.
func Status(text string) constants.PaymentStatus {
	lower := strings.ToLower(text)
	for _, kw := range constants.FailureKeywords {
		if constants.ContainsWord(lower, kw) {
			return constants.PaymentStatusFailed
		}
	}
	for _, kw := range constants.SuccessKeywords {
		if constants.ContainsWord(lower, kw) {
			return constants.PaymentStatusSuccess
		}
	}
	return constants.PaymentStatusUnknown
}

// RoundAmount rounds half away from zero to two decimals.
func RoundAmount(f float64) float64 {
	return math.Round(f*100) / 100
}

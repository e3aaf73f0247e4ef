package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule is one pattern for one field. Extract turns the submatches into the field value
// and may reject the match, in which case the next match and then the next rule are tried.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Extract func(m []string) (string, bool)
}

// firstMatch evaluates rules in order; the first accepted match wins.
func firstMatch(rules []Rule, text string) (value, rule string, ok bool) {
	for _, r := range rules {
		for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
			if v, ok := r.Extract(m); ok {
				return v, r.Name, true
			}
		}
	}
	return "", "", false
}

const number = `(\d[\d,]*(?:\.\d+)?)`

var currencySymbols = map[string]string{
	"₹": "INR",
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// amountRules yield "<amount>|<currency>"; currency is empty when the rule does not pin it.
var amountRules = []Rule{
	{
		Name:    "symbol-prefix",
		Pattern: regexp.MustCompile(`([₹$€£])\s*` + number),
		Extract: func(m []string) (string, bool) { return amountValue(m[2], currencySymbols[m[1]]) },
	},
	{
		Name:    "rs-prefix",
		Pattern: regexp.MustCompile(`(?i)\brs\b\.?\s*` + number),
		Extract: func(m []string) (string, bool) { return amountValue(m[1], "INR") },
	},
	{
		Name:    "inr-prefix",
		Pattern: regexp.MustCompile(`(?i)\binr\s*` + number),
		Extract: func(m []string) (string, bool) { return amountValue(m[1], "INR") },
	},
	{
		Name:    "number-suffix",
		Pattern: regexp.MustCompile(`(?i)` + number + `\s*(?:₹|\b(?:rs|inr)\b)`),
		Extract: func(m []string) (string, bool) { return amountValue(m[1], "INR") },
	},
}

func amountValue(raw, currency string) (string, bool) {
	s := strings.ReplaceAll(raw, ",", "")
	s = strings.TrimRight(s, ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return "", false
	}
	return s + "|" + currency, true
}

var reTxnPrefix = regexp.MustCompile(`(?i)^txn[-:]?`)

// A token directly followed by '@' is a UPI VPA handle, not an id.
var transactionIDRules = []Rule{
	{
		Name:    "labeled",
		Pattern: regexp.MustCompile(`(?i)\b(?:transaction|txn|ref(?:erence)?|id)(?:\s*(?:id|no\.?|number))?\s*[:#.\-]?\s*([a-z0-9][a-z0-9\-]{3,})(@?)`),
		Extract: func(m []string) (string, bool) {
			tok := m[1]
			if m[2] != "" || !hasDigit(tok) {
				return "", false
			}
			if stripped := reTxnPrefix.ReplaceAllString(tok, ""); hasDigit(stripped) {
				tok = stripped
			}
			return strings.ToUpper(tok), true
		},
	},
	{
		Name:    "upi",
		Pattern: regexp.MustCompile(`(?i)\bupi\s*(?:ref(?:erence)?|txn|transaction)?\s*(?:id|no\.?|number)?\s*[:#.\-]?\s*([a-z0-9]{6,})(@?)`),
		Extract: func(m []string) (string, bool) { return strings.ToUpper(m[1]), m[2] == "" && hasDigit(m[1]) },
	},
	{
		Name:    "numeric",
		Pattern: regexp.MustCompile(`\b(\d{12,})\b`),
		Extract: func(m []string) (string, bool) { return m[1], true },
	},
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

const minMerchantLen = 3

var merchantRules = []Rule{
	{
		Name:    "paid-to-phrase",
		Pattern: regexp.MustCompile(`(?im)\b(?:payment[ \t]+to|paid[ \t]+to|to|paid)(?:[ \t]*:[ \t]*|[ \t]+)([^\n₹$€£]{1,60}?)[ \t]*(?:[₹$€£]|\brs\b|\binr\b|$)`),
		Extract: merchantValue,
	},
	{
		Name:    "merchant-label",
		Pattern: regexp.MustCompile(`(?im)\bmerchant(?:[ \t]+name)?[ \t]*[:\-][ \t]*([^\n]+)$`),
		Extract: merchantValue,
	},
	{
		Name:    "paid-to-label",
		Pattern: regexp.MustCompile(`(?i)\bpaid[ \t]+to[ \t]*:?[ \t]*\n?[ \t]*([^\n]+)`),
		Extract: merchantValue,
	},
}

func merchantValue(m []string) (string, bool) {
	v := strings.Trim(strings.TrimSpace(m[1]), ":-,.")
	v = strings.Join(strings.Fields(v), " ")
	if len([]rune(v)) < minMerchantLen {
		return "", false
	}
	return v, true
}

const monthNames = `(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?`

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// dateRules yield a canonical YYYY-MM-DD token.
var dateRules = []Rule{
	{
		Name:    "d-m-y",
		Pattern: regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4}|\d{2})\b`),
		Extract: func(m []string) (string, bool) { return canonicalDate(m[3], m[2], m[1]) },
	},
	{
		Name:    "d/m/y",
		Pattern: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`),
		Extract: func(m []string) (string, bool) { return canonicalDate(m[3], m[2], m[1]) },
	},
	{
		Name:    "iso",
		Pattern: regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		Extract: func(m []string) (string, bool) { return canonicalDate(m[1], m[2], m[3]) },
	},
	{
		Name:    "d-month-y",
		Pattern: regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[ \-]` + monthNames + `,?[ \-](\d{4}|\d{2})\b`),
		Extract: func(m []string) (string, bool) {
			return canonicalDate(m[3], strconv.Itoa(months[strings.ToLower(m[2])]), m[1])
		},
	},
	{
		Name:    "month-d-y",
		Pattern: regexp.MustCompile(`(?i)\b` + monthNames + `[ \t]+(\d{1,2})(?:st|nd|rd|th)?,?[ \t]+(\d{4})\b`),
		Extract: func(m []string) (string, bool) {
			return canonicalDate(m[3], strconv.Itoa(months[strings.ToLower(m[1])]), m[2])
		},
	},
}

var paymentMethodRules = []Rule{
	{
		Name:    "wallet",
		Pattern: regexp.MustCompile(`(?i)\b(?:paytm|phonepe|mobikwik)[ \t]+wallet\b|\bamazon[ \t]*pay\b|\bwallet\b`),
		Extract: constantValue("wallet"),
	},
	{
		Name:    "upi",
		Pattern: regexp.MustCompile(`(?i)\bupi\b|@(?:ok[a-z]+|ybl|paytm|upi|ibl|axl)\b|\b(?:google[ \t]*pay|gpay|phonepe|bhim)\b`),
		Extract: constantValue("UPI"),
	},
	{
		Name:    "card",
		Pattern: regexp.MustCompile(`(?i)\b(?:card|visa|mastercard|rupay|amex)\b`),
		Extract: constantValue("card"),
	},
	{
		Name:    "netbanking",
		Pattern: regexp.MustCompile(`(?i)\bnet[ \t]*banking\b|\b(?:neft|imps|rtgs)\b`),
		Extract: constantValue("netbanking"),
	},
	{
		Name:    "cash",
		Pattern: regexp.MustCompile(`(?i)\bcash\b`),
		Extract: constantValue("cash"),
	},
}

func constantValue(v string) func([]string) (string, bool) {
	return func([]string) (string, bool) { return v, true }
}

package constants

import (
	"strings"
)

type Category string

const (
	FoodAndDining  Category = "Food & Dining"
	Transportation Category = "Transportation"
	Shopping       Category = "Shopping"
	Entertainment  Category = "Entertainment"
	Other          Category = "Other"
)

var allCategories = []Category{
	FoodAndDining,
	Transportation,
	Shopping,
	Entertainment,
	Other,
}

// categoryKeywords is evaluated in allCategories order; the first category with a
// keyword contained in the vendor text wins.
var categoryKeywords = map[Category][]string{
	FoodAndDining: {
		"starbucks", "coffee", "cafe", "café", "restaurant", "swiggy", "zomato", "dominos", "domino's",
		"pizza", "mcdonald", "mcdonalds", "kfc", "burger", "subway", "dunkin", "chai", "bakery", "food", "dine", "kitchen",
	},
	Transportation: {
		"uber", "ola", "rapido", "lyft", "metro", "irctc", "railway", "taxi", "cab", "petrol", "fuel",
		"indian oil", "bharat petroleum", "hp petrol", "fastag", "parking", "bus", "airline", "indigo",
	},
	Shopping: {
		"amazon", "flipkart", "myntra", "ajio", "meesho", "nykaa", "mall", "store", "mart", "bigbasket",
		"blinkit", "zepto", "dmart", "reliance digital", "reliance trends", "fashion", "supermarket",
	},
	Entertainment: {
		"netflix", "spotify", "prime video", "hotstar", "bookmyshow", "pvr", "inox", "cinema", "movie",
		"youtube", "gaming", "steam", "concert", "theatre",
	},
}

// CategoryForVendor runs the keyword membership test against the vendor name.
func CategoryForVendor(vendor string) Category {
	v := strings.ToLower(strings.TrimSpace(vendor))
	if v == "" {
		return Other
	}
	for _, cat := range allCategories {
		for _, kw := range categoryKeywords[cat] {
			if ContainsWord(v, kw) {
				return cat
			}
		}
	}
	return Other
}

// Canonicalize maps a free-form label (e.g. "food", "travel") onto the category set.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Category{
		"food":          FoodAndDining,
		"dining":        FoodAndDining,
		"meals":         FoodAndDining,
		"restaurant":    FoodAndDining,
		"travel":        Transportation,
		"transport":     Transportation,
		"commute":       Transportation,
		"fuel":          Transportation,
		"groceries":     Shopping,
		"retail":        Shopping,
		"subscriptions": Entertainment,
		"movies":        Entertainment,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}

// ContainsWord reports whether kw occurs in s on word boundaries, so "ola" does not match "cola".
func ContainsWord(s, kw string) bool {
	for from := 0; from <= len(s)-len(kw); {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(kw)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

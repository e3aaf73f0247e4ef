package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/dipex/constants"
)

var fixedNow = func() time.Time { return time.Date(2025, 6, 15, 22, 30, 0, 0, time.FixedZone("IST", 5*3600+1800)) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse_UPIScreenshot(t *testing.T) {
	text := "Paid to Starbucks Coffee ₹350.00\nTransaction ID: TXN123456789\n12/01/2025\nPayment Successful via UPI"

	c := ParseWithDefaults(text, Defaults{Now: fixedNow})

	assert.Equal(t, "Starbucks Coffee", c.Vendor)
	assert.Equal(t, 350.00, c.Amount)
	assert.Equal(t, "INR", c.Currency)
	assert.Equal(t, "123456789", c.TransactionID)
	assert.Equal(t, date(2025, 1, 12), c.Date)
	assert.Equal(t, string(constants.FoodAndDining), c.Category)
	assert.Equal(t, constants.PaymentMethodUPI, c.PaymentMethod)
	assert.Equal(t, string(constants.PaymentStatusSuccess), c.PaymentStatus)
	assert.Equal(t, text, c.RawText)
}

func TestParse_EmptyTextIsFullyDefaulted(t *testing.T) {
	c := ParseWithDefaults("", Defaults{Now: fixedNow})

	assert.Equal(t, constants.UnknownVendor, c.Vendor)
	assert.Zero(t, c.Amount)
	assert.Equal(t, "INR", c.Currency)
	assert.Empty(t, c.TransactionID)
	assert.Equal(t, date(2025, 6, 15), c.Date, "today is taken in UTC")
	assert.Equal(t, string(constants.Other), c.Category)
	assert.Equal(t, constants.PaymentMethodUnknown, c.PaymentMethod)
	assert.Equal(t, string(constants.PaymentStatusUnknown), c.PaymentStatus)
	assert.Empty(t, c.RawText)
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"₹", "Rs.", "INR", "Paid to", "Merchant:", "31/02/2025", "\x00\xff\xfe",
		strings.Repeat("₹9,", 500), strings.Repeat("to ", 1000),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			c := Parse(in)
			assert.NotEmpty(t, c.Vendor)
			assert.NotEmpty(t, c.Currency)
			assert.False(t, c.Date.IsZero())
			assert.NotEmpty(t, c.Category)
			assert.NotEmpty(t, c.PaymentMethod)
			assert.NotEmpty(t, c.PaymentStatus)
		}, in)
	}
}

func TestParse_Amount(t *testing.T) {
	tests := []struct {
		text     string
		amount   float64
		currency string
	}{
		{"Total ₹350.00", 350.00, "INR"},
		{"Rs. 1,200", 1200.0, "INR"},
		{"INR 2,499.5 debited", 2499.5, "INR"},
		{"Total 450 INR", 450, "INR"},
		{"Charged $12.50", 12.50, "USD"},
		{"₹ 1,00,000", 100000, "INR"},
		{"no money here", 0, "INR"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c := Parse(tt.text)
			assert.Equal(t, tt.amount, c.Amount)
			assert.Equal(t, tt.currency, c.Currency)
		})
	}
}

func TestParse_AmountRulePrecedence(t *testing.T) {
	// symbol rule beats the Rs. rule even when the Rs. amount comes first
	c := Parse("Rs. 99 fee, paid ₹500")
	assert.Equal(t, 500.0, c.Amount)
}

func TestParse_DefaultCurrency(t *testing.T) {
	c := ParseWithDefaults("nothing", Defaults{Currency: "usd"})
	assert.Equal(t, "USD", c.Currency)
}

func TestParse_TransactionID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled with txn prefix", "Transaction ID: TXN123456789", "123456789"},
		{"bare txn", "TXN987654321 completed", "987654321"},
		{"ref no", "Ref No. 556677", "556677"},
		{"upi labeled", "UPI: 9876543210ab", "9876543210AB"},
		{"numeric fallback", "Amount ₹50 412345678901234", "412345678901234"},
		{"label without digits is skipped", "Transaction successful\n412345678901", "412345678901"},
		{"short number is not an id", "Paid ₹50 at 1234", ""},
		{"vpa handle is not an id", "UPI ID: 9876543210@okaxis\nUPI transaction ID: 412345678901", "412345678901"},
		{"vpa only", "UPI ID: 9876543210@okaxis", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).TransactionID)
		})
	}
}

func TestParse_Merchant(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"paid to before amount", "Paid to Starbucks ₹350.00", "Starbucks"},
		{"paid to at end of line", "Rs. 1,200 paid to Uber", "Uber"},
		{"payment to", "Payment to Netflix India Rs 649", "Netflix India"},
		{"merchant label", "Merchant: Blue Tokai Coffee\nAmount: ₹250", "Blue Tokai Coffee"},
		{"short match rejected", "Paid to AB\nMerchant: Blue Tokai Coffee", "Blue Tokai Coffee"},
		{"paid to on its own line", "Paid to\nZomato Ltd\n₹420", "Zomato Ltd"},
		{"to with colon", "To: Starbucks\n₹350", "Starbucks"},
		{"paid to with colon", "Paid to: Blue Tokai Coffee ₹250", "Blue Tokai Coffee"},
		{"nothing", "₹350", constants.UnknownVendor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).Vendor)
		})
	}
}

func TestParse_Category(t *testing.T) {
	assert.Equal(t, string(constants.FoodAndDining), Parse("Paid to Starbucks Coffee ₹1").Category)
	assert.Equal(t, string(constants.Transportation), Parse("Paid to Uber ₹1").Category)
	assert.Equal(t, string(constants.Other), Parse("Paid to Random Shop XYZ ₹1").Category)
}

func TestParse_Status(t *testing.T) {
	assert.Equal(t, constants.PaymentStatusSuccess, Status("Payment Successful"))
	assert.Equal(t, constants.PaymentStatusFailed, Status("Payment failed. Money will be refunded if debited"))
	assert.Equal(t, constants.PaymentStatusFailed, Status("Transaction unsuccessful"))
	assert.Equal(t, constants.PaymentStatusUnknown, Status("₹350 Starbucks 01/01/2025"))
}

func TestParse_PaymentMethod(t *testing.T) {
	tests := map[string]string{
		"Paid via UPI":                constants.PaymentMethodUPI,
		"to starbucks@okicici":        constants.PaymentMethodUPI,
		"HDFC Bank Debit Card xx1234": constants.PaymentMethodCard,
		"Paytm Wallet balance":        constants.PaymentMethodWallet,
		"NEFT transfer":               constants.PaymentMethodNetBanking,
		"Paid in cash":                constants.PaymentMethodCash,
		"cashback credited to bank":   constants.PaymentMethodUnknown,
	}
	for text, want := range tests {
		assert.Equal(t, want, Parse(text).PaymentMethod, text)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"01-02-2025", date(2025, 2, 1), true},
		{"01/02/2025", date(2025, 2, 1), true},
		{"1/2/25", date(2025, 2, 1), true},
		{"2025-01-01", date(2025, 1, 1), true},
		{"on 5 Mar 2025, 10:32 AM", date(2025, 3, 5), true},
		{"12th January, 2025", date(2025, 1, 12), true},
		{"12-Jan-2025", date(2025, 1, 12), true},
		{"Jan 12, 2025", date(2025, 1, 12), true},
		{"September 3 2024", date(2024, 9, 3), true},
		{"31/02/2025", time.Time{}, false},
		{"13/13/2025", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDate(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_UnparseableDateIsToday(t *testing.T) {
	c := ParseWithDefaults("Date: 31/02/2025", Defaults{Now: fixedNow})
	assert.Equal(t, date(2025, 6, 15), c.Date)
}

func TestFirstMatch_SkipsRejectedMatch(t *testing.T) {
	v, rule, ok := firstMatch(merchantRules, "paid to AB\npaid to XYZ Traders ₹10")
	require.True(t, ok)
	assert.Equal(t, "XYZ Traders", v)
	assert.Equal(t, "paid-to-phrase", rule)
}

func TestParse_UPIReceiptWithHandle(t *testing.T) {
	c := Parse("To: Starbucks\nUPI ID: 9876543210@okaxis\nUPI transaction ID: 412345678901")
	assert.Equal(t, "412345678901", c.TransactionID)
	assert.Equal(t, "Starbucks", c.Vendor)
}

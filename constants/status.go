package constants

// PaymentStatus is the outcome stated on the payment screenshot.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "Success"
	PaymentStatusFailed  PaymentStatus = "Failed"
	PaymentStatusUnknown PaymentStatus = "Unknown"
)

// Checked in order; failure vocabulary first so "payment failed, amount will be refunded
// successfully" is not reported as a success.
var (
	FailureKeywords = []string{
		"failed", "failure", "declined", "unsuccessful", "not successful", "rejected",
		"cancelled", "canceled", "reversed", "transaction failed", "payment failed",
	}
	SuccessKeywords = []string{
		"successful", "success", "paid successfully", "payment successful", "completed",
		"approved", "money sent", "sent successfully", "received", "debited", "credited", "paid",
	}
)

// Payment methods. Stored lower-case except UPI, which is kept as the acronym.
const (
	PaymentMethodUPI        = "UPI"
	PaymentMethodCard       = "card"
	PaymentMethodNetBanking = "netbanking"
	PaymentMethodWallet     = "wallet"
	PaymentMethodCash       = "cash"
	PaymentMethodUnknown    = "unknown"
)

const (
	DefaultCurrency = "INR"
	UnknownVendor   = "Unknown Merchant"
)

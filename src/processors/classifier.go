// backend/src/processors/classifier.go
package processors

import (
	"regexp"
	"strings"

	"github.com/username/finlens/backend/src/models"
)

const maxMerchantLength = 100

// categoryRule maps narration keywords to a category/subcategory pair.
type categoryRule struct {
	keywords    []string
	category    string
	subcategory string
}

// categoryRules is evaluated strictly top-to-bottom; the first rule with any
// keyword found in the lower-cased narration wins. Order is load-bearing: a
// salary credit narration also mentions a transfer rail, so "salary" must sit
// above the generic transfer keywords.
var categoryRules = []categoryRule{
	{[]string{"salary", "sal credit", "payroll"}, "Income", "Salary"},
	{[]string{"interest", "int.pd", "int paid"}, "Income", "Interest"},
	{[]string{"dividend"}, "Income", "Dividend"},
	{[]string{"refund", "reversal", "cashback"}, "Income", "Refund"},
	{[]string{"swiggy", "zomato", "restaurant", "dominos", "mcdonald", "eatery", "dining"}, "Food", "Dining"},
	{[]string{"bigbasket", "grofers", "blinkit", "dmart", "grocery", "supermarket", "kirana"}, "Food", "Groceries"},
	{[]string{"rent", "landlord", "housing society", "maintenance chg"}, "Housing", "Rent"},
	{[]string{"electricity", "power bill", "bescom", "mseb", "water bill", "gas bill", "broadband", "airtel", "jio", "vodafone", "bsnl", "dth"}, "Utilities", "Bills"},
	{[]string{"emi", "loan repay", "instalment", "installment"}, "Debt", "EMI"},
	{[]string{"sip", "mutual fund", "mf purchase", "zerodha", "groww", "nps", "ppf"}, "Investment", "Securities"},
	{[]string{"lic", "insurance", "premium", "policy"}, "Insurance", "Premium"},
	{[]string{"irctc", "uber", "ola", "rapido", "metro card", "fastag", "petrol", "diesel", "fuel"}, "Transport", "Travel"},
	{[]string{"makemytrip", "goibibo", "oyo", "airbnb", "indigo", "air india", "vistara", "hotel"}, "Travel", "Holiday"},
	{[]string{"amazon", "flipkart", "myntra", "ajio", "nykaa", "shopping", "mall"}, "Shopping", "Online"},
	{[]string{"netflix", "hotstar", "prime video", "spotify", "bookmyshow", "pvr", "inox"}, "Entertainment", "Subscriptions"},
	{[]string{"pharmacy", "apollo", "hospital", "clinic", "diagnostic", "medplus", "netmeds"}, "Health", "Medical"},
	{[]string{"school", "college", "tuition", "course", "udemy", "coursera", "exam fee"}, "Education", "Fees"},
	{[]string{"atm", "cash withdrawal", "cash wdl"}, "Cash", "Withdrawal"},
	{[]string{"credit card", "card payment", "cc payment"}, "Debt", "CardPayment"},
	{[]string{"charges", "fee", "gst", "sms chg", "amc"}, "Fees", "BankCharges"},
	{[]string{"transfer", "neft", "imps", "rtgs", "upi", "fund trf"}, "Transfer", "General"},
}

const (
	defaultCategory    = "Other"
	defaultSubcategory = "Uncategorized"
)

// merchantPatterns are tried in order; the first pattern whose capture group
// matches wins. Tuned to the common payment-rail narration prefixes.
var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^UPI[-/]([^-/]+)`),
	regexp.MustCompile(`(?i)^NEFT[-/](?:[A-Z0-9]+[-/])?([A-Za-z][^-/]*)`),
	regexp.MustCompile(`(?i)^IMPS[-/](?:[A-Z0-9]+[-/])?([A-Za-z][^-/]*)`),
	regexp.MustCompile(`(?i)\bto\s+([A-Za-z][A-Za-z .&']+)`),
	regexp.MustCompile(`(?i)\bfrom\s+([A-Za-z][A-Za-z .&']+)`),
}

// paymentModeKeywords are scanned in a single pass, first match wins.
var paymentModeKeywords = []struct {
	keyword string
	mode    models.PaymentMode
}{
	{"upi", models.ModeUPI},
	{"neft", models.ModeNEFT},
	{"imps", models.ModeIMPS},
	{"rtgs", models.ModeRTGS},
	{"atm", models.ModeATM},
	{"pos", models.ModeCard},
	{"card", models.ModeCard},
	{"cheque", models.ModeCheque},
	{"chq", models.ModeCheque},
	{"cash", models.ModeCash},
	{"nach", models.ModeAutoDebit},
	{"ecs", models.ModeAutoDebit},
	{"auto debit", models.ModeAutoDebit},
}

// Classifier infers category, merchant and payment mode from free-text
// narrations using deterministic ordered rules.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Categorize maps a narration to a (category, subcategory) pair via the
// ordered rule table. Empty or unmatched narrations fall back to
// (Other, Uncategorized).
func (c *Classifier) Categorize(narration string) (string, string) {
	lower := strings.ToLower(strings.TrimSpace(narration))
	if lower == "" {
		return defaultCategory, defaultSubcategory
	}
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category, rule.subcategory
			}
		}
	}
	return defaultCategory, defaultSubcategory
}

// ExtractMerchant returns a best-effort merchant name from the narration, or
// an empty string when the narration itself is empty.
func (c *Classifier) ExtractMerchant(narration string) string {
	trimmed := strings.TrimSpace(narration)
	if trimmed == "" {
		return ""
	}

	for _, pattern := range merchantPatterns {
		if m := pattern.FindStringSubmatch(trimmed); m != nil {
			return capMerchant(m[1])
		}
	}

	// Fallback: whatever precedes the first delimiter.
	if idx := strings.IndexAny(trimmed, "-/"); idx > 0 {
		return capMerchant(trimmed[:idx])
	}
	return capMerchant(trimmed)
}

func capMerchant(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxMerchantLength {
		s = s[:maxMerchantLength]
	}
	return s
}

// DetectPaymentMode scans the narration for rail keywords, first match wins.
func (c *Classifier) DetectPaymentMode(narration string) models.PaymentMode {
	lower := strings.ToLower(narration)
	for _, entry := range paymentModeKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.mode
		}
	}
	return models.ModeOther
}

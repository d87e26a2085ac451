package processors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/username/finlens/backend/src/models"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name        string
		narration   string
		category    string
		subcategory string
	}{
		{"salary credit", "SALARY CREDIT NOV 2024", "Income", "Salary"},
		{"salary wins over transfer rail", "NEFT-SALARY CREDIT ACME CORP", "Income", "Salary"},
		{"interest paid", "INT.PD:01-11-2024 TO 30-11-2024", "Income", "Interest"},
		{"food delivery", "UPI-SWIGGY-ORDER123", "Food", "Dining"},
		{"groceries", "POS DMART MUMBAI", "Food", "Groceries"},
		{"rent", "NEFT-HOUSE RENT NOV", "Housing", "Rent"},
		{"emi", "HDFC LOAN EMI 448821", "Debt", "EMI"},
		{"sip", "ACH D- ZERODHA SIP", "Investment", "Securities"},
		{"insurance premium", "NACH-LIC PREMIUM", "Insurance", "Premium"},
		{"fuel", "UPI-INDIANOIL PETROL PUMP", "Transport", "Travel"},
		{"online shopping", "UPI-AMAZON PAY-PAYMENT123", "Shopping", "Online"},
		{"cash withdrawal", "ATM WDL 00412", "Cash", "Withdrawal"},
		{"bare transfer", "IMPS-P2A-429911-JOHN", "Transfer", "General"},
		{"unmatched", "RANDOM TEXT XYZ", "Other", "Uncategorized"},
		{"empty", "", "Other", "Uncategorized"},
		{"whitespace only", "   ", "Other", "Uncategorized"},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, subcategory := c.Categorize(tt.narration)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.subcategory, subcategory)
		})
	}
}

func TestCategorizeIsDeterministic(t *testing.T) {
	c := NewClassifier()
	first, _ := c.Categorize("UPI-SWIGGY-ORDER123")
	for i := 0; i < 10; i++ {
		category, _ := c.Categorize("UPI-SWIGGY-ORDER123")
		assert.Equal(t, first, category)
	}
}

func TestExtractMerchant(t *testing.T) {
	tests := []struct {
		name      string
		narration string
		want      string
	}{
		{"upi prefix", "UPI-SWIGGY-ORDER123", "SWIGGY"},
		{"upi with spaces in name", "UPI-AMAZON PAY-PAYMENT123", "AMAZON PAY"},
		{"upi slash delimiter", "UPI/PHONEPE/9988776655", "PHONEPE"},
		{"neft with ifsc segment", "NEFT-HDFC0001234-HOUSE RENT-NOV", "HOUSE RENT"},
		{"imps direct", "IMPS-RAVI KUMAR-429911", "RAVI KUMAR"},
		{"to clause", "TRANSFER TO John Doe", "John Doe"},
		{"from clause", "RECEIVED FROM Acme Corp", "Acme Corp"},
		{"fallback before delimiter", "BIGBAZAAR-POS 4421", "BIGBAZAAR"},
		{"no delimiter", "SALARY", "SALARY"},
		{"empty", "", ""},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ExtractMerchant(tt.narration))
		})
	}
}

func TestExtractMerchantCapsLength(t *testing.T) {
	long := "UPI-" + strings.Repeat("A", 150)
	got := NewClassifier().ExtractMerchant(long)
	assert.Len(t, got, maxMerchantLength)
}

func TestDetectPaymentMode(t *testing.T) {
	tests := []struct {
		narration string
		want      models.PaymentMode
	}{
		{"UPI-SWIGGY-ORDER123", models.ModeUPI},
		{"NEFT-HOUSE RENT NOV", models.ModeNEFT},
		{"IMPS-P2A-429911", models.ModeIMPS},
		{"RTGS OUTWARD 11223", models.ModeRTGS},
		{"ATM WDL 00412", models.ModeATM},
		{"POS DMART MUMBAI", models.ModeCard},
		{"CHQ DEP 00123", models.ModeCheque},
		{"CASH DEPOSIT BRANCH", models.ModeCash},
		{"NACH-LIC PREMIUM", models.ModeAutoDebit},
		{"ECS MANDATE SIP", models.ModeAutoDebit},
		{"SALARY CREDIT NOV 2024", models.ModeOther},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.narration, func(t *testing.T) {
			assert.Equal(t, tt.want, c.DetectPaymentMode(tt.narration))
		})
	}
}

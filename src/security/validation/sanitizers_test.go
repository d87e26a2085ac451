package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain narration untouched", "UPI-SWIGGY-ORDER123", "UPI-SWIGGY-ORDER123"},
		{"script removed", "<script>alert(1)</script>POS PURCHASE", "POS PURCHASE"},
		{"tags stripped", "<b>SALARY</b> CREDIT", "SALARY CREDIT"},
		{"whitespace trimmed", "  NEFT-HOUSE RENT  ", "NEFT-HOUSE RENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.input))
		})
	}
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", SanitizeForFormulaInjection("=SUM(A1)"))
	assert.Equal(t, "'@cmd", SanitizeForFormulaInjection("@cmd"))
	assert.Equal(t, "'-500.00", SanitizeForFormulaInjection("-500.00"))
	assert.Equal(t, "SALARY", SanitizeForFormulaInjection("SALARY"))
	assert.Equal(t, "", SanitizeForFormulaInjection(""))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "SALARY\tCREDIT\n", StripUnprintable("SALARY\t\x00CREDIT\x07\n"))
}

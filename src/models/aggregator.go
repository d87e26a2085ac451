// backend/src/models/aggregator.go
package models

// AggregatorPayload is the nested FI response returned by the account
// aggregator gateway: provider -> account -> transactions, and separately
// provider -> account -> loan -> EMI schedule. The shape is owned by the
// gateway; this core treats it as opaque but known-shaped data, so every
// level is optional and missing branches simply contribute no records.
type AggregatorPayload struct {
	SessionID string    `json:"session_id,omitempty"`
	FIPs      []FIPData `json:"fips"`
}

// FIPData is one financial-information provider's slice of the payload.
type FIPData struct {
	FipID    string        `json:"fip_id"`
	FipName  string        `json:"fip_name,omitempty"`
	Accounts []AccountData `json:"accounts"`
}

// AccountData carries one account's transactions and, for loan accounts,
// the EMI schedule.
type AccountData struct {
	MaskedAccountNumber string                  `json:"masked_account_number"`
	AccountType         string                  `json:"account_type"` // deposit, credit_card, loan, mutual_fund, insurance
	Currency            string                  `json:"currency,omitempty"`
	Transactions        []AggregatorTransaction `json:"transactions,omitempty"`
	Loan                *LoanData               `json:"loan,omitempty"`
}

// AggregatorTransaction is one raw transaction as reported by the provider.
type AggregatorTransaction struct {
	TxnID          string `json:"txn_id"`
	Amount         string `json:"amount"`
	Type           string `json:"type"` // CREDIT or DEBIT
	Narration      string `json:"narration,omitempty"`
	Reference      string `json:"reference,omitempty"`
	ValueDate      string `json:"value_date"`
	CurrentBalance string `json:"current_balance,omitempty"`
	Mode           string `json:"mode,omitempty"`
}

// LoanData holds the repayment schedule attached to a loan account.
type LoanData struct {
	LoanType     string     `json:"loan_type,omitempty"`
	InterestRate string     `json:"interest_rate,omitempty"`
	EMIs         []EMIEntry `json:"emis,omitempty"`
}

// EMIEntry is one instalment in a loan repayment schedule. Providers often
// omit a transaction id here; the parser synthesizes one from the masked
// account number and due date.
type EMIEntry struct {
	TxnID   string `json:"txn_id,omitempty"`
	Amount  string `json:"amount"`
	DueDate string `json:"due_date"`
	Status  string `json:"status,omitempty"` // PAID, DUE, OVERDUE
}

package store

import (
	"github.com/mikey/llm-email-triage/internal/core"
)

// DefaultTaxonomy returns the stock banking service request taxonomy used
// to seed an empty store
func DefaultTaxonomy() []core.RequestType {
	return []core.RequestType{
		{
			Name:        "Adjustment",
			Description: "Request to adjust an existing facility or position",
			Fields:      []string{"deal_name", "amount", "effective_date"},
		},
		{
			Name:        "AU Transfer",
			Description: "Allocation unit transfer between facilities",
			Fields:      []string{"deal_name", "amount", "source_account", "destination_account"},
		},
		{
			Name:        "Closing Notice",
			Description: "Notice relating to closing a deal or facility",
			SubTypes:    []string{"Reallocation Fees", "Amendment Fees", "Reallocation Principal"},
			Fields:      []string{"deal_name", "amount", "closing_date"},
		},
		{
			Name:        "Commitment Change",
			Description: "Change to a lender's commitment amount",
			SubTypes:    []string{"Cashless Roll", "Decrease", "Increase"},
			Fields:      []string{"deal_name", "amount", "effective_date"},
		},
		{
			Name:        "Fee Payment",
			Description: "Payment of ongoing or letter of credit fees",
			SubTypes:    []string{"Ongoing Fee", "Letter of Credit Fee"},
			Fields:      []string{"deal_name", "amount", "fee_type", "due_date"},
		},
		{
			Name:        "Money Movement - Inbound",
			Description: "Funds flowing into the bank: principal, interest or fees",
			SubTypes:    []string{"Principal", "Interest", "Principal + Interest", "Principal + Interest + Fee"},
			Fields:      []string{"deal_name", "amount", "payment_date", "account_number"},
		},
		{
			Name:        "Money Movement - Outbound",
			Description: "Funds flowing out of the bank to a borrower or investor",
			SubTypes:    []string{"Timebound", "Foreign Currency"},
			Fields:      []string{"deal_name", "amount", "currency", "payment_date", "beneficiary"},
		},
	}
}

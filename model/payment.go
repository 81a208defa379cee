package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a single SEPA credit transfer.
type Payment struct {
	PaymentID         string          `json:"payment_id,omitempty"`
	DebtorIBAN        string          `json:"debtor_iban"`
	CreditorIBAN      string          `json:"creditor_iban"`
	CreditorName      string          `json:"creditor_name"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Purpose           string          `json:"purpose,omitempty"`
	EndToEndID        string          `json:"end_to_end_id,omitempty"`
	RequestedDate     time.Time       `json:"requested_date,omitempty"`
	FutureOrder       bool            `json:"future_order,omitempty"`
	DeleteFutureOrder bool            `json:"delete_future_order,omitempty"`
}

// BulkPayment bundles several transfers debited from one account on one
// execution date.
type BulkPayment struct {
	DebtorIBAN    string    `json:"debtor_iban"`
	Payments      []Payment `json:"payments"`
	ExecutionDate time.Time `json:"execution_date,omitempty"`
}

package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Amount is a signed monetary value in a single currency.
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// Booking is one ledger entry of a bank account. Amount is signed: credits
// positive, debits negative. Balance is the running balance after this
// booking; it is derived, banks only supply point balances.
type Booking struct {
	ExternalID  string           `json:"external_id"`
	BankOwnedID bool             `json:"-"`
	Amount      decimal.Decimal  `json:"amount"`
	Currency    string           `json:"currency"`
	BookingDate time.Time        `json:"booking_date"`
	ValutaDate  time.Time        `json:"valuta_date"`
	OtherIBAN   string           `json:"other_iban,omitempty"`
	OtherOwner  string           `json:"other_owner,omitempty"`
	Purpose     string           `json:"purpose,omitempty"`
	Category    string           `json:"category,omitempty"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
}

// DeriveExternalID builds the fallback composite identifier used when the
// bank does not supply a stable booking id. It must be recomputed whenever
// the derived balance changes, so repeated fetches of the same data produce
// identical ids.
func (b *Booking) DeriveExternalID() string {
	balance := ""
	if b.Balance != nil {
		balance = b.Balance.String()
	}
	return fmt.Sprintf("%s_%s_%s", b.ValutaDate.Format("2006-01-02"), b.Amount.String(), balance)
}

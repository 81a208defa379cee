package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is a point-in-time account balance as reported by the bank.
type Balance struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Date     time.Time       `json:"date"`
}

// BalancesReport holds at most one ready (closing booked) and at most one
// unready (expected) balance for an account.
type BalancesReport struct {
	ReadyBalance   *Balance `json:"ready_balance,omitempty"`
	UnreadyBalance *Balance `json:"unready_balance,omitempty"`
}

// SetReadyBalance replaces the closing booked balance. Later pages win, the
// report never holds more than one value per kind.
func (r *BalancesReport) SetReadyBalance(balance *Balance) {
	if balance != nil {
		r.ReadyBalance = balance
	}
}

func (r *BalancesReport) SetUnreadyBalance(balance *Balance) {
	if balance != nil {
		r.UnreadyBalance = balance
	}
}

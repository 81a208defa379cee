package model

import "time"

// Account is one logical bank account. The same account carries a different
// bank-side resource id per protocol, tracked in ExternalIDs.
type Account struct {
	AccountID   string             `json:"account_id"`
	UserID      string             `json:"user_id"`
	IBAN        string             `json:"iban"`
	Currency    string             `json:"currency"`
	Owner       string             `json:"owner"`
	Name        string             `json:"name"`
	ExternalIDs map[BankAPI]string `json:"external_ids"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ExternalID returns the bank-side resource id for the given protocol, or ""
// if that protocol has not resolved this account yet.
func (a *Account) ExternalID(api BankAPI) string {
	if a.ExternalIDs == nil {
		return ""
	}
	return a.ExternalIDs[api]
}

// AddExternalID records the bank-side resource id a protocol uses for this
// account. Entries are added lazily as different protocols resolve the same
// IBAN.
func (a *Account) AddExternalID(api BankAPI, resourceID string) {
	if resourceID == "" {
		return
	}
	if a.ExternalIDs == nil {
		a.ExternalIDs = make(map[BankAPI]string)
	}
	a.ExternalIDs[api] = resourceID
}

type StandingOrder struct {
	OrderID        string `json:"order_id"`
	Amount         Amount `json:"amount"`
	Cycle          string `json:"cycle"`
	ExecutionDay   int    `json:"execution_day"`
	FirstExecution string `json:"first_execution"`
	LastExecution  string `json:"last_execution,omitempty"`
	OtherIBAN      string `json:"other_iban"`
	OtherOwner     string `json:"other_owner"`
	Purpose        string `json:"purpose"`
}

package model

// AccountInformationResponse is the uniform result of account discovery.
type AccountInformationResponse struct {
	Accounts []Account `json:"accounts"`
}

// TransactionsResponse is the uniform result of a transaction listing:
// bookings newest-first plus whatever balances the bank reported.
type TransactionsResponse struct {
	Bookings       []Booking       `json:"bookings"`
	BalancesReport *BalancesReport `json:"balances_report,omitempty"`
}

// UpdateAuthResponse is produced by every SCA transition and by status
// queries. Challenge and ScaMethods are only present when the bank issued
// them for the current step.
type UpdateAuthResponse struct {
	ScaStatus  string      `json:"sca_status"`
	BankAPI    BankAPI     `json:"bank_api"`
	Challenge  *Challenge  `json:"challenge,omitempty"`
	ScaMethods []ScaMethod `json:"sca_methods,omitempty"`
	PsuMessage string      `json:"psu_message,omitempty"`
}

// PaymentResponse reports the outcome of a payment initiation. A pending
// authorisation means the caller must drive the SCA dialog to FINALISED
// before the bank executes the payment. A redirect URL means SCA happens on a
// hosted page outside this process.
type PaymentResponse struct {
	PaymentID            string                `json:"payment_id,omitempty"`
	TransactionStatus    string                `json:"transaction_status,omitempty"`
	RedirectURL          string                `json:"redirect_url,omitempty"`
	PendingAuthorisation *ConsentAuthorisation `json:"pending_authorisation,omitempty"`
}

// CreateConsentResponse is returned when a new consent dialog is opened.
type CreateConsentResponse struct {
	ConsentID       string `json:"consent_id"`
	AuthorisationID string `json:"authorisation_id"`
	RedirectURL     string `json:"redirect_url,omitempty"`
}

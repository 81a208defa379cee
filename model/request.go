package model

import "time"

// TransactionRequest carries everything an adapter needs to perform one
// operation against a bank. SessionData is protocol-specific consent/session
// state passed through opaquely; adapters cast it to their own type.
type TransactionRequest struct {
	BankCode     string      `json:"bank_code"`
	PreferredAPI BankAPI     `json:"preferred_api,omitempty"`
	UserID       string      `json:"user_id,omitempty"`
	IBAN         string      `json:"iban,omitempty"`
	ConsentID    string      `json:"consent_id,omitempty"`
	Account      *Account    `json:"account,omitempty"`
	DateFrom     time.Time   `json:"date_from,omitempty"`
	DateTo       time.Time   `json:"date_to,omitempty"`
	WithBalance  bool        `json:"with_balance,omitempty"`
	Payment      *Payment    `json:"payment,omitempty"`
	SessionData  interface{} `json:"-"`
}

// UpdatePsuAuthenticationRequest submits the PSU's authentication factor for
// an authorisation dialog.
type UpdatePsuAuthenticationRequest struct {
	ConsentID       string `json:"consent_id"`
	AuthorisationID string `json:"authorisation_id"`
	PsuID           string `json:"psu_id"`
	Password        string `json:"password"`
}

// SelectScaMethodRequest picks one of the SCA methods the bank offered.
type SelectScaMethodRequest struct {
	ConsentID       string `json:"consent_id"`
	AuthorisationID string `json:"authorisation_id"`
	MethodID        string `json:"method_id"`
}

// TransactionAuthorisationRequest submits the challenge response (TAN).
type TransactionAuthorisationRequest struct {
	ConsentID       string `json:"consent_id"`
	AuthorisationID string `json:"authorisation_id"`
	ScaResponse     string `json:"sca_response"`
}

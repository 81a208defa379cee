package model

const (
	ScaStatusStarted          = "STARTED"
	ScaStatusPsuAuthenticated = "PSU_AUTHENTICATED"
	ScaStatusMethodSelected   = "SCA_METHOD_SELECTED"
	ScaStatusFinalised        = "FINALISED"
	ScaStatusFailed           = "FAILED"
	ScaStatusExempted         = "EXEMPTED"
)

// ScaMethod is one authentication method the bank offers for a dialog
// (photoTAN, smsTAN, push, ...).
type ScaMethod struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Challenge is the bank-issued artifact the PSU must answer: an OTP prompt,
// a rendered image (photoTAN matrix) or additional challenge data.
type Challenge struct {
	Title          string `json:"title,omitempty"`
	Label          string `json:"label,omitempty"`
	Format         string `json:"format,omitempty"`
	Image          string `json:"image,omitempty"`
	Data           string `json:"data,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

// ConsentAuthorisation tracks one authorisation dialog within a consent.
// Terminal SCA states are immutable.
type ConsentAuthorisation struct {
	ConsentID       string      `json:"consent_id"`
	AuthorisationID string      `json:"authorisation_id"`
	ScaStatus       string      `json:"sca_status"`
	SelectedMethod  *ScaMethod  `json:"selected_method,omitempty"`
	ScaMethods      []ScaMethod `json:"sca_methods,omitempty"`
	Challenge       *Challenge  `json:"challenge,omitempty"`
	BankAPI         BankAPI     `json:"bank_api"`
}

// ScaStatusTerminal reports whether a dialog status admits no further
// mutation. EXEMPTED counts as terminal success, FAILED as terminal failure.
func ScaStatusTerminal(status string) bool {
	switch status {
	case ScaStatusFinalised, ScaStatusFailed, ScaStatusExempted:
		return true
	}
	return false
}

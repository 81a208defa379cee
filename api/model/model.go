package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/shopspring/decimal"
)

// BankAccess is the bank-addressing part shared by every request.
type BankAccess struct {
	BankCode     string        `json:"bank_code"`
	PreferredAPI model.BankAPI `json:"preferred_api,omitempty"`
	UserID       string        `json:"user_id"`
	IBAN         string        `json:"iban,omitempty"`
	ConsentID    string        `json:"consent_id,omitempty"`
}

func (b BankAccess) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.BankCode, validation.Required),
		validation.Field(&b.UserID, validation.Required),
	)
}

func (b BankAccess) ToTransactionRequest() *model.TransactionRequest {
	return &model.TransactionRequest{
		BankCode:     b.BankCode,
		PreferredAPI: b.PreferredAPI,
		UserID:       b.UserID,
		IBAN:         b.IBAN,
		ConsentID:    b.ConsentID,
	}
}

type ListTransactions struct {
	BankAccess
	DateFrom    time.Time `json:"date_from,omitempty"`
	DateTo      time.Time `json:"date_to,omitempty"`
	WithBalance bool      `json:"with_balance,omitempty"`
}

func (l ListTransactions) Validate() error {
	if err := l.BankAccess.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&l,
		validation.Field(&l.IBAN, validation.Required),
	)
}

func (l ListTransactions) ToTransactionRequest() *model.TransactionRequest {
	req := l.BankAccess.ToTransactionRequest()
	req.DateFrom = l.DateFrom
	req.DateTo = l.DateTo
	req.WithBalance = l.WithBalance
	return req
}

type ExecutePayment struct {
	BankAccess
	DebtorIBAN    string          `json:"debtor_iban"`
	CreditorIBAN  string          `json:"creditor_iban"`
	CreditorName  string          `json:"creditor_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Purpose       string          `json:"purpose,omitempty"`
	EndToEndID    string          `json:"end_to_end_id,omitempty"`
	RequestedDate time.Time       `json:"requested_date,omitempty"`
}

func (p ExecutePayment) Validate() error {
	if err := p.BankAccess.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&p,
		validation.Field(&p.DebtorIBAN, validation.Required),
		validation.Field(&p.CreditorIBAN, validation.Required),
		validation.Field(&p.CreditorName, validation.Required),
		validation.Field(&p.Currency, validation.Required, validation.Length(3, 3)),
		validation.Field(&p.Amount, validation.By(positiveAmount)),
	)
}

func positiveAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok || !amount.IsPositive() {
		return validation.NewError("validation_amount", "amount must be greater than zero")
	}
	return nil
}

func (p ExecutePayment) ToTransactionRequest() *model.TransactionRequest {
	req := p.BankAccess.ToTransactionRequest()
	req.Payment = &model.Payment{
		DebtorIBAN:    p.DebtorIBAN,
		CreditorIBAN:  p.CreditorIBAN,
		CreditorName:  p.CreditorName,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Purpose:       p.Purpose,
		EndToEndID:    p.EndToEndID,
		RequestedDate: p.RequestedDate,
	}
	return req
}

// AuthorisationStep carries one SCA dialog step. The caller holds the
// authorisation between steps; there is no server-side dialog storage.
type AuthorisationStep struct {
	BankAccess
	Authorisation *model.ConsentAuthorisation `json:"authorisation"`
	PsuID         string                      `json:"psu_id,omitempty"`
	Password      string                      `json:"password,omitempty"`
	MethodID      string                      `json:"method_id,omitempty"`
	ScaResponse   string                      `json:"sca_response,omitempty"`
}

func (a AuthorisationStep) Validate() error {
	if err := a.BankAccess.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&a,
		validation.Field(&a.Authorisation, validation.Required),
	)
}

// ToAuthenticationRequest addresses the dialog step at the authorisation the
// caller carried in.
func (a AuthorisationStep) ToAuthenticationRequest() *model.UpdatePsuAuthenticationRequest {
	return &model.UpdatePsuAuthenticationRequest{
		ConsentID:       a.Authorisation.ConsentID,
		AuthorisationID: a.Authorisation.AuthorisationID,
		PsuID:           a.PsuID,
		Password:        a.Password,
	}
}

func (a AuthorisationStep) ToSelectMethodRequest() *model.SelectScaMethodRequest {
	return &model.SelectScaMethodRequest{
		ConsentID:       a.Authorisation.ConsentID,
		AuthorisationID: a.Authorisation.AuthorisationID,
		MethodID:        a.MethodID,
	}
}

func (a AuthorisationStep) ToAuthorisationRequest() *model.TransactionAuthorisationRequest {
	return &model.TransactionAuthorisationRequest{
		ConsentID:       a.Authorisation.ConsentID,
		AuthorisationID: a.Authorisation.AuthorisationID,
		ScaResponse:     a.ScaResponse,
	}
}

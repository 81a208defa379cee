package hbci

import (
	"context"
	"time"

	"github.com/jerry-enebeli/banklink/model"
	"github.com/shopspring/decimal"
)

// Dialer is the terminal-protocol client collaborator. It owns the HBCI wire
// dialog (segments, encryption, message sequencing) and returns structured
// results; the adapter never sees wire bytes.
type Dialer interface {
	DialAccounts(ctx context.Context, req *DialogRequest) (*AccountsResult, error)
	DialTransactions(ctx context.Context, req *DialogRequest) (*TransactionsResult, error)
	DialBalances(ctx context.Context, req *DialogRequest) (*BalancesResult, error)
	DialStandingOrders(ctx context.Context, req *DialogRequest) (*StandingOrdersResult, error)
	DialPayment(ctx context.Context, req *DialogRequest) (*PaymentResult, error)
	SubmitAuthentication(ctx context.Context, req *DialogRequest) (*AuthResult, error)
	SubmitTan(ctx context.Context, req *DialogRequest) (*AuthResult, error)
}

// DialogRequest carries the parameters of one synchronous HBCI dialog.
type DialogRequest struct {
	BankCode    string
	UserID      string
	IBAN        string
	DateFrom    time.Time
	DateTo      time.Time
	WithBalance bool
	Payment     *model.Payment
	Credential  string
	TanResponse string
	SessionData interface{}
}

type AccountData struct {
	Number   string
	IBAN     string
	Currency string
	Owner    string
	Name     string
}

type AccountsResult struct {
	Accounts []AccountData
}

// TransactionsResult is one parsed account statement. Bookings arrive in the
// bank's native order, usually oldest-first; the closing booked balance comes
// from the statement trailer.
type TransactionsResult struct {
	Bookings      []BookingData
	ClosingBooked *BalanceData
	OpeningBooked *BalanceData
	Expected      *BalanceData
}

type BookingData struct {
	BankID      string
	Amount      decimal.Decimal
	Currency    string
	BookingDate time.Time
	ValutaDate  time.Time
	OtherIBAN   string
	OtherOwner  string
	Purpose     string
}

type BalanceData struct {
	Amount   decimal.Decimal
	Currency string
	Date     time.Time
}

type BalancesResult struct {
	ReadyBalance   *BalanceData
	UnreadyBalance *BalanceData
}

type StandingOrdersResult struct {
	Orders []model.StandingOrder
}

type PaymentResult struct {
	OrderID     string
	TanRequired bool
	Challenge   *model.Challenge
	TanMethods  []model.ScaMethod
}

// AuthResult is the outcome of an authentication or TAN submission step. HBCI
// delivers the available TAN methods together with the authentication
// response, never as a separate selection round-trip.
type AuthResult struct {
	Success    bool
	TanMethods []model.ScaMethod
	Challenge  *model.Challenge
	Message    string
}

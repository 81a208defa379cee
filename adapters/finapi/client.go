package finapi

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Client is the aggregator SDK collaborator. The SDK owns authentication
// against the aggregator, bank connection handling and its own paging; this
// adapter only maps its results.
type Client interface {
	ListAccounts(ctx context.Context, req *Query) ([]AccountData, error)
	ListTransactions(ctx context.Context, req *Query) (*TransactionsData, error)
	CreatePaymentWebForm(ctx context.Context, req *WebFormRequest) (*WebFormData, error)
}

// Query identifies the user and account scope of one aggregator call.
type Query struct {
	UserID    string
	BankCode  string
	AccountID string
	IBAN      string
	DateFrom  time.Time
	DateTo    time.Time
}

type AccountData struct {
	ID       string
	IBAN     string
	Currency string
	Owner    string
	Name     string
	Balance  *decimal.Decimal
}

// TransactionsData is the SDK's merged transaction result. The aggregator
// enriches every transaction with a category from its own catalogue.
type TransactionsData struct {
	Transactions []TransactionData
	Balance      *decimal.Decimal
	Currency     string
}

type TransactionData struct {
	ID           string
	Amount       decimal.Decimal
	Currency     string
	BookingDate  time.Time
	ValueDate    time.Time
	Counterpart  string
	CounterIBAN  string
	Purpose      string
	CategoryName string
}

type WebFormRequest struct {
	UserID      string
	DebtorIBAN  string
	RedirectURL string
}

// WebFormData points the PSU at the aggregator's hosted payment form. The
// aggregator runs the SCA dialog inside that form, outside this process.
type WebFormData struct {
	FormID string
	URL    string
	Status string
}

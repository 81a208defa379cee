package finapi

import (
	"context"
	"time"

	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/pagination"
	"github.com/jerry-enebeli/banklink/sca"
)

// Adapter wraps an account aggregator SDK. The aggregator already holds the
// bank connection and runs SCA inside its own hosted web forms, so this
// adapter covers a narrower surface than the direct bank protocols: account
// discovery, categorized transactions and web-form payment initiation.
type Adapter struct {
	client Client
}

func NewAdapter(client Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) BankAPI() model.BankAPI {
	return model.FINAPI
}

func (a *Adapter) DiscoverAccounts(ctx context.Context, req *model.TransactionRequest) (*model.AccountInformationResponse, error) {
	list, err := a.client.ListAccounts(ctx, a.query(req))
	if err != nil {
		return nil, err
	}

	accounts := make([]model.Account, 0, len(list))
	for _, data := range list {
		account := model.Account{
			AccountID: model.GenerateUUIDWithSuffix("acc"),
			UserID:    req.UserID,
			IBAN:      data.IBAN,
			Currency:  data.Currency,
			Owner:     data.Owner,
			Name:      data.Name,
			CreatedAt: time.Now(),
		}
		account.AddExternalID(model.FINAPI, data.ID)
		accounts = append(accounts, account)
	}
	return &model.AccountInformationResponse{Accounts: accounts}, nil
}

// ListTransactions maps the SDK's merged result into the uniform newest-first
// shape. The aggregator's category tag survives on each booking; ordering and
// running balances are normalized here because the SDK makes no ordering
// promise.
func (a *Adapter) ListTransactions(ctx context.Context, req *model.TransactionRequest) (*model.TransactionsResponse, error) {
	query := a.query(req)
	if query.DateFrom.IsZero() {
		query.DateFrom = time.Now().AddDate(-1, 0, 0)
	}
	if query.DateTo.IsZero() {
		query.DateTo = time.Now()
	}

	data, err := a.client.ListTransactions(ctx, query)
	if err != nil {
		return nil, err
	}

	bookings := make([]model.Booking, 0, len(data.Transactions))
	for _, tx := range data.Transactions {
		bookings = append(bookings, toBooking(tx))
	}

	report := &model.BalancesReport{}
	if data.Balance != nil {
		report.SetReadyBalance(&model.Balance{
			Amount:   *data.Balance,
			Currency: data.Currency,
			Date:     time.Now(),
		})
	}

	pagination.NormalizeNewestFirst(bookings)
	pagination.ComputeRunningBalances(bookings, report.ReadyBalance, nil)

	return &model.TransactionsResponse{
		Bookings:       bookings,
		BalancesReport: report,
	}, nil
}

// ListBalances is not a standalone aggregator operation; the account balance
// arrives with discovery and with the transaction result.
func (a *Adapter) ListBalances(_ context.Context, _ *model.TransactionRequest) (*model.BalancesReport, error) {
	return nil, errUnsupported("balances")
}

func (a *Adapter) ListStandingOrders(_ context.Context, _ *model.TransactionRequest) ([]model.StandingOrder, error) {
	return nil, errUnsupported("standing orders")
}

// ExecutePayment hands the PSU over to the aggregator's hosted web form. No
// pending authorisation is returned: the aggregator finalises SCA inside the
// form and this process never sees the dialog.
func (a *Adapter) ExecutePayment(ctx context.Context, req *model.TransactionRequest) (*model.PaymentResponse, error) {
	if req.Payment == nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "payment data missing", nil)
	}

	form, err := a.client.CreatePaymentWebForm(ctx, &WebFormRequest{
		UserID:     req.UserID,
		DebtorIBAN: req.Payment.DebtorIBAN,
	})
	if err != nil {
		return nil, err
	}

	return &model.PaymentResponse{
		PaymentID:         form.FormID,
		TransactionStatus: form.Status,
		RedirectURL:       form.URL,
	}, nil
}

// Authorise never opens a dialog here; SCA runs inside the aggregator's web
// form.
func (a *Adapter) Authorise(_ *model.TransactionRequest, _ *model.ConsentAuthorisation) (*sca.Dialog, error) {
	return nil, errUnsupported("sca authorisation")
}

func (a *Adapter) query(req *model.TransactionRequest) *Query {
	query := &Query{
		UserID:   req.UserID,
		BankCode: req.BankCode,
		IBAN:     req.IBAN,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	}
	if req.Account != nil {
		query.AccountID = req.Account.ExternalID(model.FINAPI)
	}
	return query
}

func toBooking(tx TransactionData) model.Booking {
	booking := model.Booking{
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		BookingDate: tx.BookingDate,
		ValutaDate:  tx.ValueDate,
		OtherIBAN:   tx.CounterIBAN,
		OtherOwner:  tx.Counterpart,
		Purpose:     tx.Purpose,
		Category:    tx.CategoryName,
	}
	if tx.ID != "" {
		booking.ExternalID = tx.ID
		booking.BankOwnedID = true
	} else {
		booking.ExternalID = booking.DeriveExternalID()
	}
	return booking
}

func errUnsupported(operation string) error {
	return apierror.NewBankError(apierror.ErrUnsupportedOperation, 0, operation+" not supported by aggregator adapter")
}

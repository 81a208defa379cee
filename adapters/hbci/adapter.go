package hbci

import (
	"context"
	"time"

	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/pagination"
	"github.com/jerry-enebeli/banklink/sca"
	"github.com/pkg/errors"
)

// SessionData is the protocol-specific state an HBCI caller threads through
// the adapter boundary. Pin travels per dialog, it is never stored here
// between calls beyond the request scope. DialogState is the dialer's opaque
// handle (dialog id, message counters) kept alive across SCA round trips.
type SessionData struct {
	Pin         string
	DialogState interface{}
	PendingTan  *model.ConsentAuthorisation
}

// Adapter speaks the HBCI terminal protocol through an injected Dialer. Every
// operation is one synchronous dialog; there is no pagination on the wire, so
// the full statement is normalized locally instead of through the engine.
type Adapter struct {
	dialer Dialer
}

func NewAdapter(dialer Dialer) *Adapter {
	return &Adapter{dialer: dialer}
}

func (a *Adapter) BankAPI() model.BankAPI {
	return model.HBCI
}

func (a *Adapter) DiscoverAccounts(ctx context.Context, req *model.TransactionRequest) (*model.AccountInformationResponse, error) {
	dialog, err := a.dialogRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := a.dialer.DialAccounts(ctx, dialog)
	if err != nil {
		return nil, errors.Wrap(err, "accounts dialog failed")
	}

	accounts := make([]model.Account, 0, len(result.Accounts))
	for _, data := range result.Accounts {
		account := model.Account{
			AccountID: model.GenerateUUIDWithSuffix("acc"),
			UserID:    req.UserID,
			IBAN:      data.IBAN,
			Currency:  data.Currency,
			Owner:     data.Owner,
			Name:      data.Name,
			CreatedAt: time.Now(),
		}
		account.AddExternalID(model.HBCI, data.Number)
		accounts = append(accounts, account)
	}
	return &model.AccountInformationResponse{Accounts: accounts}, nil
}

// ListTransactions runs one statement dialog and shapes the result the same
// way the paginated protocols do: newest-first with a derived running balance
// per booking. HBCI statements have no bank-owned booking ids, so every
// external id is the composite one.
func (a *Adapter) ListTransactions(ctx context.Context, req *model.TransactionRequest) (*model.TransactionsResponse, error) {
	dialog, err := a.dialogRequest(req)
	if err != nil {
		return nil, err
	}
	if dialog.DateFrom.IsZero() {
		dialog.DateFrom = time.Now().AddDate(-1, 0, 0)
	}
	if dialog.DateTo.IsZero() {
		dialog.DateTo = time.Now()
	}

	result, err := a.dialer.DialTransactions(ctx, dialog)
	if err != nil {
		return nil, errors.Wrap(err, "statement dialog failed")
	}

	bookings := make([]model.Booking, 0, len(result.Bookings))
	for _, data := range result.Bookings {
		bookings = append(bookings, toBooking(data))
	}

	report := &model.BalancesReport{}
	report.SetReadyBalance(toBalance(result.ClosingBooked))
	report.SetUnreadyBalance(toBalance(result.Expected))

	pagination.NormalizeNewestFirst(bookings)
	pagination.ComputeRunningBalances(bookings, report.ReadyBalance, toBalance(result.OpeningBooked))

	return &model.TransactionsResponse{
		Bookings:       bookings,
		BalancesReport: report,
	}, nil
}

func (a *Adapter) ListBalances(ctx context.Context, req *model.TransactionRequest) (*model.BalancesReport, error) {
	dialog, err := a.dialogRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := a.dialer.DialBalances(ctx, dialog)
	if err != nil {
		return nil, errors.Wrap(err, "balance dialog failed")
	}

	report := &model.BalancesReport{}
	report.SetReadyBalance(toBalance(result.ReadyBalance))
	report.SetUnreadyBalance(toBalance(result.UnreadyBalance))
	return report, nil
}

func (a *Adapter) ListStandingOrders(ctx context.Context, req *model.TransactionRequest) ([]model.StandingOrder, error) {
	dialog, err := a.dialogRequest(req)
	if err != nil {
		return nil, err
	}

	result, err := a.dialer.DialStandingOrders(ctx, dialog)
	if err != nil {
		return nil, errors.Wrap(err, "standing order dialog failed")
	}
	return result.Orders, nil
}

// ExecutePayment submits the transfer order, or its cancellation when the
// payment is flagged DeleteFutureOrder. Almost every bank answers with a TAN
// demand; the challenge and the available TAN methods arrive inline with it,
// so the pending authorisation already carries both.
func (a *Adapter) ExecutePayment(ctx context.Context, req *model.TransactionRequest) (*model.PaymentResponse, error) {
	dialog, err := a.dialogRequest(req)
	if err != nil {
		return nil, err
	}
	if req.Payment == nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "payment data missing", nil)
	}
	dialog.Payment = req.Payment

	result, err := a.dialer.DialPayment(ctx, dialog)
	if err != nil {
		return nil, errors.Wrap(err, "payment dialog failed")
	}

	resp := &model.PaymentResponse{PaymentID: result.OrderID}
	if result.TanRequired {
		resp.PendingAuthorisation = &model.ConsentAuthorisation{
			ConsentID:       req.ConsentID,
			AuthorisationID: model.GenerateUUIDWithSuffix("auth"),
			ScaStatus:       model.ScaStatusStarted,
			ScaMethods:      result.TanMethods,
			Challenge:       result.Challenge,
			BankAPI:         model.HBCI,
		}
	}
	return resp, nil
}

// Authorise opens or resumes a TAN dialog. HBCI banks bundle the TAN method
// list into the authentication response, so the dialog skips the separate
// method selection state.
func (a *Adapter) Authorise(req *model.TransactionRequest, authorisation *model.ConsentAuthorisation) (*sca.Dialog, error) {
	handler := &scaHandler{adapter: a, req: req}
	if authorisation != nil {
		return sca.Resume(handler, true, authorisation), nil
	}
	return sca.NewDialog(handler, model.HBCI, true,
		req.ConsentID, model.GenerateUUIDWithSuffix("auth")), nil
}

// dialogRequest builds the per-dialog parameters. HBCI has no consent layer;
// the PSU pin authenticates every dialog, so a missing pin fails before any
// bank contact.
func (a *Adapter) dialogRequest(req *model.TransactionRequest) (*DialogRequest, error) {
	session, _ := req.SessionData.(SessionData)
	if session.Pin == "" {
		return nil, apierror.NewBankError(apierror.ErrInvalidPin, 0, "pin required for bank access")
	}
	return &DialogRequest{
		BankCode:    req.BankCode,
		UserID:      req.UserID,
		IBAN:        req.IBAN,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		WithBalance: req.WithBalance,
		Credential:  session.Pin,
		SessionData: session.DialogState,
	}, nil
}

func toBooking(data BookingData) model.Booking {
	booking := model.Booking{
		Amount:      data.Amount,
		Currency:    data.Currency,
		BookingDate: data.BookingDate,
		ValutaDate:  data.ValutaDate,
		OtherIBAN:   data.OtherIBAN,
		OtherOwner:  data.OtherOwner,
		Purpose:     data.Purpose,
	}
	if data.BankID != "" {
		booking.ExternalID = data.BankID
		booking.BankOwnedID = true
	} else {
		booking.ExternalID = booking.DeriveExternalID()
	}
	return booking
}

func toBalance(data *BalanceData) *model.Balance {
	if data == nil {
		return nil
	}
	return &model.Balance{
		Amount:   data.Amount,
		Currency: data.Currency,
		Date:     data.Date,
	}
}

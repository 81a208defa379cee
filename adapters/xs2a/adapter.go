package xs2a

import (
	"context"
	"net/http"
	"time"

	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/internal/request"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/pagination"
	"github.com/jerry-enebeli/banklink/sca"
)

// Adapter speaks PSD2/XS2A REST through an XS2A gateway. Transactions are
// listed through the pagination engine; consent and payment authorisation go
// through the SCA state machine.
type Adapter struct {
	baseURL    string
	engine     *pagination.Engine
	httpClient *request.Client
}

func NewAdapter(baseURL string) *Adapter {
	return &Adapter{
		baseURL: baseURL,
		engine:  pagination.NewEngine(),
	}
}

// NewAdapterWithHTTP injects the HTTP client, used by tests.
func NewAdapterWithHTTP(baseURL string, httpClient *request.Client) *Adapter {
	return &Adapter{
		baseURL:    baseURL,
		engine:     pagination.NewEngine(),
		httpClient: httpClient,
	}
}

func (a *Adapter) BankAPI() model.BankAPI {
	return model.XS2A
}

func (a *Adapter) DiscoverAccounts(ctx context.Context, req *model.TransactionRequest) (*model.AccountInformationResponse, error) {
	if err := a.consentGate(req); err != nil {
		return nil, err
	}

	list, err := a.client(req).getAccountList(ctx, req.ConsentID, req.WithBalance)
	if err != nil {
		return nil, err
	}

	accounts := make([]model.Account, 0, len(list.Accounts))
	for _, details := range list.Accounts {
		account := model.Account{
			AccountID: model.GenerateUUIDWithSuffix("acc"),
			UserID:    req.UserID,
			IBAN:      details.IBAN,
			Currency:  details.Currency,
			Owner:     details.OwnerName,
			Name:      details.Name,
			CreatedAt: time.Now(),
		}
		account.AddExternalID(model.XS2A, details.ResourceID)
		accounts = append(accounts, account)
	}
	return &model.AccountInformationResponse{Accounts: accounts}, nil
}

func (a *Adapter) ListTransactions(ctx context.Context, req *model.TransactionRequest) (*model.TransactionsResponse, error) {
	if err := a.consentGate(req); err != nil {
		return nil, err
	}

	resourceID, err := a.resolveResourceID(ctx, req)
	if err != nil {
		return nil, err
	}

	params := pagination.Params{
		ResourceID:  resourceID,
		ConsentID:   req.ConsentID,
		BankCode:    req.BankCode,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		WithBalance: req.WithBalance,
	}
	if params.DateFrom.IsZero() {
		params.DateFrom = time.Now().AddDate(-1, 0, 0)
	}
	if params.DateTo.IsZero() {
		params.DateTo = time.Now()
	}

	return a.engine.Load(ctx, &pageFetcher{client: a.client(req)}, params)
}

// ListBalances is not offered by the XS2A gateway as a standalone operation;
// balances arrive with the transaction report.
func (a *Adapter) ListBalances(_ context.Context, _ *model.TransactionRequest) (*model.BalancesReport, error) {
	return nil, errUnsupported("balances")
}

func (a *Adapter) ListStandingOrders(_ context.Context, _ *model.TransactionRequest) ([]model.StandingOrder, error) {
	return nil, errUnsupported("standing orders")
}

func (a *Adapter) ExecutePayment(ctx context.Context, req *model.TransactionRequest) (*model.PaymentResponse, error) {
	if err := a.consentGate(req); err != nil {
		return nil, err
	}
	if req.Payment == nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "payment data missing", nil)
	}

	body := sepaPaymentBody(req.Payment)
	to, err := a.client(req).initiatePayment(ctx, req.ConsentID, body)
	if err != nil {
		return nil, err
	}

	resp := &model.PaymentResponse{
		PaymentID:         to.PaymentID,
		TransactionStatus: to.TransactionStatus,
	}
	if _, ok := to.Links["startAuthorisation"]; ok {
		resp.PendingAuthorisation = &model.ConsentAuthorisation{
			ConsentID:       req.ConsentID,
			AuthorisationID: model.GenerateUUIDWithSuffix("auth"),
			ScaStatus:       model.ScaStatusStarted,
			BankAPI:         model.XS2A,
		}
	}
	return resp, nil
}

// Authorise opens or resumes the SCA dialog for an authorisation. XS2A banks
// deliver SCA methods as a separate selection step, so the dialog does not
// bundle them.
func (a *Adapter) Authorise(req *model.TransactionRequest, authorisation *model.ConsentAuthorisation) (*sca.Dialog, error) {
	handler := &scaHandler{client: a.client(req)}
	if authorisation != nil {
		return sca.Resume(handler, false, authorisation), nil
	}
	return sca.NewDialog(handler, model.XS2A, false,
		req.ConsentID, model.GenerateUUIDWithSuffix("auth")), nil
}

func (a *Adapter) client(req *model.TransactionRequest) *client {
	session, _ := req.SessionData.(SessionData)
	return newClient(a.baseURL, req.BankCode, session, a.httpClient)
}

// consentGate enforces the consent preconditions: no consent means the caller
// must create one first, a consent whose authorisation dialog is still open
// needs an SCA step before any data access.
func (a *Adapter) consentGate(req *model.TransactionRequest) error {
	if req.ConsentID == "" {
		return apierror.NewBankError(apierror.ErrConsentRequired, 0, "no usable consent for bank access")
	}
	session, ok := req.SessionData.(SessionData)
	if ok && session.PendingAuthorisation != nil && !model.ScaStatusTerminal(session.PendingAuthorisation.ScaStatus) {
		return apierror.APIError{
			Code:    apierror.ErrConsentAuthorisationRequired,
			Status:  http.StatusForbidden,
			Message: "consent authorisation not finalised",
			Details: session.PendingAuthorisation,
		}
	}
	return nil
}

// resolveResourceID maps the requested IBAN to the bank-side resource id,
// preferring the id a previous discovery attached to the account.
func (a *Adapter) resolveResourceID(ctx context.Context, req *model.TransactionRequest) (string, error) {
	if req.Account != nil {
		if id := req.Account.ExternalID(model.XS2A); id != "" {
			return id, nil
		}
	}

	list, err := a.client(req).getAccountList(ctx, req.ConsentID, false)
	if err != nil {
		return "", err
	}
	for _, details := range list.Accounts {
		if details.IBAN == req.IBAN {
			return details.ResourceID, nil
		}
	}
	return "", apierror.NewBankError(apierror.ErrInvalidAccountReference, 0,
		"iban "+req.IBAN+" not found at bank")
}

func errUnsupported(operation string) error {
	return apierror.NewBankError(apierror.ErrUnsupportedOperation, 0, operation+" not supported by XS2A adapter")
}

type sepaAmountTO struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type sepaAccountTO struct {
	IBAN string `json:"iban"`
}

type sepaPaymentTO struct {
	EndToEndIdentification string        `json:"endToEndIdentification,omitempty"`
	DebtorAccount          sepaAccountTO `json:"debtorAccount"`
	InstructedAmount       sepaAmountTO  `json:"instructedAmount"`
	CreditorAccount        sepaAccountTO `json:"creditorAccount"`
	CreditorName           string        `json:"creditorName"`
	RemittanceInformation  string        `json:"remittanceInformationUnstructured,omitempty"`
	RequestedExecutionDate string        `json:"requestedExecutionDate,omitempty"`
}

func sepaPaymentBody(payment *model.Payment) sepaPaymentTO {
	body := sepaPaymentTO{
		EndToEndIdentification: payment.EndToEndID,
		DebtorAccount:          sepaAccountTO{IBAN: payment.DebtorIBAN},
		InstructedAmount: sepaAmountTO{
			Currency: payment.Currency,
			Amount:   payment.Amount.String(),
		},
		CreditorAccount:       sepaAccountTO{IBAN: payment.CreditorIBAN},
		CreditorName:          payment.CreditorName,
		RemittanceInformation: payment.Purpose,
	}
	if !payment.RequestedDate.IsZero() {
		body.RequestedExecutionDate = payment.RequestedDate.Format(isoDate)
	}
	return body
}

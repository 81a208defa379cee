package finapi

import (
	"context"
	"testing"
	"time"

	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	accounts     []AccountData
	transactions *TransactionsData
	webForm      *WebFormData
	callCount    int
	lastQuery    *Query
	lastWebForm  *WebFormRequest
}

func (f *fakeClient) ListAccounts(_ context.Context, req *Query) ([]AccountData, error) {
	f.callCount++
	f.lastQuery = req
	return f.accounts, nil
}

func (f *fakeClient) ListTransactions(_ context.Context, req *Query) (*TransactionsData, error) {
	f.callCount++
	f.lastQuery = req
	return f.transactions, nil
}

func (f *fakeClient) CreatePaymentWebForm(_ context.Context, req *WebFormRequest) (*WebFormData, error) {
	f.callCount++
	f.lastWebForm = req
	return f.webForm, nil
}

func aggregatorRequest() *model.TransactionRequest {
	return &model.TransactionRequest{
		BankCode: "30060601",
		UserID:   "user-1",
		IBAN:     "DE89370400440532013000",
	}
}

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestDiscoverAccounts(t *testing.T) {
	client := &fakeClient{accounts: []AccountData{
		{ID: "778899", IBAN: "DE89370400440532013000", Currency: "EUR", Owner: "Max Mustermann", Name: "Girokonto"},
	}}
	adapter := NewAdapter(client)

	resp, err := adapter.DiscoverAccounts(context.Background(), aggregatorRequest())
	require.NoError(t, err)

	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "778899", resp.Accounts[0].ExternalID(model.FINAPI))
	assert.Equal(t, "user-1", resp.Accounts[0].UserID)
}

func TestListTransactionsKeepsCategories(t *testing.T) {
	balance := decimal.RequireFromString("1000.00")
	client := &fakeClient{transactions: &TransactionsData{
		Transactions: []TransactionData{
			{ID: "fin-1", Amount: decimal.RequireFromString("50.00"), Currency: "EUR",
				BookingDate: day("2024-03-01"), ValueDate: day("2024-03-01"), CategoryName: "Salary"},
			{ID: "fin-2", Amount: decimal.RequireFromString("-20.00"), Currency: "EUR",
				BookingDate: day("2024-03-02"), ValueDate: day("2024-03-02"), CategoryName: "Groceries"},
			{ID: "fin-3", Amount: decimal.RequireFromString("5.00"), Currency: "EUR",
				BookingDate: day("2024-03-03"), ValueDate: day("2024-03-03")},
		},
		Balance:  &balance,
		Currency: "EUR",
	}}
	adapter := NewAdapter(client)

	resp, err := adapter.ListTransactions(context.Background(), aggregatorRequest())
	require.NoError(t, err)

	require.Len(t, resp.Bookings, 3)
	assert.Equal(t, "fin-3", resp.Bookings[0].ExternalID)
	assert.Equal(t, "Groceries", resp.Bookings[1].Category)
	assert.Equal(t, "Salary", resp.Bookings[2].Category)

	assert.Equal(t, "1000", resp.Bookings[0].Balance.String())
	assert.Equal(t, "995", resp.Bookings[1].Balance.String())
	assert.Equal(t, "1015", resp.Bookings[2].Balance.String())
}

func TestListTransactionsUsesAccountExternalID(t *testing.T) {
	client := &fakeClient{transactions: &TransactionsData{}}
	adapter := NewAdapter(client)

	account := &model.Account{IBAN: "DE89370400440532013000"}
	account.AddExternalID(model.FINAPI, "778899")
	req := aggregatorRequest()
	req.Account = account

	_, err := adapter.ListTransactions(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "778899", client.lastQuery.AccountID)
	assert.False(t, client.lastQuery.DateFrom.IsZero())
}

func TestExecutePaymentRedirectsToWebForm(t *testing.T) {
	client := &fakeClient{webForm: &WebFormData{
		FormID: "form-1",
		URL:    "https://webform.example/form-1",
		Status: "NOT_YET_OPENED",
	}}
	adapter := NewAdapter(client)

	req := aggregatorRequest()
	req.Payment = &model.Payment{
		DebtorIBAN:   "DE89370400440532013000",
		CreditorIBAN: "DE02120300000000202051",
		CreditorName: "Grocer",
		Amount:       decimal.RequireFromString("12.34"),
		Currency:     "EUR",
	}

	resp, err := adapter.ExecutePayment(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "form-1", resp.PaymentID)
	assert.Equal(t, "https://webform.example/form-1", resp.RedirectURL)
	assert.Nil(t, resp.PendingAuthorisation)
	assert.Equal(t, "DE89370400440532013000", client.lastWebForm.DebtorIBAN)
}

func TestUnsupportedOperations(t *testing.T) {
	client := &fakeClient{}
	adapter := NewAdapter(client)

	_, err := adapter.ListBalances(context.Background(), aggregatorRequest())
	assert.Equal(t, apierror.ErrUnsupportedOperation, apierror.CodeOf(err))

	_, err = adapter.ListStandingOrders(context.Background(), aggregatorRequest())
	assert.Equal(t, apierror.ErrUnsupportedOperation, apierror.CodeOf(err))

	_, err = adapter.Authorise(aggregatorRequest(), nil)
	assert.Equal(t, apierror.ErrUnsupportedOperation, apierror.CodeOf(err))

	// capability gaps are answered locally, the aggregator is never called
	assert.Equal(t, 0, client.callCount)
}

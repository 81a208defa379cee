package xs2a

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/internal/request"
	"github.com/jerry-enebeli/banklink/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gatewayURL = "https://xs2a-gateway.example"

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewAdapterWithHTTP(gatewayURL, request.NewClientWithHTTP(httpClient))
}

func consentRequest() *model.TransactionRequest {
	return &model.TransactionRequest{
		BankCode:  "30060601",
		UserID:    "user-1",
		ConsentID: "consent-1",
		IBAN:      "DE89370400440532013000",
	}
}

func TestDiscoverAccounts(t *testing.T) {
	adapter := newTestAdapter(t)

	httpmock.RegisterResponder(http.MethodGet, gatewayURL+"/v1/accounts",
		func(r *http.Request) (*http.Response, error) {
			assert.Equal(t, "consent-1", r.Header.Get("Consent-ID"))
			assert.Equal(t, "30060601", r.Header.Get("X-GTW-Bank-Code"))
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
			return httpmock.NewStringResponse(http.StatusOK, `{
				"accounts": [
					{"resourceId": "res-1", "iban": "DE89370400440532013000", "currency": "EUR", "ownerName": "Max Mustermann"},
					{"resourceId": "res-2", "iban": "DE02120300000000202051", "currency": "EUR"}
				]
			}`), nil
		})

	resp, err := adapter.DiscoverAccounts(context.Background(), consentRequest())
	require.NoError(t, err)

	require.Len(t, resp.Accounts, 2)
	assert.Equal(t, "DE89370400440532013000", resp.Accounts[0].IBAN)
	assert.Equal(t, "res-1", resp.Accounts[0].ExternalID(model.XS2A))
	assert.Equal(t, "Max Mustermann", resp.Accounts[0].Owner)
	assert.Equal(t, "user-1", resp.Accounts[0].UserID)
}

func TestDiscoverAccountsWithoutConsent(t *testing.T) {
	adapter := newTestAdapter(t)

	req := consentRequest()
	req.ConsentID = ""

	_, err := adapter.DiscoverAccounts(context.Background(), req)
	assert.Equal(t, apierror.ErrConsentRequired, apierror.CodeOf(err))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestPendingAuthorisationGatesAccess(t *testing.T) {
	adapter := newTestAdapter(t)

	req := consentRequest()
	req.SessionData = SessionData{
		PendingAuthorisation: &model.ConsentAuthorisation{
			ConsentID:       "consent-1",
			AuthorisationID: "auth-1",
			ScaStatus:       model.ScaStatusStarted,
		},
	}

	_, err := adapter.ListTransactions(context.Background(), req)
	assert.Equal(t, apierror.ErrConsentAuthorisationRequired, apierror.CodeOf(err))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestListTransactionsFollowsScrollRef(t *testing.T) {
	adapter := newTestAdapter(t)

	account := &model.Account{IBAN: "DE89370400440532013000"}
	account.AddExternalID(model.XS2A, "res-1")
	req := consentRequest()
	req.Account = account

	httpmock.RegisterResponder(http.MethodGet, gatewayURL+"/v1/accounts/res-1/transactions",
		func(r *http.Request) (*http.Response, error) {
			if scrollRef := r.URL.Query().Get("scrollRef"); scrollRef != "" {
				assert.Equal(t, "page2", scrollRef)
				// Fiducia: only one of dateFrom and scrollRef may exist
				assert.Empty(t, r.URL.Query().Get("dateFrom"))
				return httpmock.NewStringResponse(http.StatusOK, `{
					"transactions": {
						"booked": [
							{"transactionId": "tx-1", "bookingDate": "2024-03-01", "valueDate": "2024-03-01",
							 "transactionAmount": {"amount": "50.00", "currency": "EUR"}, "debtorName": "ACME"}
						],
						"_links": {}
					}
				}`), nil
			}
			assert.NotEmpty(t, r.URL.Query().Get("dateFrom"))
			return httpmock.NewStringResponse(http.StatusOK, `{
				"transactions": {
					"booked": [
						{"transactionId": "tx-3", "bookingDate": "2024-03-03", "valueDate": "2024-03-03",
						 "transactionAmount": {"amount": "5.00", "currency": "EUR"}},
						{"transactionId": "tx-2", "bookingDate": "2024-03-02", "valueDate": "2024-03-02",
						 "transactionAmount": {"amount": "-20.00", "currency": "EUR"}, "creditorName": "Grocer"}
					],
					"_links": {"next": {"href": "https://xs2a-gateway.example/v1/accounts/res-1/transactions?scrollRef=page2"}}
				},
				"balances": [
					{"balanceType": "closingBooked", "balanceAmount": {"amount": "1000.00", "currency": "EUR"}}
				]
			}`), nil
		})

	resp, err := adapter.ListTransactions(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, resp.Bookings, 3)
	assert.Equal(t, "tx-3", resp.Bookings[0].ExternalID)
	assert.Equal(t, "tx-2", resp.Bookings[1].ExternalID)
	assert.Equal(t, "tx-1", resp.Bookings[2].ExternalID)

	require.NotNil(t, resp.BalancesReport.ReadyBalance)
	assert.Equal(t, "1000", resp.Bookings[0].Balance.String())
	assert.Equal(t, "995", resp.Bookings[1].Balance.String())
	assert.Equal(t, "1015", resp.Bookings[2].Balance.String())
}

func TestListTransactionsResolvesResourceIDByIban(t *testing.T) {
	adapter := newTestAdapter(t)

	httpmock.RegisterResponder(http.MethodGet, gatewayURL+"/v1/accounts",
		httpmock.NewStringResponder(http.StatusOK, `{
			"accounts": [{"resourceId": "res-9", "iban": "DE89370400440532013000", "currency": "EUR"}]
		}`))
	httpmock.RegisterResponder(http.MethodGet, gatewayURL+"/v1/accounts/res-9/transactions",
		httpmock.NewStringResponder(http.StatusOK, `{"transactions": {"booked": [], "_links": {}}}`))

	resp, err := adapter.ListTransactions(context.Background(), consentRequest())
	require.NoError(t, err)
	assert.Empty(t, resp.Bookings)
}

func TestListTransactionsUnknownIban(t *testing.T) {
	adapter := newTestAdapter(t)

	httpmock.RegisterResponder(http.MethodGet, gatewayURL+"/v1/accounts",
		httpmock.NewStringResponder(http.StatusOK, `{"accounts": []}`))

	_, err := adapter.ListTransactions(context.Background(), consentRequest())
	assert.Equal(t, apierror.ErrInvalidAccountReference, apierror.CodeOf(err))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected apierror.ErrorCode
	}{
		{name: "401 invalid pin", status: http.StatusUnauthorized, expected: apierror.ErrInvalidPin},
		{name: "404 resource not found", status: http.StatusNotFound, expected: apierror.ErrResourceNotFound},
		{name: "429 invalid consent", status: http.StatusTooManyRequests, expected: apierror.ErrInvalidConsent},
		{name: "400 protocol error", status: http.StatusBadRequest, expected: apierror.ErrProtocolError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t)
			httpmock.RegisterResponder(http.MethodGet, gatewayURL+"/v1/accounts",
				httpmock.NewStringResponder(tt.status, `{"tppMessages":[{"category":"ERROR","text":"bank says no"}]}`))

			_, err := adapter.DiscoverAccounts(context.Background(), consentRequest())
			require.Error(t, err)
			assert.Equal(t, tt.expected, apierror.CodeOf(err))

			var apiErr apierror.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, []string{"bank says no"}, apiErr.Messages)
		})
	}
}

func TestUnsupportedOperations(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.ListBalances(context.Background(), consentRequest())
	assert.Equal(t, apierror.ErrUnsupportedOperation, apierror.CodeOf(err))

	_, err = adapter.ListStandingOrders(context.Background(), consentRequest())
	assert.Equal(t, apierror.ErrUnsupportedOperation, apierror.CodeOf(err))

	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestScaDialogAgainstBank(t *testing.T) {
	adapter := newTestAdapter(t)

	httpmock.RegisterResponder(http.MethodPut, gatewayURL+"/v1/consents/consent-1/authorisations/auth-1",
		httpmock.NewStringResponder(http.StatusOK, `{
			"scaStatus": "psuAuthenticated",
			"scaMethods": [
				{"authenticationMethodId": "901", "name": "photoTAN", "authenticationType": "PHOTO_OTP"},
				{"authenticationMethodId": "902", "name": "smsTAN", "authenticationType": "SMS_OTP"}
			],
			"psuMessage": "select your sca method"
		}`))

	dialog, err := adapter.Authorise(consentRequest(), &model.ConsentAuthorisation{
		ConsentID:       "consent-1",
		AuthorisationID: "auth-1",
		ScaStatus:       model.ScaStatusStarted,
		BankAPI:         model.XS2A,
	})
	require.NoError(t, err)

	resp, err := dialog.UpdatePsuAuthentication(context.Background(), &model.UpdatePsuAuthenticationRequest{
		ConsentID:       "consent-1",
		AuthorisationID: "auth-1",
		PsuID:           "psu-1",
		Password:        "12345",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ScaStatusPsuAuthenticated, resp.ScaStatus)
	assert.Len(t, resp.ScaMethods, 2)
	assert.Equal(t, "select your sca method", resp.PsuMessage)
}

func TestExecutePaymentReturnsPendingSca(t *testing.T) {
	adapter := newTestAdapter(t)

	httpmock.RegisterResponder(http.MethodPost, gatewayURL+"/v1/payments/sepa-credit-transfers",
		httpmock.NewStringResponder(http.StatusCreated, `{
			"transactionStatus": "RCVD",
			"paymentId": "pay-1",
			"_links": {"startAuthorisation": {"href": "/v1/payments/sepa-credit-transfers/pay-1/authorisations"}}
		}`))

	req := consentRequest()
	req.Payment = &model.Payment{
		DebtorIBAN:   "DE89370400440532013000",
		CreditorIBAN: "DE02120300000000202051",
		CreditorName: "Grocer",
		Amount:       decimal.RequireFromString("12.34"),
		Currency:     "EUR",
	}

	resp, err := adapter.ExecutePayment(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "pay-1", resp.PaymentID)
	assert.Equal(t, "RCVD", resp.TransactionStatus)
	require.NotNil(t, resp.PendingAuthorisation)
	assert.Equal(t, model.ScaStatusStarted, resp.PendingAuthorisation.ScaStatus)
}

package xs2a

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jerry-enebeli/banklink/internal/apierror"
	"github.com/jerry-enebeli/banklink/internal/request"
	"github.com/jerry-enebeli/banklink/model"
)

// SessionData is the protocol-specific session state passed opaquely through
// the adapter boundary. The OAuth token is managed by the calling boundary;
// this adapter only attaches it. PendingAuthorisation carries an SCA dialog
// the caller has not finalised yet.
type SessionData struct {
	AccessToken          string
	PendingAuthorisation *model.ConsentAuthorisation
}

// Wire types: the subset of the Berlin Group XS2A JSON this adapter reads.
type (
	accountList struct {
		Accounts []accountDetails `json:"accounts"`
	}

	accountDetails struct {
		ResourceID string `json:"resourceId"`
		IBAN       string `json:"iban"`
		Currency   string `json:"currency"`
		Name       string `json:"name"`
		OwnerName  string `json:"ownerName"`
		Product    string `json:"product"`
	}

	hrefType struct {
		Href string `json:"href"`
	}

	amountTO struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}

	accountReference struct {
		IBAN string `json:"iban"`
	}

	transactionDetails struct {
		TransactionID                     string            `json:"transactionId"`
		EntryReference                    string            `json:"entryReference"`
		BookingDate                       string            `json:"bookingDate"`
		ValueDate                         string            `json:"valueDate"`
		TransactionAmount                 amountTO          `json:"transactionAmount"`
		CreditorName                      string            `json:"creditorName"`
		CreditorAccount                   *accountReference `json:"creditorAccount"`
		DebtorName                        string            `json:"debtorName"`
		DebtorAccount                     *accountReference `json:"debtorAccount"`
		RemittanceInformationUnstructured string            `json:"remittanceInformationUnstructured"`
	}

	accountReport struct {
		Booked []transactionDetails `json:"booked"`
		Links  map[string]hrefType  `json:"_links"`
	}

	balanceTO struct {
		BalanceAmount amountTO `json:"balanceAmount"`
		BalanceType   string   `json:"balanceType"`
		ReferenceDate string   `json:"referenceDate"`
	}

	transactionsResponseTO struct {
		Transactions *accountReport `json:"transactions"`
		Balances     []balanceTO    `json:"balances"`
	}

	balancesResponseTO struct {
		Balances []balanceTO `json:"balances"`
	}

	tppMessageTO struct {
		Category string `json:"category"`
		Code     string `json:"code"`
		Text     string `json:"text"`
	}

	errorResponseTO struct {
		TppMessages []tppMessageTO `json:"tppMessages"`
	}

	authorisationResponseTO struct {
		ScaStatus     string          `json:"scaStatus"`
		ScaMethods    []scaMethodTO   `json:"scaMethods"`
		ChosenMethod  *scaMethodTO    `json:"chosenScaMethod"`
		ChallengeData *challengeTO    `json:"challengeData"`
		PsuMessage    string          `json:"psuMessage"`
		Links         json.RawMessage `json:"_links"`
	}

	scaMethodTO struct {
		AuthenticationMethodID string `json:"authenticationMethodId"`
		Name                   string `json:"name"`
		AuthenticationType     string `json:"authenticationType"`
	}

	challengeTO struct {
		Image                 string `json:"image"`
		Data                  string `json:"data"`
		AdditionalInformation string `json:"additionalInformation"`
		OtpFormat             string `json:"otpFormat"`
	}

	paymentInitiationResponseTO struct {
		TransactionStatus string              `json:"transactionStatus"`
		PaymentID         string              `json:"paymentId"`
		Links             map[string]hrefType `json:"_links"`
	}
)

// client talks to the XS2A adapter gateway. One instance per request scope.
type client struct {
	baseURL  string
	bankCode string
	session  SessionData
	http     *request.Client
}

func newClient(baseURL, bankCode string, session SessionData, httpClient *request.Client) *client {
	if httpClient == nil {
		httpClient = request.NewClient(30 * time.Second)
	}
	return &client{baseURL: baseURL, bankCode: bankCode, session: session, http: httpClient}
}

func (c *client) newRequest(method, path string, query url.Values, body interface{}, consentID string) (*http.Request, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var req *http.Request
	var err error
	if body != nil {
		payload, marshalErr := request.ToJsonReq(body)
		if marshalErr != nil {
			return nil, marshalErr
		}
		req, err = http.NewRequest(method, endpoint, payload)
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("X-GTW-Bank-Code", c.bankCode)
	if consentID != "" {
		req.Header.Set("Consent-ID", consentID)
	}
	if c.session.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessToken)
	}
	return req, nil
}

// do executes the call and translates any non-2xx response into the closed
// error taxonomy. No bank-specific error shape escapes this method.
func (c *client) do(ctx context.Context, req *http.Request, out interface{}) error {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if resp != nil {
			return c.mapError(resp)
		}
		return apierror.NewBankError(apierror.ErrProtocolError, 0, err.Error())
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return c.mapError(resp)
	}
	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return apierror.NewBankError(apierror.ErrProtocolError, 0, "unparseable bank response: "+err.Error())
		}
	}
	return nil
}

// mapError is the taxonomy boundary: 401 means the authentication factor was
// rejected, 404 the referenced resource is unknown, 429 the consent was
// rate-limited by the bank. Everything else is a protocol error.
func (c *client) mapError(resp *request.Response) error {
	messages := bankMessages(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apierror.NewBankError(apierror.ErrInvalidPin, resp.StatusCode, "authentication factor rejected", messages...)
	case http.StatusNotFound:
		return apierror.NewBankError(apierror.ErrResourceNotFound, resp.StatusCode, "resource not found at bank", messages...)
	case http.StatusTooManyRequests:
		return apierror.NewBankError(apierror.ErrInvalidConsent, resp.StatusCode, "consent access exceeded", messages...)
	default:
		return apierror.NewBankError(apierror.ErrProtocolError, resp.StatusCode,
			fmt.Sprintf("bank returned status %d", resp.StatusCode), messages...)
	}
}

func bankMessages(body []byte) []string {
	var parsed errorResponseTO
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	var messages []string
	for _, m := range parsed.TppMessages {
		if m.Text != "" {
			messages = append(messages, m.Text)
		}
	}
	return messages
}

func (c *client) getAccountList(ctx context.Context, consentID string, withBalance bool) (*accountList, error) {
	query := url.Values{}
	if withBalance {
		query.Set("withBalance", "true")
	}
	req, err := c.newRequest(http.MethodGet, "/v1/accounts", query, nil, consentID)
	if err != nil {
		return nil, err
	}
	var list accountList
	if err := c.do(ctx, req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *client) getTransactionList(ctx context.Context, resourceID, consentID string, query url.Values) (*transactionsResponseTO, error) {
	query.Set("bookingStatus", "booked")
	req, err := c.newRequest(http.MethodGet, "/v1/accounts/"+resourceID+"/transactions", query, nil, consentID)
	if err != nil {
		return nil, err
	}
	var to transactionsResponseTO
	if err := c.do(ctx, req, &to); err != nil {
		return nil, err
	}
	return &to, nil
}

func (c *client) getBalances(ctx context.Context, resourceID, consentID string) (*balancesResponseTO, error) {
	req, err := c.newRequest(http.MethodGet, "/v1/accounts/"+resourceID+"/balances", nil, nil, consentID)
	if err != nil {
		return nil, err
	}
	var to balancesResponseTO
	if err := c.do(ctx, req, &to); err != nil {
		return nil, err
	}
	return &to, nil
}

func (c *client) updateAuthorisation(ctx context.Context, consentID, authorisationID string, body interface{}) (*authorisationResponseTO, error) {
	path := "/v1/consents/" + consentID + "/authorisations/" + authorisationID
	req, err := c.newRequest(http.MethodPut, path, nil, body, consentID)
	if err != nil {
		return nil, err
	}
	var to authorisationResponseTO
	if err := c.do(ctx, req, &to); err != nil {
		return nil, err
	}
	return &to, nil
}

func (c *client) initiatePayment(ctx context.Context, consentID string, body interface{}) (*paymentInitiationResponseTO, error) {
	req, err := c.newRequest(http.MethodPost, "/v1/payments/sepa-credit-transfers", nil, body, consentID)
	if err != nil {
		return nil, err
	}
	var to paymentInitiationResponseTO
	if err := c.do(ctx, req, &to); err != nil {
		return nil, err
	}
	return &to, nil
}

package xs2a

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jerry-enebeli/banklink/model"
	"github.com/jerry-enebeli/banklink/pagination"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const isoDate = "2006-01-02"

// pageFetcher adapts the XS2A transaction endpoints to the pagination
// engine's page contract.
type pageFetcher struct {
	client *client
}

func (f *pageFetcher) FetchFirst(ctx context.Context, params pagination.Params) (*pagination.Page, error) {
	query := url.Values{}
	if !params.DateFrom.IsZero() {
		query.Set("dateFrom", params.DateFrom.Format(isoDate))
	}
	if !params.DateTo.IsZero() {
		query.Set("dateTo", params.DateTo.Format(isoDate))
	}
	if params.WithBalance {
		query.Set("withBalance", "true")
	}

	to, err := f.client.getTransactionList(ctx, params.ResourceID, params.ConsentID, query)
	if err != nil {
		return nil, err
	}
	return toPage(to), nil
}

func (f *pageFetcher) FetchNext(ctx context.Context, cursor *pagination.Cursor) (*pagination.Page, error) {
	query := url.Values{}
	query.Set(cursor.Scheme.Param, cursor.Token)
	// scrollRef schemes must not resend the date range, page schemes must
	// repeat the original call parameters; ResolveCursor already decided.
	if !cursor.Params.DateFrom.IsZero() {
		query.Set("dateFrom", cursor.Params.DateFrom.Format(isoDate))
	}
	if !cursor.Params.DateTo.IsZero() {
		query.Set("dateTo", cursor.Params.DateTo.Format(isoDate))
	}
	if cursor.Params.WithBalance {
		query.Set("withBalance", "true")
	}

	to, err := f.client.getTransactionList(ctx, cursor.Params.ResourceID, cursor.Params.ConsentID, query)
	if err != nil {
		return nil, err
	}
	return toPage(to), nil
}

func (f *pageFetcher) FetchBalances(ctx context.Context, params pagination.Params, balancesLink string) (pagination.Balances, error) {
	resourceID := accountFromLink(balancesLink)
	if resourceID == "" {
		logrus.Errorf("balances link without accounts segment: %s", balancesLink)
		return pagination.Balances{}, nil
	}

	to, err := f.client.getBalances(ctx, resourceID, params.ConsentID)
	if err != nil {
		return pagination.Balances{}, err
	}
	return toBalances(to.Balances), nil
}

// accountFromLink extracts the account resource id from a bank-advertised
// balances link, the segment following "accounts" in the path.
func accountFromLink(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := len(segments) - 2; i >= 0; i-- {
		if segments[i] == "accounts" {
			return segments[i+1]
		}
	}
	return ""
}

func toPage(to *transactionsResponseTO) *pagination.Page {
	page := &pagination.Page{Balances: toBalances(to.Balances)}
	if to.Transactions == nil {
		return page
	}

	for _, detail := range to.Transactions.Booked {
		page.Bookings = append(page.Bookings, toBooking(detail))
	}
	if next, ok := to.Transactions.Links["next"]; ok {
		page.NextLink = next.Href
	}
	if balances, ok := to.Transactions.Links["balances"]; ok {
		page.BalancesLink = balances.Href
	}
	return page
}

func toBooking(detail transactionDetails) model.Booking {
	amount, err := decimal.NewFromString(detail.TransactionAmount.Amount)
	if err != nil {
		logrus.Warnf("unparseable transaction amount %q, defaulting to zero", detail.TransactionAmount.Amount)
		amount = decimal.Zero
	}

	booking := model.Booking{
		Amount:      amount,
		Currency:    detail.TransactionAmount.Currency,
		BookingDate: parseDate(detail.BookingDate),
		ValutaDate:  parseDate(detail.ValueDate),
		Purpose:     detail.RemittanceInformationUnstructured,
	}

	if detail.TransactionID != "" {
		booking.ExternalID = detail.TransactionID
		booking.BankOwnedID = true
	} else {
		booking.ExternalID = booking.DeriveExternalID()
	}

	// the counterparty is the creditor for outgoing, the debtor for incoming
	if amount.IsNegative() {
		booking.OtherOwner = detail.CreditorName
		if detail.CreditorAccount != nil {
			booking.OtherIBAN = detail.CreditorAccount.IBAN
		}
	} else {
		booking.OtherOwner = detail.DebtorName
		if detail.DebtorAccount != nil {
			booking.OtherIBAN = detail.DebtorAccount.IBAN
		}
	}
	return booking
}

func toBalances(balances []balanceTO) pagination.Balances {
	var result pagination.Balances
	for _, to := range balances {
		balance := toBalance(to)
		switch to.BalanceType {
		case "expected":
			result.Unready = balance
		case "closingBooked":
			result.Ready = balance
		case "openingBooked":
			result.Opening = balance
		default:
			// ignore
		}
	}
	return result
}

func toBalance(to balanceTO) *model.Balance {
	amount, err := decimal.NewFromString(to.BalanceAmount.Amount)
	if err != nil {
		logrus.Warnf("unparseable balance amount %q", to.BalanceAmount.Amount)
		return nil
	}
	return &model.Balance{
		Amount:   amount,
		Currency: to.BalanceAmount.Currency,
		Date:     parseDate(to.ReferenceDate),
	}
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(isoDate, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

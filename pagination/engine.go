package pagination

import (
	"context"

	"github.com/jerry-enebeli/banklink/model"
	"github.com/sirupsen/logrus"
)

// MaxPages bounds the worst case when a bank never terminates its next link.
// Hitting the cap is not an error; accumulated results are returned.
const MaxPages = 50

// Balances is the balance section of one transaction page.
type Balances struct {
	Ready   *model.Balance
	Unready *model.Balance
	Opening *model.Balance
}

func (b Balances) Empty() bool {
	return b.Ready == nil && b.Unready == nil && b.Opening == nil
}

// Page is one parsed chunk of a transaction report, already mapped from the
// bank's wire format by the owning adapter.
type Page struct {
	Bookings     []model.Booking
	Balances     Balances
	NextLink     string
	BalancesLink string
}

// PageFetcher produces pages on demand. Implementations live in the protocol
// adapters; the engine only folds their output.
type PageFetcher interface {
	FetchFirst(ctx context.Context, params Params) (*Page, error)
	FetchNext(ctx context.Context, cursor *Cursor) (*Page, error)
	FetchBalances(ctx context.Context, params Params, balancesLink string) (Balances, error)
}

// Engine fetches all transaction pages for one account/date-range request,
// normalizes ordering to newest-first and derives a per-booking running
// balance from the closing booked balance.
type Engine struct {
	schemes  []ContinuationScheme
	maxPages int
}

func NewEngine() *Engine {
	return &Engine{schemes: KnownSchemes, maxPages: MaxPages}
}

// Load runs one aggregated fetch. Pagination is sequential: each page's
// continuation token depends on the previous response. A failed page stops
// the fold and everything gathered so far is returned; only a failed first
// page fails the whole fetch.
func (e *Engine) Load(ctx context.Context, fetcher PageFetcher, params Params) (*model.TransactionsResponse, error) {
	first, err := fetcher.FetchFirst(ctx, params)
	if err != nil {
		return nil, err
	}

	acc := newAccumulator()
	acc.add(first)

	if first.Balances.Empty() && first.BalancesLink != "" {
		balances, err := fetcher.FetchBalances(ctx, params, first.BalancesLink)
		if err != nil {
			logrus.Warnf("balances fetch via %q failed, continuing without balances: %v", first.BalancesLink, err)
		} else {
			acc.addBalances(balances)
		}
	}

	e.followNextLinks(ctx, fetcher, params, first.NextLink, acc)

	return acc.finish(), nil
}

func (e *Engine) followNextLinks(ctx context.Context, fetcher PageFetcher, params Params, nextLink string, acc *accumulator) {
	for page := 0; page < e.maxPages && nextLink != ""; page++ {
		if err := ctx.Err(); err != nil {
			logrus.Warnf("pagination cancelled after %d page(s): %v", page, err)
			return
		}

		cursor, ok := ResolveCursor(nextLink, params, e.schemes)
		if !ok {
			logrus.Warnf("no known continuation scheme matches next link %q, stopping pagination", nextLink)
			return
		}

		next, err := fetcher.FetchNext(ctx, cursor)
		if err != nil {
			logrus.Errorf("error fetching page %d: %v", page+1, err)
			logrus.Error("ignoring the error and taking what we got so far")
			return
		}

		acc.add(next)
		nextLink = next.NextLink
	}
}

// accumulator folds pages into one TransactionsResponse.
type accumulator struct {
	bookings []model.Booking
	report   *model.BalancesReport
	opening  *model.Balance
}

func newAccumulator() *accumulator {
	return &accumulator{report: &model.BalancesReport{}}
}

func (a *accumulator) add(page *Page) {
	a.bookings = append(a.bookings, page.Bookings...)
	a.addBalances(page.Balances)
}

// addBalances retains the most recent closing booked balance seen; the report
// never holds more than one value per balance kind.
func (a *accumulator) addBalances(balances Balances) {
	a.report.SetReadyBalance(balances.Ready)
	a.report.SetUnreadyBalance(balances.Unready)
	if balances.Opening != nil {
		a.opening = balances.Opening
	}
}

func (a *accumulator) finish() *model.TransactionsResponse {
	NormalizeNewestFirst(a.bookings)
	ComputeRunningBalances(a.bookings, a.report.ReadyBalance, a.opening)
	return &model.TransactionsResponse{
		Bookings:       a.bookings,
		BalancesReport: a.report,
	}
}

// NormalizeNewestFirst reverses the merged sequence when the bank delivered
// oldest-first, so the result is always newest-first regardless of native
// order. Only the order of bookings switches, siblings stay untouched.
// Terminal-protocol adapters use it on their single-dialog reports too.
func NormalizeNewestFirst(bookings []model.Booking) {
	if len(bookings) < 2 {
		return
	}
	first := bookings[0].BookingDate
	last := bookings[len(bookings)-1].BookingDate
	if first.Before(last) {
		for i, j := 0, len(bookings)-1; i < j; i, j = i+1, j-1 {
			bookings[i], bookings[j] = bookings[j], bookings[i]
		}
	}
}

// ComputeRunningBalances assigns the closing booked balance to the newest
// booking, then walks towards the oldest subtracting each booking's signed
// amount. Bookings without a bank-supplied id get their composite external id
// recomputed so identifiers stay stable across repeated fetches.
func ComputeRunningBalances(bookings []model.Booking, closing, opening *model.Balance) {
	if closing == nil {
		return
	}

	balance := closing.Amount
	for i := range bookings {
		value := balance
		bookings[i].Balance = &value
		if !bookings[i].BankOwnedID {
			bookings[i].ExternalID = bookings[i].DeriveExternalID()
		}
		balance = balance.Sub(bookings[i].Amount)
	}

	// balance now holds the computed state before the oldest booking
	if opening != nil && len(bookings) > 0 && !balance.Equal(opening.Amount) {
		logrus.Errorf("opening booked balance %s and calculated balance before the first transaction %s are not equal",
			opening.Amount.String(), balance.String())
	}
}

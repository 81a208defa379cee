package pagination

import (
	"net/url"
	"time"
)

// ContinuationScheme describes how one bank family encodes its continuation
// token in the "next" link. Banks disagree both on the query-parameter name
// and on whether the follow-up call must repeat the original date range:
// Fiducia's scrollRef must not be combined with dateFrom, while Commerzbank's
// page parameter requires an otherwise identical call.
type ContinuationScheme struct {
	Name            string
	Param           string
	ResendDateRange bool
}

// KnownSchemes is tried in order; the first scheme whose parameter is present
// in the next link wins. Adding a new bank's scheme is an append here, the
// engine core stays untouched.
var KnownSchemes = []ContinuationScheme{
	{Name: "fiducia", Param: "scrollRef", ResendDateRange: false},
	{Name: "commerzbank", Param: "page", ResendDateRange: true},
}

// Params are the replay parameters of one paginated fetch. They exist only
// for the duration of the aggregated fetch and are never persisted.
type Params struct {
	ResourceID  string
	ConsentID   string
	BankCode    string
	DateFrom    time.Time
	DateTo      time.Time
	WithBalance bool
}

// Cursor is the resolved continuation of one "next" link: the opaque token,
// the scheme it belongs to and the parameters the follow-up call must carry.
type Cursor struct {
	Params   Params
	Scheme   ContinuationScheme
	Token    string
	NextLink string
}

// ResolveCursor matches the next link against the known continuation schemes.
// The second return value is false when no scheme applies; the caller stops
// pagination rather than risking a replay the bank will reject.
func ResolveCursor(nextLink string, params Params, schemes []ContinuationScheme) (*Cursor, bool) {
	parsed, err := url.Parse(nextLink)
	if err != nil {
		return nil, false
	}
	query := parsed.Query()

	for _, scheme := range schemes {
		token := query.Get(scheme.Param)
		if token == "" {
			continue
		}
		cursorParams := params
		if !scheme.ResendDateRange {
			cursorParams.DateFrom = time.Time{}
			cursorParams.DateTo = time.Time{}
		}
		return &Cursor{
			Params:   cursorParams,
			Scheme:   scheme,
			Token:    token,
			NextLink: nextLink,
		}, true
	}
	return nil, false
}

package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCursorScrollRefDropsDateRange(t *testing.T) {
	params := Params{
		ResourceID: "res-1",
		ConsentID:  "consent-1",
		BankCode:   "30060601",
		DateFrom:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	cursor, ok := ResolveCursor("https://bank.example/v1/accounts/res-1/transactions?scrollRef=abc%2F123", params, KnownSchemes)
	require.True(t, ok)

	assert.Equal(t, "fiducia", cursor.Scheme.Name)
	assert.Equal(t, "abc/123", cursor.Token) // url decoding, scroll refs contain special characters
	assert.True(t, cursor.Params.DateFrom.IsZero())
	assert.True(t, cursor.Params.DateTo.IsZero())
	assert.Equal(t, "res-1", cursor.Params.ResourceID)
}

func TestResolveCursorPageKeepsDateRange(t *testing.T) {
	dateFrom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	params := Params{ResourceID: "res-1", DateFrom: dateFrom}

	cursor, ok := ResolveCursor("https://bank.example/v1/accounts/res-1/transactions?page=2", params, KnownSchemes)
	require.True(t, ok)

	assert.Equal(t, "commerzbank", cursor.Scheme.Name)
	assert.Equal(t, "2", cursor.Token)
	assert.Equal(t, dateFrom, cursor.Params.DateFrom)
}

func TestResolveCursorSchemeOrder(t *testing.T) {
	// when both parameters are present the first matching scheme wins
	cursor, ok := ResolveCursor("https://bank.example/tx?page=2&scrollRef=abc", Params{}, KnownSchemes)
	require.True(t, ok)
	assert.Equal(t, "fiducia", cursor.Scheme.Name)
}

func TestResolveCursorNoMatch(t *testing.T) {
	_, ok := ResolveCursor("https://bank.example/tx?continuation=opaque", Params{}, KnownSchemes)
	assert.False(t, ok)

	_, ok = ResolveCursor("://not-a-url", Params{}, KnownSchemes)
	assert.False(t, ok)
}

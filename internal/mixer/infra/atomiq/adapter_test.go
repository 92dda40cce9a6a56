package atomiq

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuote(t *testing.T) {
	a := New("https://mock.atomiq.local/api")
	ctx := context.Background()

	q, err := a.GetQuote(ctx, "BTC", "STRK", decimal.RequireFromString("0.1"))
	require.NoError(t, err)
	assert.Equal(t, "BTC", q.FromToken)
	assert.Equal(t, "STRK", q.ToToken)
	assert.True(t, q.Rate.IsPositive())
	// 抖动幅度 ±0.5%
	base := decimal.RequireFromString("520000")
	assert.True(t, q.Rate.Sub(base).Abs().LessThanOrEqual(base.Mul(decimal.RequireFromString("0.006"))),
		"rate %s drifted too far from base", q.Rate)
	assert.True(t, q.ToAmount.Equal(q.FromAmount.Mul(q.Rate).Round(8)))
	assert.NotZero(t, q.ExpiresAt)
}

func TestGetQuoteUnsupportedPair(t *testing.T) {
	a := New("")
	_, err := a.GetQuote(context.Background(), "BTC", "DOGE", decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestGetQuoteRejectsNonPositive(t *testing.T) {
	a := New("")
	_, err := a.GetQuote(context.Background(), "BTC", "STRK", decimal.Zero)
	assert.Error(t, err)
}

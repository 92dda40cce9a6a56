package lightning

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoice(t *testing.T) {
	a := New("https://mock.lightning.local:10009")
	ctx := context.Background()

	inv, err := a.CreateInvoice(ctx, 992000, "Privacy mix for 0xalice")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inv.PaymentRequest, "lnbc992000"))
	assert.Len(t, inv.PaymentHash, 64)
	assert.EqualValues(t, 992000, inv.AmountSat)
	assert.Equal(t, "Privacy mix for 0xalice", inv.Memo)
	assert.NotZero(t, inv.CreatedAt)

	// 两张发票不能撞 hash
	inv2, err := a.CreateInvoice(ctx, 100, "")
	require.NoError(t, err)
	assert.NotEqual(t, inv.PaymentHash, inv2.PaymentHash)
}

func TestCreateInvoiceRejectsNonPositive(t *testing.T) {
	a := New("")
	_, err := a.CreateInvoice(context.Background(), 0, "x")
	assert.Error(t, err)
	_, err = a.CreateInvoice(context.Background(), -1, "x")
	assert.Error(t, err)
}

func TestCreateInvoiceHonorsContext(t *testing.T) {
	a := New("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.CreateInvoice(ctx, 100, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

package lightning

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/pkg/logger"
)

const invoiceExpirySec = 3600

var bolt11Chars = []byte("qpzry9x8gf2tvdw0s3jn54khce6mua7l")

// Adapter 闪电网络模拟节点。不发真实 RPC，
// 本地合成 bolt11 形状的发票，延迟 50~150ms 模拟网络往返。
type Adapter struct {
	nodeURL string
}

func New(nodeURL string) *Adapter {
	return &Adapter{nodeURL: nodeURL}
}

var _ domain.InvoiceIssuer = (*Adapter)(nil)

func (a *Adapter) CreateInvoice(ctx context.Context, amountSat int64, memo string) (*domain.Invoice, error) {
	if amountSat <= 0 {
		return nil, fmt.Errorf("invoice amount must be positive, got %d", amountSat)
	}

	select {
	case <-time.After(networkDelay()):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	inv := &domain.Invoice{
		PaymentRequest: fmt.Sprintf("lnbc%dn1%s", amountSat, randBolt11(90)),
		PaymentHash:    randHex(64),
		AmountSat:      amountSat,
		Expiry:         invoiceExpirySec,
		Memo:           memo,
		CreatedAt:      time.Now().UnixMilli(),
	}

	logger.Debug(ctx, "lightning invoice created",
		zap.Int64("amount_sat", amountSat),
		zap.String("payment_hash", inv.PaymentHash[:16]))
	return inv, nil
}

// CheckConnectivity 健康检查用；模拟节点永远在线
func (a *Adapter) CheckConnectivity(ctx context.Context) bool {
	return true
}

func networkDelay() time.Duration {
	return time.Duration(50+rand.Intn(100)) * time.Millisecond
}

func randBolt11(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = bolt11Chars[rand.Intn(len(bolt11Chars))]
	}
	return string(b)
}

func randHex(n int) string {
	const hex = "0123456789abcdef"
	b := make([]byte, n)
	for i := range b {
		b[i] = hex[rand.Intn(len(hex))]
	}
	return string(b)
}

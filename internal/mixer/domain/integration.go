package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// 外部金融集成的契约。核心只依赖这些接口，
// 具体实现（infra/lightning|cashu|atomiq）全部是模拟件。

type Invoice struct {
	PaymentRequest string `json:"paymentRequest"`
	PaymentHash    string `json:"paymentHash"`
	AmountSat      int64  `json:"value"`
	Expiry         int64  `json:"expiry"`
	Memo           string `json:"memo,omitempty"`
	CreatedAt      int64  `json:"creationDate"`
}

// InvoiceIssuer 闪电网络收款方。initiate 拿 paymentRequest 当存款句柄。
type InvoiceIssuer interface {
	CreateInvoice(ctx context.Context, amountSat int64, memo string) (*Invoice, error)
	CheckConnectivity(ctx context.Context) bool
}

type Proof struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Secret string `json:"secret"`
	C      string `json:"C"`
}

// Mint Cashu 电子现金铸币方
type Mint interface {
	MintProofs(ctx context.Context, amountSat int64) ([]Proof, error)
	RedeemProofs(ctx context.Context, proofs []Proof) (int64, error)
	CheckAvailability(ctx context.Context) bool
}

type Quote struct {
	ID         string          `json:"id"`
	FromToken  string          `json:"fromToken"`
	ToToken    string          `json:"toToken"`
	FromAmount decimal.Decimal `json:"fromAmount"`
	ToAmount   decimal.Decimal `json:"toAmount"`
	Rate       decimal.Decimal `json:"rate"`
	ExpiresAt  int64           `json:"expiresAt"`
}

// SwapProvider 跨链兑换/桥
type SwapProvider interface {
	GetQuote(ctx context.Context, fromToken, toToken string, amount decimal.Decimal) (*Quote, error)
	CheckAvailability(ctx context.Context) bool
}

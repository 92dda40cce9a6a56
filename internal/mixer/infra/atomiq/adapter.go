package atomiq

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/pkg/common"
	"lnmixer.com/pkg/logger"
)

const quoteTTL = 60 * time.Second

// 模拟报价基准汇率（to/from）
var baseRates = map[string]string{
	"BTC/STRK": "520000",
	"BTC/ETH":  "18.5",
	"BTC/USDC": "64000",
	"STRK/BTC": "0.0000019",
	"ETH/BTC":  "0.054",
	"USDC/BTC": "0.0000156",
}

// Adapter 跨链兑换模拟件。报价 = 基准汇率 ± 0.5% 抖动。
type Adapter struct {
	apiURL string
}

func New(apiURL string) *Adapter {
	return &Adapter{apiURL: apiURL}
}

var _ domain.SwapProvider = (*Adapter)(nil)

func (a *Adapter) GetQuote(ctx context.Context, fromToken, toToken string, amount decimal.Decimal) (*domain.Quote, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("swap amount must be positive")
	}
	base, ok := baseRates[fromToken+"/"+toToken]
	if !ok {
		return nil, fmt.Errorf("unsupported pair %s/%s", fromToken, toToken)
	}

	select {
	case <-time.After(time.Duration(40+rand.Intn(80)) * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// ±0.5% 抖动
	jitter := decimal.NewFromFloat(1 + (rand.Float64()-0.5)/100)
	rate := decimal.RequireFromString(base).Mul(jitter)

	q := &domain.Quote{
		ID:         common.GenID("quote"),
		FromToken:  fromToken,
		ToToken:    toToken,
		FromAmount: amount,
		ToAmount:   amount.Mul(rate).Round(8),
		Rate:       rate,
		ExpiresAt:  time.Now().Add(quoteTTL).UnixMilli(),
	}
	logger.Debug(ctx, "swap quote issued",
		zap.String("pair", fromToken+"/"+toToken), zap.String("rate", rate.String()))
	return q, nil
}

func (a *Adapter) CheckAvailability(ctx context.Context) bool {
	return true
}

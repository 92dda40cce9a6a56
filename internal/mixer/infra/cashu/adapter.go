package cashu

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/pkg/logger"
)

// Adapter Cashu 铸币模拟件。proof 金额按 2 的幂拆分，
// 和真实 mint 的 keyset 面额习惯一致。
type Adapter struct {
	mintURL string
}

func New(mintURL string) *Adapter {
	return &Adapter{mintURL: mintURL}
}

var _ domain.Mint = (*Adapter)(nil)

func (a *Adapter) MintProofs(ctx context.Context, amountSat int64) ([]domain.Proof, error) {
	if amountSat <= 0 {
		return nil, fmt.Errorf("mint amount must be positive, got %d", amountSat)
	}

	select {
	case <-time.After(time.Duration(30+rand.Intn(70)) * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var proofs []domain.Proof
	remaining := amountSat
	for remaining > 0 {
		denom := int64(1)
		for denom*2 <= remaining {
			denom *= 2
		}
		proofs = append(proofs, domain.Proof{
			ID:     randHex(16),
			Amount: denom,
			Secret: randHex(64),
			C:      "02" + randHex(64),
		})
		remaining -= denom
	}

	logger.Debug(ctx, "cashu proofs minted",
		zap.Int64("amount_sat", amountSat), zap.Int("proofs", len(proofs)))
	return proofs, nil
}

func (a *Adapter) RedeemProofs(ctx context.Context, proofs []domain.Proof) (int64, error) {
	if len(proofs) == 0 {
		return 0, fmt.Errorf("no proofs to redeem")
	}

	select {
	case <-time.After(time.Duration(30+rand.Intn(70)) * time.Millisecond):
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	var total int64
	for _, p := range proofs {
		total += p.Amount
	}
	logger.Debug(ctx, "cashu proofs redeemed", zap.Int64("amount_sat", total))
	return total, nil
}

func (a *Adapter) CheckAvailability(ctx context.Context) bool {
	return true
}

func randHex(n int) string {
	const hex = "0123456789abcdef"
	b := make([]byte, n)
	for i := range b {
		b[i] = hex[rand.Intn(len(hex))]
	}
	return string(b)
}

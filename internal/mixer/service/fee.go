package service

import (
	"github.com/shopspring/decimal"
	"lnmixer.com/internal/mixer/domain"
)

// 手续费率表。未知档位兜底 0.8%
var feeRates = map[domain.PrivacyLevel]decimal.Decimal{
	domain.PrivacyLow:    decimal.RequireFromString("0.005"),
	domain.PrivacyMedium: decimal.RequireFromString("0.008"),
	domain.PrivacyHigh:   decimal.RequireFromString("0.012"),
}

var defaultFeeRate = decimal.RequireFromString("0.008")

func FeeRate(level domain.PrivacyLevel) decimal.Decimal {
	if r, ok := feeRates[level]; ok {
		return r
	}
	return defaultFeeRate
}

// SplitAmount 计算手续费和净额：fee = floor(amount*rate)，net = amount - fee
func SplitAmount(amount decimal.Decimal, level domain.PrivacyLevel) (fee, net decimal.Decimal) {
	fee = amount.Mul(FeeRate(level)).Floor()
	net = amount.Sub(fee)
	return fee, net
}

// EstimateCompletion 预估完成秒数：floor((300 + delayHours*3600) * 档位系数)
func EstimateCompletion(ps domain.PrivacySettings) int64 {
	base := decimal.NewFromInt(300 + int64(ps.DelayHours)*3600)

	var mult decimal.Decimal
	switch ps.PrivacyLevel {
	case domain.PrivacyHigh:
		mult = decimal.RequireFromString("1.5")
	case domain.PrivacyMedium:
		mult = decimal.RequireFromString("1.2")
	default:
		mult = decimal.NewFromInt(1)
	}

	return base.Mul(mult).Floor().IntPart()
}

// Starknet 主网代币地址表；未知符号存空串
var tokenAddresses = map[string]string{
	"STRK": "0x04718f5a0fc34cc1af16a1cdee98ffb20c31f5cd61d6ab07201858f4287c938d",
	"ETH":  "0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7",
	"USDC": "0x053c91253bc9682c04929ca02ed00b3e423f6710d2ee7e0d5ebb06f3ecf368a8",
}

func TokenAddress(symbol string) string {
	return tokenAddresses[symbol]
}

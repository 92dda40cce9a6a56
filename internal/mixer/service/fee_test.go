package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"lnmixer.com/internal/mixer/domain"
)

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		level   domain.PrivacyLevel
		wantFee string
		wantNet string
	}{
		{"medium 档 0.8%", "1000", domain.PrivacyMedium, "8", "992"},
		{"low 档 0.5%", "1000", domain.PrivacyLow, "5", "995"},
		{"high 档 1.2%", "1000", domain.PrivacyHigh, "12", "988"},
		{"手续费向下取整", "999", domain.PrivacyMedium, "7", "992"}, // 999*0.008=7.992
		{"小额手续费取整到 0", "100", domain.PrivacyLow, "0", "100"},
		{"未知档位按 medium 兜底", "1000", domain.PrivacyLevel("extreme"), "8", "992"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net := SplitAmount(decimal.RequireFromString(tt.amount), tt.level)
			assert.True(t, fee.Equal(decimal.RequireFromString(tt.wantFee)), "fee=%s", fee)
			assert.True(t, net.Equal(decimal.RequireFromString(tt.wantNet)), "net=%s", net)
			// fee + net 严格等于原始金额
			assert.True(t, fee.Add(net).Equal(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestEstimateCompletion(t *testing.T) {
	tests := []struct {
		name string
		ps   domain.PrivacySettings
		want int64
	}{
		{"low 无延迟", domain.PrivacySettings{PrivacyLevel: domain.PrivacyLow}, 300},
		{"medium 无延迟", domain.PrivacySettings{PrivacyLevel: domain.PrivacyMedium}, 360},
		{"high 无延迟", domain.PrivacySettings{PrivacyLevel: domain.PrivacyHigh}, 450},
		{"medium 延迟 2 小时", domain.PrivacySettings{PrivacyLevel: domain.PrivacyMedium, DelayHours: 2}, 9000}, // (300+7200)*1.2
		{"high 延迟 1 小时", domain.PrivacySettings{PrivacyLevel: domain.PrivacyHigh, DelayHours: 1}, 5850},     // (300+3600)*1.5
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateCompletion(tt.ps))
		})
	}
}

func TestTokenAddress(t *testing.T) {
	assert.NotEmpty(t, TokenAddress("ETH"))
	assert.NotEmpty(t, TokenAddress("STRK"))
	assert.NotEmpty(t, TokenAddress("USDC"))
	assert.Empty(t, TokenAddress("DOGE"))
}

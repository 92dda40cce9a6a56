package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/pkg/xerr"
)

type fakeIssuer struct {
	fail     bool
	lastMemo string
	lastSat  int64
}

func (f *fakeIssuer) CreateInvoice(ctx context.Context, amountSat int64, memo string) (*domain.Invoice, error) {
	if f.fail {
		return nil, errors.New("lightning node unreachable")
	}
	f.lastMemo = memo
	f.lastSat = amountSat
	return &domain.Invoice{
		PaymentRequest: fmt.Sprintf("lnbc%dn1mockinvoice", amountSat),
		PaymentHash:    "deadbeef",
		AmountSat:      amountSat,
		Expiry:         3600,
		Memo:           memo,
		CreatedAt:      time.Now().UnixMilli(),
	}, nil
}

func (f *fakeIssuer) CheckConnectivity(ctx context.Context) bool { return !f.fail }

func newTestService(t *testing.T) (*MixService, domain.MixerRepo, *recorder, *fakeIssuer) {
	t.Helper()
	repo := newServiceTestRepo(t)
	rec := &recorder{}
	issuer := &fakeIssuer{}
	sched := NewScheduler(repo, rec, shortPipeline())
	return NewMixService(repo, rec, sched, issuer), repo, rec, issuer
}

// waitStatus 轮询直到交易到达目标状态
func waitStatus(t *testing.T, repo domain.MixerRepo, txID string, want domain.TxStatus) *domain.Transaction {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		tx, err := repo.GetTransaction(context.Background(), txID)
		require.NoError(t, err)
		if tx.Status == want {
			return tx
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("transaction %s never reached %s", txID, want)
	return nil
}

func TestInitiate(t *testing.T) {
	svc, repo, rec, issuer := newTestService(t)
	ctx := context.Background()

	out, err := svc.Initiate(ctx, &DepositInput{
		UserAddress: "0xalice",
		Token:       "ETH",
		Amount:      decimal.RequireFromString("1000"),
		Recipient:   "0xbob",
		PrivacySettings: domain.PrivacySettings{
			PrivacyLevel: domain.PrivacyMedium,
		},
	})
	require.NoError(t, err)

	// medium 档 0.8%：fee 8，净额 992
	assert.Equal(t, "8", out.Fee)
	assert.NotEmpty(t, out.TransactionID)
	assert.NotEmpty(t, out.LightningInvoice)
	assert.EqualValues(t, 360, out.EstimatedCompletion)

	// 发票按净额换算 sats，memo 带用户地址
	assert.EqualValues(t, 992000, issuer.lastSat)
	assert.Contains(t, issuer.lastMemo, "0xalice")

	tx, err := repo.GetTransaction(ctx, out.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "992", tx.Amount)
	assert.Equal(t, "8", tx.Fee)
	assert.Equal(t, "ETH", tx.TokenSymbol)
	assert.NotEmpty(t, tx.TokenAddress)

	steps, err := repo.ListSteps(ctx, out.TransactionID)
	require.NoError(t, err)
	assert.Len(t, steps, 7)

	// 第一条广播是 transactionCreated
	events := rec.all()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventTransactionCreated, events[0].Type)
	assert.Equal(t, "0xalice", events[0].UserAddress)

	// 后台流水线最终把交易推到 completed
	final := waitStatus(t, repo, out.TransactionID, domain.TxStatusCompleted)
	assert.Equal(t, 100, final.Progress)
	assert.NotNil(t, final.TransactionHash)
}

func TestInitiateValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      DepositInput
		wantMsg string
	}{
		{
			"缺必填字段",
			DepositInput{Token: "ETH", Amount: decimal.NewFromInt(100)},
			"Missing required fields",
		},
		{
			"金额为 0",
			DepositInput{
				UserAddress: "0xalice", Token: "ETH", Recipient: "0xbob",
				Amount:          decimal.Zero,
				PrivacySettings: domain.PrivacySettings{PrivacyLevel: domain.PrivacyLow},
			},
			"Amount must be greater than 0",
		},
		{
			"金额为负",
			DepositInput{
				UserAddress: "0xalice", Token: "ETH", Recipient: "0xbob",
				Amount:          decimal.NewFromInt(-5),
				PrivacySettings: domain.PrivacySettings{PrivacyLevel: domain.PrivacyLow},
			},
			"Amount must be greater than 0",
		},
		{
			"非法隐私档位",
			DepositInput{
				UserAddress: "0xalice", Token: "ETH", Recipient: "0xbob",
				Amount:          decimal.NewFromInt(100),
				PrivacySettings: domain.PrivacySettings{PrivacyLevel: "extreme"},
			},
			"Invalid privacy level. Must be: low, medium, or high",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Initiate(ctx, &tt.in)
			require.Error(t, err)
			assert.Equal(t, xerr.RequestParamsError, xerr.Code(err))
			assert.Equal(t, tt.wantMsg, xerr.Msg(err))
		})
	}
}

func TestInitiateUpstreamFailure(t *testing.T) {
	svc, repo, _, issuer := newTestService(t)
	issuer.fail = true

	_, err := svc.Initiate(context.Background(), &DepositInput{
		UserAddress: "0xalice",
		Token:       "ETH",
		Amount:      decimal.NewFromInt(1000),
		Recipient:   "0xbob",
		PrivacySettings: domain.PrivacySettings{
			PrivacyLevel: domain.PrivacyMedium,
		},
	})
	require.Error(t, err)
	assert.Equal(t, xerr.UpstreamError, xerr.Code(err))
	assert.Equal(t, "Failed to create Lightning invoice", xerr.Msg(err))

	// 发票失败时不留半截记录
	_, total, err := repo.ListByDepositor(context.Background(), "0xalice", 10, 0, "")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestGetStatus(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	seedPipelineTx(t, repo, "tx_1", shortPipeline())

	snap, err := svc.GetStatus(ctx, "tx_1")
	require.NoError(t, err)
	assert.Equal(t, "tx_1", snap.TransactionID)
	assert.Equal(t, domain.TxStatusPending, snap.Status)
	assert.Len(t, snap.Steps, 3)
	assert.EqualValues(t, 360, snap.EstimatedCompletion)

	_, err = svc.GetStatus(ctx, "tx_missing")
	assert.Equal(t, xerr.RecordNotFound, xerr.Code(err))
}

func TestCancel(t *testing.T) {
	svc, repo, rec, _ := newTestService(t)
	ctx := context.Background()

	seedPipelineTx(t, repo, "tx_1", shortPipeline())
	require.NoError(t, svc.Cancel(ctx, "tx_1"))

	tx, err := repo.GetTransaction(ctx, "tx_1")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusFailed, tx.Status)
	require.NotNil(t, tx.Error)
	assert.Equal(t, "Cancelled by user", *tx.Error)

	events := rec.all()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventTransactionCancelled, events[len(events)-1].Type)
}

func TestCancelGuards(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	seedPipelineTx(t, repo, "tx_1", shortPipeline())
	require.NoError(t, repo.UpdateTransaction(ctx, "tx_1", map[string]interface{}{
		"status": domain.TxStatusCompleted,
	}))

	err := svc.Cancel(ctx, "tx_1")
	var conflict *StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domain.TxStatusCompleted, conflict.Current)
	assert.Equal(t, "Only pending transactions can be cancelled", conflict.Msg)
}

func TestRetryResumesPipeline(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	seedPipelineTx(t, repo, "tx_1", shortPipeline())

	// 现场：deposit 完成，swap 失败，交易 failed
	now := time.Now().UnixMilli()
	require.NoError(t, repo.UpdateStep(ctx, "tx_1", "deposit", map[string]interface{}{
		"status":       domain.StepStatusCompleted,
		"progress":     100,
		"completed_at": now,
	}))
	require.NoError(t, repo.UpdateStep(ctx, "tx_1", "swap", map[string]interface{}{
		"status":     domain.StepStatusFailed,
		"started_at": now,
		"error":      "swap provider timeout",
	}))
	require.NoError(t, repo.UpdateTransaction(ctx, "tx_1", map[string]interface{}{
		"status":   domain.TxStatusFailed,
		"progress": 10,
		"error":    "swap provider timeout",
	}))

	require.NoError(t, svc.Retry(ctx, "tx_1", "swap"))

	final := waitStatus(t, repo, "tx_1", domain.TxStatusCompleted)
	assert.Nil(t, final.Error)
	assert.Equal(t, 100, final.Progress)

	// swap 被重置后重跑成功
	steps, err := repo.ListSteps(ctx, "tx_1")
	require.NoError(t, err)
	for _, st := range steps {
		assert.Equal(t, domain.StepStatusCompleted, st.Status, st.Name)
		assert.Nil(t, st.Error, st.Name)
	}
}

func TestRetryGuards(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	seedPipelineTx(t, repo, "tx_1", shortPipeline())

	err := svc.Retry(ctx, "tx_1", "")
	var conflict *StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, domain.TxStatusPending, conflict.Current)
	assert.Equal(t, "Only failed transactions can be retried", conflict.Msg)
}

func TestDelete(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	seedPipelineTx(t, repo, "tx_1", shortPipeline())

	// pending 不允许删
	err := svc.Delete(ctx, "tx_1")
	var conflict *StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Only failed transactions can be deleted", conflict.Msg)

	require.NoError(t, repo.UpdateTransaction(ctx, "tx_1", map[string]interface{}{
		"status": domain.TxStatusFailed,
	}))
	require.NoError(t, svc.Delete(ctx, "tx_1"))

	tx, err := repo.GetTransaction(ctx, "tx_1")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusDeleted, tx.Status)
}

func TestListHistory(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedPipelineTx(t, repo, fmt.Sprintf("tx_%d", i), shortPipeline())
	}

	_, err := svc.ListHistory(ctx, "", 10, 0, "")
	require.Error(t, err)
	assert.Equal(t, "User address is required", xerr.Msg(err))

	page, err := svc.ListHistory(ctx, "0xalice", 2, 0, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Len(t, page.Transactions, 2)
	assert.True(t, page.HasMore)

	page, err = svc.ListHistory(ctx, "0xalice", 2, 2, "")
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 1)
	assert.False(t, page.HasMore)

	// 非法状态过滤
	_, err = svc.ListHistory(ctx, "0xalice", 10, 0, domain.TxStatus("bogus"))
	assert.Equal(t, xerr.RequestParamsError, xerr.Code(err))
}

func TestGetStats(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	seedPipelineTx(t, repo, "tx_1", shortPipeline())
	seedPipelineTx(t, repo, "tx_2", shortPipeline())
	seedPipelineTx(t, repo, "tx_3", shortPipeline())
	require.NoError(t, repo.UpdateTransaction(ctx, "tx_1", map[string]interface{}{
		"status": domain.TxStatusCompleted,
	}))
	require.NoError(t, repo.UpdateTransaction(ctx, "tx_2", map[string]interface{}{
		"status": domain.TxStatusFailed,
	}))

	stats, err := svc.GetStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "24h", stats.Period)
	assert.EqualValues(t, 3, stats.TotalTransactions)
	assert.EqualValues(t, 1, stats.CompletedTransactions)
	assert.EqualValues(t, 1, stats.FailedTransactions)
	assert.EqualValues(t, 1, stats.PendingTransactions)
	assert.Equal(t, "33.33", stats.SuccessRate)

	stats, err = svc.GetStats(ctx, "1h")
	require.NoError(t, err)
	assert.Equal(t, "1h", stats.Period)
	assert.Equal(t, stats.EndTime-stats.StartTime, time.Hour.Milliseconds())
}

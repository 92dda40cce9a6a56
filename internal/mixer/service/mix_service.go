package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/pkg/common"
	"lnmixer.com/pkg/logger"
	"lnmixer.com/pkg/safe"
	"lnmixer.com/pkg/xerr"
)

// StateConflictError 守卫失败：操作对当前状态不合法。
// handler 用它把 currentStatus 带进错误信封。
type StateConflictError struct {
	Current domain.TxStatus
	Msg     string
}

func (e *StateConflictError) Error() string { return e.Msg }

// MixService 生命周期控制器：对外的六个操作都在这里，
// 费率/ETA 策略见 fee.go，异步推进交给 Scheduler。
type MixService struct {
	repo      domain.MixerRepo
	bus       domain.Broadcaster
	scheduler *Scheduler
	invoices  domain.InvoiceIssuer
}

func NewMixService(repo domain.MixerRepo, bus domain.Broadcaster, scheduler *Scheduler, invoices domain.InvoiceIssuer) *MixService {
	return &MixService{repo: repo, bus: bus, scheduler: scheduler, invoices: invoices}
}

type DepositInput struct {
	UserAddress     string                 `json:"userAddress"`
	Token           string                 `json:"token"`
	Amount          decimal.Decimal        `json:"amount"`
	Recipient       string                 `json:"recipient"`
	PrivacySettings domain.PrivacySettings `json:"privacySettings"`
}

type DepositResult struct {
	TransactionID       string `json:"transactionId"`
	LightningInvoice    string `json:"lightningInvoice"`
	EstimatedCompletion int64  `json:"estimatedCompletion"`
	Fee                 string `json:"fee"`
}

// Initiate 入口操作：校验 -> 算费 -> 换发票 -> 落库 -> 异步起流水线。
// 发票失败直接报上游错误，此时什么都没落库。
func (s *MixService) Initiate(ctx context.Context, in *DepositInput) (*DepositResult, error) {
	if in.UserAddress == "" || in.Token == "" || in.Recipient == "" {
		return nil, xerr.New(xerr.RequestParamsError, "Missing required fields")
	}
	if !in.Amount.IsPositive() {
		return nil, xerr.New(xerr.RequestParamsError, "Amount must be greater than 0")
	}
	if !in.PrivacySettings.PrivacyLevel.Valid() {
		return nil, xerr.New(xerr.RequestParamsError, "Invalid privacy level. Must be: low, medium, or high")
	}

	if err := s.repo.UpsertUser(ctx, in.UserAddress); err != nil {
		return nil, err
	}

	fee, net := SplitAmount(in.Amount, in.PrivacySettings.PrivacyLevel)

	logger.Info(ctx, "initiating mixing",
		zap.String("user", in.UserAddress),
		zap.String("token", in.Token),
		zap.String("amount", in.Amount.String()),
		zap.String("fee", fee.String()))

	// 净额换算 sats（mock 汇率 x1000），向外部集成换一张存款发票
	amountSat := net.Mul(decimal.NewFromInt(1000)).Floor().IntPart()
	invoice, err := s.invoices.CreateInvoice(ctx, amountSat,
		fmt.Sprintf("Privacy mix for %s", in.UserAddress))
	if err != nil {
		logger.Error(ctx, "create lightning invoice failed", zap.Error(err))
		return nil, xerr.New(xerr.UpstreamError, "Failed to create Lightning invoice")
	}

	tx := &domain.Transaction{
		ID:               common.GenID("tx"),
		Depositor:        in.UserAddress,
		Recipient:        in.Recipient,
		TokenAddress:     TokenAddress(in.Token),
		TokenSymbol:      in.Token,
		Amount:           net.String(),
		Fee:              fee.String(),
		LightningInvoice: invoice.PaymentRequest,
		Status:           domain.TxStatusPending,
		PrivacySettings:  in.PrivacySettings,
	}

	steps := make([]domain.MixingStep, 0, len(domain.Pipeline()))
	for _, spec := range domain.Pipeline() {
		steps = append(steps, domain.MixingStep{
			Name:        spec.Name,
			Description: spec.Description,
			Status:      domain.StepStatusPending,
		})
	}

	if err := s.repo.CreateTransaction(ctx, tx, steps); err != nil {
		return nil, err
	}

	s.bus.Broadcast(domain.Event{
		Type:          domain.EventTransactionCreated,
		TransactionID: tx.ID,
		Status:        domain.TxStatusPending,
		UserAddress:   in.UserAddress,
	})

	// 流水线脱离请求生命周期跑；WithoutCancel 保留 trace 字段
	safe.GoCtx(context.WithoutCancel(ctx), func(ctx context.Context) {
		s.scheduler.Run(ctx, tx.ID)
	})

	logger.Info(ctx, "mixing transaction created", zap.String("tx_id", tx.ID))

	return &DepositResult{
		TransactionID:       tx.ID,
		LightningInvoice:    invoice.PaymentRequest,
		EstimatedCompletion: EstimateCompletion(in.PrivacySettings),
		Fee:                 fee.String(),
	}, nil
}

type StatusSnapshot struct {
	TransactionID       string              `json:"transactionId"`
	Status              domain.TxStatus     `json:"status"`
	Progress            int                 `json:"progress"`
	Steps               []domain.MixingStep `json:"steps"`
	CreatedAt           int64               `json:"createdAt"`
	UpdatedAt           int64               `json:"updatedAt"`
	CompletedAt         *int64              `json:"completedAt"`
	TransactionHash     *string             `json:"transactionHash"`
	Error               *string             `json:"error"`
	EstimatedCompletion int64               `json:"estimatedCompletion"`
}

func (s *MixService) GetStatus(ctx context.Context, txID string) (*StatusSnapshot, error) {
	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	steps, err := s.repo.ListSteps(ctx, txID)
	if err != nil {
		return nil, err
	}

	return &StatusSnapshot{
		TransactionID:       tx.ID,
		Status:              tx.Status,
		Progress:            tx.Progress,
		Steps:               steps,
		CreatedAt:           tx.CreatedAt,
		UpdatedAt:           tx.UpdatedAt,
		CompletedAt:         tx.CompletedAt,
		TransactionHash:     tx.TransactionHash,
		Error:               tx.Error,
		EstimatedCompletion: EstimateCompletion(tx.PrivacySettings),
	}, nil
}

// GetDetail 完整交易 + 步骤
func (s *MixService) GetDetail(ctx context.Context, txID string) (*domain.Transaction, []domain.MixingStep, error) {
	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return nil, nil, err
	}
	steps, err := s.repo.ListSteps(ctx, txID)
	if err != nil {
		return nil, nil, err
	}
	return tx, steps, nil
}

func (s *MixService) GetSteps(ctx context.Context, txID string) ([]domain.MixingStep, error) {
	// 先确认交易存在，未知 id 报 404 而不是空列表
	if _, err := s.repo.GetTransaction(ctx, txID); err != nil {
		return nil, err
	}
	return s.repo.ListSteps(ctx, txID)
}

type HistoryPage struct {
	Transactions []domain.Transaction `json:"transactions"`
	TotalCount   int64                `json:"totalCount"`
	HasMore      bool                 `json:"hasMore"`
}

// ListHistory 某个存款人的交易，最新在前
func (s *MixService) ListHistory(ctx context.Context, depositor string, limit, offset int, status domain.TxStatus) (*HistoryPage, error) {
	if depositor == "" {
		return nil, xerr.New(xerr.RequestParamsError, "User address is required")
	}
	if status != "" && !status.Valid() {
		return nil, xerr.Newf(xerr.RequestParamsError, "Unknown status filter: %s", status)
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs, total, err := s.repo.ListByDepositor(ctx, depositor, limit, offset, status)
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		Transactions: txs,
		TotalCount:   total,
		HasMore:      int64(offset+len(txs)) < total,
	}, nil
}

// Cancel 只允许取消 pending 的交易
func (s *MixService) Cancel(ctx context.Context, txID string) error {
	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if tx.Status != domain.TxStatusPending {
		return &StateConflictError{
			Current: tx.Status,
			Msg:     "Only pending transactions can be cancelled",
		}
	}

	if err := s.repo.UpdateTransaction(ctx, txID, map[string]interface{}{
		"status": domain.TxStatusFailed,
		"error":  "Cancelled by user",
	}); err != nil {
		return err
	}

	logger.Info(ctx, "transaction cancelled", zap.String("tx_id", txID))

	s.bus.Broadcast(domain.Event{
		Type:          domain.EventTransactionCancelled,
		TransactionID: txID,
		Status:        domain.TxStatusFailed,
		Error:         "Cancelled by user",
	})
	return nil
}

// Retry 只允许重试 failed 的交易：清错误、可选重置指定 step，
// 然后让 Scheduler 从未完成的步骤继续往下跑
func (s *MixService) Retry(ctx context.Context, txID, stepName string) error {
	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if tx.Status != domain.TxStatusFailed {
		return &StateConflictError{
			Current: tx.Status,
			Msg:     "Only failed transactions can be retried",
		}
	}

	err = s.repo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateTransaction(txCtx, txID, map[string]interface{}{
			"status": domain.TxStatusProcessing,
			"error":  nil,
		}); err != nil {
			return err
		}
		if stepName != "" {
			return s.repo.UpdateStep(txCtx, txID, stepName, map[string]interface{}{
				"status":       domain.StepStatusPending,
				"progress":     0,
				"started_at":   nil,
				"completed_at": nil,
				"error":        nil,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "retrying transaction",
		zap.String("tx_id", txID), zap.String("step", stepName))

	safe.GoCtx(context.WithoutCancel(ctx), func(ctx context.Context) {
		s.scheduler.Run(ctx, txID)
	})
	return nil
}

// Delete 逻辑删除，只对 failed 开放；记录永远不物理删
func (s *MixService) Delete(ctx context.Context, txID string) error {
	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if tx.Status != domain.TxStatusFailed {
		return &StateConflictError{
			Current: tx.Status,
			Msg:     "Only failed transactions can be deleted",
		}
	}

	if err := s.repo.UpdateTransaction(ctx, txID, map[string]interface{}{
		"status": domain.TxStatusDeleted,
	}); err != nil {
		return err
	}
	logger.Info(ctx, "transaction deleted", zap.String("tx_id", txID))
	return nil
}

type Stats struct {
	Period                string `json:"period"`
	StartTime             int64  `json:"startTime"`
	EndTime               int64  `json:"endTime"`
	TotalTransactions     int64  `json:"totalTransactions"`
	CompletedTransactions int64  `json:"completedTransactions"`
	FailedTransactions    int64  `json:"failedTransactions"`
	PendingTransactions   int64  `json:"pendingTransactions"`
	SuccessRate           string `json:"successRate"`
}

// GetStats 窗口内各状态交易数聚合
func (s *MixService) GetStats(ctx context.Context, period string) (*Stats, error) {
	now := time.Now().UnixMilli()
	var window time.Duration
	switch period {
	case "1h":
		window = time.Hour
	case "7d":
		window = 7 * 24 * time.Hour
	case "30d":
		window = 30 * 24 * time.Hour
	default:
		period = "24h"
		window = 24 * time.Hour
	}
	since := now - window.Milliseconds()

	counts, err := s.repo.CountByStatusSince(ctx, since)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	completed := counts[domain.TxStatusCompleted]
	failed := counts[domain.TxStatusFailed] + counts[domain.TxStatusRefunded] + counts[domain.TxStatusDeleted]
	pending := counts[domain.TxStatusPending] + counts[domain.TxStatusConfirmed] + counts[domain.TxStatusProcessing]

	rate := decimal.Zero
	if total > 0 {
		rate = decimal.NewFromInt(completed).
			Div(decimal.NewFromInt(total)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return &Stats{
		Period:                period,
		StartTime:             since,
		EndTime:               now,
		TotalTransactions:     total,
		CompletedTransactions: completed,
		FailedTransactions:    failed,
		PendingTransactions:   pending,
		SuccessRate:           rate.String(),
	}, nil
}

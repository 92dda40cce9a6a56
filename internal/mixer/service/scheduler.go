package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/pkg/common"
	"lnmixer.com/pkg/logger"
)

// errShutdown 进程退出导致的中断：不把交易标记为 failed，
// 留在当前状态等人工/重启处理
var errShutdown = errors.New("scheduler interrupted by shutdown")

// Scheduler 推进单笔交易的七步流水线。
// 每个状态迁移 = 一次事务写（step + transaction 联动）+ 一次广播，
// 步骤严格串行，多笔交易之间互不相干。
type Scheduler struct {
	repo     domain.MixerRepo
	bus      domain.Broadcaster
	pipeline []domain.StepSpec
}

func NewScheduler(repo domain.MixerRepo, bus domain.Broadcaster, pipeline []domain.StepSpec) *Scheduler {
	if len(pipeline) == 0 {
		pipeline = domain.Pipeline()
	}
	return &Scheduler{repo: repo, bus: bus, pipeline: pipeline}
}

// Run 从头推进流水线；已完成的步骤自动跳过，所以 retry 复用同一入口。
// 任何持久化/模拟调用报错都在这里兜住，写回 failed 状态并广播。
func (s *Scheduler) Run(ctx context.Context, txID string) {
	logger.Info(ctx, "mixing pipeline started", zap.String("tx_id", txID))

	if err := s.run(ctx, txID); err != nil {
		// ctx 取消后连 DB 调用都会报错，一律按停机处理
		if errors.Is(err, errShutdown) || ctx.Err() != nil {
			logger.Warn(ctx, "mixing pipeline interrupted", zap.String("tx_id", txID))
			return
		}
		s.fail(ctx, txID, err)
	}
}

func (s *Scheduler) run(ctx context.Context, txID string) error {
	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if tx.Status == domain.TxStatusCompleted || tx.Status == domain.TxStatusDeleted {
		return nil
	}

	steps, err := s.repo.ListSteps(ctx, txID)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(steps))
	for _, st := range steps {
		if st.Status == domain.StepStatusCompleted {
			done[st.Name] = true
		}
	}

	progress := tx.Progress

	for _, spec := range s.pipeline {
		if done[spec.Name] {
			continue
		}

		if spec.Name == "deposit" {
			// 存款确认：pending -> confirmed，整体进度 10
			progress = clampProgress(progress + spec.Increment)
			if err := s.confirmDeposit(ctx, txID, progress); err != nil {
				return err
			}
			s.bus.Broadcast(domain.Event{
				Type:          domain.EventTransactionUpdate,
				TransactionID: txID,
				Status:        domain.TxStatusConfirmed,
				Progress:      progress,
				Step:          spec.Name,
			})
			continue
		}

		// 进度在步骤开始时就累加（历史口径），完成时只更新 step 本身
		progress = clampProgress(progress + spec.Increment)
		if err := s.startStep(ctx, txID, spec.Name, progress); err != nil {
			return err
		}
		s.bus.Broadcast(domain.Event{
			Type:          domain.EventTransactionUpdate,
			TransactionID: txID,
			Status:        domain.TxStatusProcessing,
			Progress:      progress,
			Step:          spec.Name,
		})

		if err := sleep(ctx, spec.Duration); err != nil {
			return err
		}

		now := time.Now().UnixMilli()
		if err := s.repo.UpdateStep(ctx, txID, spec.Name, map[string]interface{}{
			"status":       domain.StepStatusCompleted,
			"progress":     100,
			"completed_at": now,
		}); err != nil {
			return err
		}
		logger.Debug(ctx, "mixing step completed",
			zap.String("tx_id", txID), zap.String("step", spec.Name))
	}

	return s.complete(ctx, txID)
}

// confirmDeposit deposit 步骤瞬时完成，交易确认；两条写合成一个事务
func (s *Scheduler) confirmDeposit(ctx context.Context, txID string, progress int) error {
	now := time.Now().UnixMilli()
	return s.repo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateTransaction(txCtx, txID, map[string]interface{}{
			"status":   domain.TxStatusConfirmed,
			"progress": progress,
		}); err != nil {
			return err
		}
		return s.repo.UpdateStep(txCtx, txID, "deposit", map[string]interface{}{
			"status":       domain.StepStatusCompleted,
			"progress":     100,
			"completed_at": now,
		})
	})
}

func (s *Scheduler) startStep(ctx context.Context, txID, name string, progress int) error {
	now := time.Now().UnixMilli()
	return s.repo.Transaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateStep(txCtx, txID, name, map[string]interface{}{
			"status":     domain.StepStatusInProgress,
			"progress":   0,
			"started_at": now,
			"error":      nil,
		}); err != nil {
			return err
		}
		return s.repo.UpdateTransaction(txCtx, txID, map[string]interface{}{
			"status":   domain.TxStatusProcessing,
			"progress": progress,
		})
	})
}

func (s *Scheduler) complete(ctx context.Context, txID string) error {
	now := time.Now().UnixMilli()
	hash := common.GenID("tx_hash")
	if err := s.repo.UpdateTransaction(ctx, txID, map[string]interface{}{
		"status":           domain.TxStatusCompleted,
		"progress":         100,
		"completed_at":     now,
		"transaction_hash": hash,
	}); err != nil {
		return err
	}

	logger.Info(ctx, "mixing pipeline completed",
		zap.String("tx_id", txID), zap.String("tx_hash", hash))

	s.bus.Broadcast(domain.Event{
		Type:            domain.EventTransactionCompleted,
		TransactionID:   txID,
		Status:          domain.TxStatusCompleted,
		Progress:        100,
		TransactionHash: hash,
	})
	return nil
}

// fail 顶层兜底：错误写回交易并广播。
// 当前 in-progress 的 step 不回滚，保持现场（best-effort）。
func (s *Scheduler) fail(ctx context.Context, txID string, cause error) {
	logger.Error(ctx, "mixing pipeline failed",
		zap.String("tx_id", txID), zap.Error(cause))

	if err := s.repo.UpdateTransaction(ctx, txID, map[string]interface{}{
		"status": domain.TxStatusFailed,
		"error":  cause.Error(),
	}); err != nil {
		logger.Error(ctx, "mark transaction failed error",
			zap.String("tx_id", txID), zap.Error(err))
	}

	s.bus.Broadcast(domain.Event{
		Type:          domain.EventTransactionFailed,
		TransactionID: txID,
		Status:        domain.TxStatusFailed,
		Error:         cause.Error(),
	})
}

func clampProgress(p int) int {
	if p > 100 {
		return 100
	}
	return p
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return errShutdown
	}
}

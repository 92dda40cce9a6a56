package persistence

import (
	"context"

	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/pkg/xerr"
)

// ListSteps 按主键升序返回，即流水线定义顺序
func (r *Repo) ListSteps(ctx context.Context, txID string) ([]domain.MixingStep, error) {
	var steps []domain.MixingStep
	err := r.conn(ctx).WithContext(ctx).
		Where("transaction_id = ?", txID).
		Order("id ASC").
		Find(&steps).Error
	if err != nil {
		return nil, xerr.Newf(xerr.DbError, "list mixing steps failed: %v", err)
	}
	return steps, nil
}

// UpdateStep 按 (transaction_id, step_name) 定位做部分更新。
// 重置时间戳/错误时调用方显式传 nil 即可写 NULL。
func (r *Repo) UpdateStep(ctx context.Context, txID, name string, updates map[string]interface{}) error {
	res := r.conn(ctx).WithContext(ctx).Model(&domain.MixingStep{}).
		Where("transaction_id = ? AND step_name = ?", txID, name).
		Updates(updates)
	if res.Error != nil {
		return xerr.Newf(xerr.DbError, "update mixing step failed: %v", res.Error)
	}
	// RowsAffected 不校验：同值更新在 MySQL 下也会报 0 行
	return nil
}

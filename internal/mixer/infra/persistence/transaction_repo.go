package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/pkg/orm"
	"lnmixer.com/pkg/xerr"
)

// CreateTransaction 交易记录和七个 step 占位一起落库（同一事务）
func (r *Repo) CreateTransaction(ctx context.Context, tx *domain.Transaction, steps []domain.MixingStep) error {
	return r.conn(ctx).WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Create(tx).Error; err != nil {
			return xerr.Newf(xerr.DbError, "create transaction failed: %v", err)
		}
		for i := range steps {
			steps[i].TransactionID = tx.ID
		}
		// 逐条插入保证自增主键严格按流水线顺序分配
		for i := range steps {
			if err := db.Create(&steps[i]).Error; err != nil {
				return xerr.Newf(xerr.DbError, "create mixing step %s failed: %v", steps[i].Name, err)
			}
		}
		return nil
	})
}

func (r *Repo) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := r.conn(ctx).WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.New(xerr.RecordNotFound, "Transaction not found")
		}
		return nil, xerr.Newf(xerr.DbError, "query transaction failed: %v", err)
	}
	return &tx, nil
}

// UpdateTransaction 部分更新；updated_at 总是跟着刷新
func (r *Repo) UpdateTransaction(ctx context.Context, id string, updates map[string]interface{}) error {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UnixMilli()
	}
	res := r.conn(ctx).WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return xerr.Newf(xerr.DbError, "update transaction failed: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return xerr.New(xerr.RecordNotFound, "Transaction not found")
	}
	return nil
}

// ListByDepositor 按创建时间倒序分页；status 为空表示不过滤
func (r *Repo) ListByDepositor(ctx context.Context, depositor string, limit, offset int, status domain.TxStatus) ([]domain.Transaction, int64, error) {
	q := r.conn(ctx).WithContext(ctx).Model(&domain.Transaction{}).
		Where("user_address = ?", depositor)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, xerr.Newf(xerr.DbError, "count transactions failed: %v", err)
	}

	var txs []domain.Transaction
	err := orm.ApplyLimitOffset(q.Order("created_at DESC"), limit, offset).Find(&txs).Error
	if err != nil {
		return nil, 0, xerr.Newf(xerr.DbError, "list transactions failed: %v", err)
	}
	return txs, total, nil
}

// CountByStatusSince 统计窗口内各状态的交易数
func (r *Repo) CountByStatusSince(ctx context.Context, sinceMs int64) (map[domain.TxStatus]int64, error) {
	type row struct {
		Status domain.TxStatus
		Cnt    int64
	}
	var rows []row
	err := r.conn(ctx).WithContext(ctx).Model(&domain.Transaction{}).
		Select("status, COUNT(*) AS cnt").
		Where("created_at >= ?", sinceMs).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, xerr.Newf(xerr.DbError, "count by status failed: %v", err)
	}

	out := make(map[domain.TxStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Cnt
	}
	return out, nil
}

// UpsertUser 不存在则建，存在刷新 last_active_at
func (r *Repo) UpsertUser(ctx context.Context, address string) error {
	now := time.Now().UnixMilli()
	db := r.conn(ctx).WithContext(ctx)

	res := db.Model(&domain.User{}).
		Where("address = ?", address).
		Update("last_active_at", now)
	if res.Error != nil {
		return xerr.Newf(xerr.DbError, "touch user failed: %v", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	u := &domain.User{
		ID:           fmt.Sprintf("user_%s_%d", shortAddr(address), now),
		Address:      address,
		LastActiveAt: now,
	}
	if err := db.Create(u).Error; err != nil {
		return xerr.Newf(xerr.DbError, "create user failed: %v", err)
	}
	return nil
}

func shortAddr(addr string) string {
	if len(addr) >= 10 {
		return addr[2:10]
	}
	return addr
}

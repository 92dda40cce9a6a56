package persistence

import (
	"context"

	"gorm.io/gorm"
	"lnmixer.com/internal/mixer/domain"
)

// tx 注入 ctx 用的 key，嵌套写操作自动复用同一事务
const txDBKey = "tx_db"

type Repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

var _ domain.MixerRepo = (*Repo)(nil)

// InitSchema 建表 + 索引。原型阶段直接 AutoMigrate，线上换 migration 工具。
func InitSchema(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Transaction{},
		&domain.MixingStep{},
	)
}

// Transaction 开启事务，把 tx 塞进 ctx 传给 fn
func (r *Repo) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txDBKey, tx) //nolint:staticcheck
		return fn(txCtx)
	})
}

// conn 优先取 ctx 里的事务连接
func (r *Repo) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txDBKey).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

package orm

import "gorm.io/gorm"

// ApplyLimitOffset 应用 limit/offset 分页；limit <= 0 时不限制
func ApplyLimitOffset(db *gorm.DB, limit, offset int) *gorm.DB {
	if offset > 0 {
		db = db.Offset(offset)
	}
	if limit > 0 {
		db = db.Limit(limit)
	}
	return db
}

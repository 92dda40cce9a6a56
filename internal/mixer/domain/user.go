package domain

// User 存款人。每次 initiate 都会 upsert 一条，刷新活跃时间。
type User struct {
	ID           string `json:"id" gorm:"primaryKey;size:64"`
	Address      string `json:"address" gorm:"size:128;uniqueIndex"`
	Nonce        int64  `json:"nonce"`
	CreatedAt    int64  `json:"createdAt" gorm:"autoCreateTime:milli"`
	LastActiveAt int64  `json:"lastActiveAt"`
}

func (User) TableName() string { return "users" }

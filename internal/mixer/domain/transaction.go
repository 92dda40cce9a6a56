package domain

import "context"

type TxStatus string

const (
	TxStatusPending    TxStatus = "pending"    // 已创建，等待存款确认
	TxStatusConfirmed  TxStatus = "confirmed"  // deposit 步骤完成
	TxStatusProcessing TxStatus = "processing" // 流水线推进中
	TxStatusCompleted  TxStatus = "completed"  // 终态：成功
	TxStatusFailed     TxStatus = "failed"     // 终态：失败（含用户取消）
	TxStatusRefunded   TxStatus = "refunded"   // 终态：已退款
	TxStatusDeleted    TxStatus = "deleted"    // 终态：仅从 failed 可达，逻辑删除
)

// Terminal 终态后金额/手续费/发票不允许再变
func (s TxStatus) Terminal() bool {
	switch s {
	case TxStatusCompleted, TxStatusFailed, TxStatusRefunded, TxStatusDeleted:
		return true
	}
	return false
}

func (s TxStatus) Valid() bool {
	switch s {
	case TxStatusPending, TxStatusConfirmed, TxStatusProcessing,
		TxStatusCompleted, TxStatusFailed, TxStatusRefunded, TxStatusDeleted:
		return true
	}
	return false
}

type PrivacyLevel string

const (
	PrivacyLow    PrivacyLevel = "low"
	PrivacyMedium PrivacyLevel = "medium"
	PrivacyHigh   PrivacyLevel = "high"
)

func (l PrivacyLevel) Valid() bool {
	return l == PrivacyLow || l == PrivacyMedium || l == PrivacyHigh
}

// PrivacySettings 值对象，整体序列化进 transactions.privacy_settings
type PrivacySettings struct {
	PrivacyLevel      PrivacyLevel `json:"privacyLevel"`
	DelayHours        int          `json:"delayHours"`
	SplitIntoMultiple bool         `json:"splitIntoMultiple"`
	SplitCount        int          `json:"splitCount"`
	UseRandomAmounts  bool         `json:"useRandomAmounts"`
}

// Transaction 一笔混币请求的完整生命周期记录。
// 金额一律 decimal 字符串存储，避免浮点漂移；时间戳统一毫秒。
type Transaction struct {
	ID               string          `json:"id" gorm:"primaryKey;size:64"`
	Depositor        string          `json:"depositor" gorm:"column:user_address;size:128;index"`
	Recipient        string          `json:"recipient" gorm:"size:128"`
	TokenAddress     string          `json:"tokenAddress" gorm:"size:128"`
	TokenSymbol      string          `json:"tokenSymbol" gorm:"size:16"`
	Amount           string          `json:"amount" gorm:"size:64"`
	Fee              string          `json:"fee" gorm:"size:64"`
	LightningInvoice string          `json:"lightningInvoice" gorm:"size:512"`
	Status           TxStatus        `json:"status" gorm:"size:16;index"`
	PrivacySettings  PrivacySettings `json:"privacySettings" gorm:"column:privacy_settings;serializer:json"`
	Progress         int             `json:"progress"`
	CreatedAt        int64           `json:"createdAt" gorm:"autoCreateTime:milli;index"`
	UpdatedAt        int64           `json:"updatedAt" gorm:"autoUpdateTime:milli"`
	CompletedAt      *int64          `json:"completedAt"`
	TransactionHash  *string         `json:"transactionHash" gorm:"size:128"`
	Error            *string         `json:"error" gorm:"size:512"`
}

func (Transaction) TableName() string { return "transactions" }

// MixerRepo 记录存储契约。写操作用 map 传部分字段，
// 和底层 Updates 的语义一一对应；Transaction 把 tx 注入 ctx 供嵌套写复用。
type MixerRepo interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	CreateTransaction(ctx context.Context, tx *Transaction, steps []MixingStep) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	UpdateTransaction(ctx context.Context, id string, updates map[string]interface{}) error
	ListByDepositor(ctx context.Context, depositor string, limit, offset int, status TxStatus) ([]Transaction, int64, error)
	CountByStatusSince(ctx context.Context, sinceMs int64) (map[TxStatus]int64, error)

	ListSteps(ctx context.Context, txID string) ([]MixingStep, error)
	UpdateStep(ctx context.Context, txID, name string, updates map[string]interface{}) error

	UpsertUser(ctx context.Context, address string) error
}

package domain

import "time"

type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in-progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusFailed     StepStatus = "failed"
)

// MixingStep 流水线中的一个阶段。主键自增即天然的步骤顺序。
type MixingStep struct {
	ID            int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	TransactionID string     `json:"-" gorm:"column:transaction_id;size:64;index"`
	Name          string     `json:"name" gorm:"column:step_name;size:32"`
	Description   string     `json:"description" gorm:"column:step_description;size:128"`
	Status        StepStatus `json:"status" gorm:"size:16;default:pending"`
	Progress      int        `json:"progress"`
	StartedAt     *int64     `json:"startedAt"`
	CompletedAt   *int64     `json:"completedAt"`
	Error         *string    `json:"error" gorm:"size:512"`
}

func (MixingStep) TableName() string { return "mixing_steps" }

// StepSpec 流水线阶段的静态定义
type StepSpec struct {
	Name        string
	Description string
	Duration    time.Duration // 模拟耗时；deposit 为 0，创建后立刻确认
	Increment   int           // 完成后整体进度的增量
}

// Pipeline 固定七步，顺序即执行顺序。
// 注意增量总和是 110（历史口径），整体进度在写入时钳位到 100。
func Pipeline() []StepSpec {
	return []StepSpec{
		{Name: "deposit", Description: "Processing deposit on Starknet", Duration: 0, Increment: 10},
		{Name: "swap", Description: "Swapping to Bitcoin", Duration: 2 * time.Second, Increment: 15},
		{Name: "lightning", Description: "Creating Lightning payment", Duration: 3 * time.Second, Increment: 20},
		{Name: "cashu", Description: "Minting Cashu tokens", Duration: 2 * time.Second, Increment: 15},
		{Name: "mixing", Description: "Applying privacy transformations", Duration: 5 * time.Second, Increment: 25},
		{Name: "redeem", Description: "Redeeming and swapping back", Duration: 3 * time.Second, Increment: 20},
		{Name: "withdrawal", Description: "Sending to recipient", Duration: 2 * time.Second, Increment: 5},
	}
}

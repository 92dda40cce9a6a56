package domain

// 推送事件类型。控制类消息（connected/subscribed/...）由 ws 层自己发，
// 这里只列生命周期事件。
const (
	EventTransactionCreated   = "transactionCreated"
	EventTransactionUpdate    = "transactionUpdate"
	EventTransactionCompleted = "transactionCompleted"
	EventTransactionFailed    = "transactionFailed"
	EventTransactionCancelled = "transactionCancelled"
)

// Event 广播信封。Timestamp 由 Broadcaster 在发送时补毫秒时间戳。
type Event struct {
	Type            string   `json:"type"`
	TransactionID   string   `json:"transactionId,omitempty"`
	Status          TxStatus `json:"status,omitempty"`
	Progress        int      `json:"progress,omitempty"`
	Step            string   `json:"step,omitempty"`
	Error           string   `json:"error,omitempty"`
	TransactionHash string   `json:"transactionHash,omitempty"`
	UserAddress     string   `json:"userAddress,omitempty"`
	Timestamp       int64    `json:"timestamp"`
}

// Broadcaster 事件扇出。实现必须对慢观察者非阻塞，
// 单个连接发送失败不影响其他连接。
type Broadcaster interface {
	Broadcast(ev Event)
}

// NopBroadcaster 测试/降级用
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(Event) {}

package ws

// ClientMsg 客户端控制消息
type ClientMsg struct {
	Type          string `json:"type"` // "subscribe" | "unsubscribe" | "ping"
	TransactionID string `json:"transactionId,omitempty"`
}

// ctrlMsg 服务端控制应答（connected/subscribed/unsubscribed/pong）。
// 生命周期事件走 domain.Event，不走这里。
type ctrlMsg struct {
	Type          string `json:"type"`
	Message       string `json:"message,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/internal/mixer/wsmetrics"
	"lnmixer.com/pkg/logger"
)

// Hub 连接注册表 + 事件扇出。
// 广播面向全量连接（订阅只是客户端侧的声明，服务端不按它过滤），
// 对每个 conn 非阻塞投递，慢客户端丢消息不拖垮广播。
type Hub struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*Conn]struct{}, 256)}
}

var _ domain.Broadcaster = (*Hub)(nil)

func (h *Hub) addConn(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	wsmetrics.OnOpen()
}

func (h *Hub) removeConn(c *Conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()
	if ok {
		wsmetrics.OnClose()
	}
}

// Broadcast 序列化一次，所有连接共享同一份 payload
func (h *Hub) Broadcast(ev domain.Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error(context.Background(), "marshal ws event failed",
			zap.String("type", ev.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if !c.offer(payload) {
			wsmetrics.DroppedTotal.WithLabelValues("slow_client").Inc()
		}
	}
	wsmetrics.EventsTotal.WithLabelValues(ev.Type).Inc()
}

// ConnCount 当前在线连接数，health 用
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

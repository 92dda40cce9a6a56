package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"lnmixer.com/internal/mixer/wsmetrics"
	"lnmixer.com/pkg/logger"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	readLimit  = 1 << 10
	sendBuf    = 64 // 每连接发送队列；打满即丢（慢客户端自己承担）
)

// Conn 单个 websocket 连接。send 有序有界，
// 订阅集只做记录回执，不影响服务端投递。
type Conn struct {
	ws   *websocket.Conn
	hub  *Hub
	send chan []byte

	mu     sync.Mutex
	closed bool
	subs   map[string]struct{} // transactionId -> 已订阅
}

// offer 非阻塞投递；连接已关或队列满返回 false。
// 和 closeSend 共用 c.mu，保证不往已关闭的 chan 写。
func (c *Conn) offer(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Conn) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

type Server struct {
	hub      *Hub
	ctx      context.Context
	upgrader websocket.Upgrader
}

func NewServer(ctx context.Context, h *Hub) *Server {
	return &Server{
		hub: h,
		ctx: ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 混币前端域名不固定，Origin 校验放到网关层做
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(r.Context(), "ws upgrade failed", zap.Error(err))
		return
	}

	c := &Conn{
		ws:   wsConn,
		hub:  s.hub,
		send: make(chan []byte, sendBuf),
		subs: make(map[string]struct{}, 4),
	}
	s.hub.addConn(c)

	// 握手即发欢迎包
	c.control(ctrlMsg{Type: "connected", Message: "Connected to mixer updates"})

	go s.writePump(c)
	go s.readPump(c)
}

// control 控制应答也走 send 队列，和事件流保持同序
func (c *Conn) control(msg ctrlMsg) {
	msg.Timestamp = time.Now().UnixMilli()
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.offer(b)
}

func (s *Server) readPump(c *Conn) {
	defer func() {
		s.hub.removeConn(c)
		c.closeSend()
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug(s.ctx, "ws read error", zap.Error(err))
			}
			return
		}

		var msg ClientMsg
		if json.Unmarshal(b, &msg) != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			if msg.TransactionID == "" {
				continue
			}
			c.mu.Lock()
			c.subs[msg.TransactionID] = struct{}{}
			c.mu.Unlock()
			wsmetrics.SubOpsTotal.WithLabelValues("subscribe").Inc()
			c.control(ctrlMsg{Type: "subscribed", TransactionID: msg.TransactionID})
		case "unsubscribe":
			if msg.TransactionID == "" {
				continue
			}
			c.mu.Lock()
			delete(c.subs, msg.TransactionID)
			c.mu.Unlock()
			wsmetrics.SubOpsTotal.WithLabelValues("unsubscribe").Inc()
			c.control(ctrlMsg{Type: "unsubscribed", TransactionID: msg.TransactionID})
		case "ping":
			c.control(ctrlMsg{Type: "pong"})
		}
	}
}

func (s *Server) writePump(c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				wsmetrics.WriteErrorsTotal.Inc()
				return
			}
			wsmetrics.MsgsOutTotal.Inc()
			wsmetrics.BytesOutTotal.Add(float64(len(payload)))
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"),
				time.Now().Add(writeWait)); err != nil {
				wsmetrics.PingErrorsTotal.Inc()
				return
			}
			wsmetrics.PingSentTotal.Inc()
		case <-s.ctx.Done():
			return
		}
	}
}

package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/internal/mixer/ws"
	"lnmixer.com/pkg/common"
)

type Health struct {
	hub      *ws.Hub
	invoices domain.InvoiceIssuer
	mint     domain.Mint
	swap     domain.SwapProvider
	started  time.Time
}

func NewHealth(hub *ws.Hub, invoices domain.InvoiceIssuer, mint domain.Mint, swap domain.SwapProvider) *Health {
	return &Health{
		hub:      hub,
		invoices: invoices,
		mint:     mint,
		swap:     swap,
		started:  time.Now(),
	}
}

// Check GET /health
// 集成探活都是模拟件，这里主要给负载均衡器一个 200
func (h *Health) Check(c *gin.Context) {
	ctx := c.Request.Context()
	common.Success(c, gin.H{
		"status":        "ok",
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
		"wsConnections": h.hub.ConnCount(),
		"integrations": gin.H{
			"lightning": h.invoices.CheckConnectivity(ctx),
			"cashu":     h.mint.CheckAvailability(ctx),
			"atomiq":    h.swap.CheckAvailability(ctx),
		},
	})
}

package handler

import (
	"github.com/gin-gonic/gin"
	"lnmixer.com/internal/mixer/service"
	"lnmixer.com/pkg/common"
)

type Transaction struct {
	svc *service.MixService
}

func NewTransaction(svc *service.MixService) *Transaction {
	return &Transaction{svc: svc}
}

// Get GET /api/transactions/:transactionId
func (h *Transaction) Get(c *gin.Context) {
	tx, steps, err := h.svc.GetDetail(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		failOp(c, err)
		return
	}
	common.Success(c, gin.H{
		"transaction": tx,
		"steps":       steps,
	})
}

// Steps GET /api/transactions/:transactionId/steps
func (h *Transaction) Steps(c *gin.Context) {
	steps, err := h.svc.GetSteps(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		failOp(c, err)
		return
	}
	common.Success(c, gin.H{"steps": steps})
}

// Retry POST /api/transactions/:transactionId/retry
// body 可选 {"step":"cashu"}，指定时该 step 重置回 pending 重跑
func (h *Transaction) Retry(c *gin.Context) {
	var body struct {
		Step string `json:"step"`
	}
	_ = c.ShouldBindJSON(&body) // body 可为空

	txID := c.Param("transactionId")
	if err := h.svc.Retry(c.Request.Context(), txID, body.Step); err != nil {
		failOp(c, err)
		return
	}
	common.SuccessMsg(c, "Transaction retry initiated", gin.H{"transactionId": txID})
}

// Delete DELETE /api/transactions/:transactionId
func (h *Transaction) Delete(c *gin.Context) {
	txID := c.Param("transactionId")
	if err := h.svc.Delete(c.Request.Context(), txID); err != nil {
		failOp(c, err)
		return
	}
	common.SuccessMsg(c, "Transaction deleted successfully", gin.H{"transactionId": txID})
}

// Stats GET /api/transactions/stats?period=24h
func (h *Transaction) Stats(c *gin.Context) {
	stats, err := h.svc.GetStats(c.Request.Context(), c.Query("period"))
	if err != nil {
		failOp(c, err)
		return
	}
	common.Success(c, stats)
}

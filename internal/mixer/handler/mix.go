package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/internal/mixer/service"
	"lnmixer.com/pkg/common"
	"lnmixer.com/pkg/xerr"
	"lnmixer.com/pkg/xredis"
)

type Mix struct {
	svc  *service.MixService
	idem *xredis.Idempotency
}

func NewMix(svc *service.MixService, idem *xredis.Idempotency) *Mix {
	return &Mix{svc: svc, idem: idem}
}

// Deposit POST /api/mix/deposit
// 带 X-Request-Id 时做一次 SETNX 去重，重复提交直接 409
func (h *Mix) Deposit(c *gin.Context) {
	var in service.DepositInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.Fail(c, xerr.New(xerr.RequestParamsError, "Missing required fields"))
		return
	}

	if reqID := c.GetHeader(common.HeaderRequestID); reqID != "" {
		if !h.idem.FirstSeen(c.Request.Context(), reqID) {
			common.Fail(c, xerr.New(xerr.Conflict, "Duplicate request"))
			return
		}
	}

	out, err := h.svc.Initiate(c.Request.Context(), &in)
	if err != nil {
		failOp(c, err)
		return
	}
	common.Success(c, out)
}

// Status GET /api/mix/status/:transactionId
func (h *Mix) Status(c *gin.Context) {
	snap, err := h.svc.GetStatus(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		failOp(c, err)
		return
	}
	common.Success(c, snap)
}

// History GET /api/mix/history?userAddress=&limit=&offset=&status=
func (h *Mix) History(c *gin.Context) {
	var q struct {
		UserAddress string          `form:"userAddress"`
		Limit       int             `form:"limit"`
		Offset      int             `form:"offset"`
		Status      domain.TxStatus `form:"status"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		common.Fail(c, xerr.New(xerr.RequestParamsError, "Invalid query parameters"))
		return
	}

	page, err := h.svc.ListHistory(c.Request.Context(), q.UserAddress, q.Limit, q.Offset, q.Status)
	if err != nil {
		failOp(c, err)
		return
	}
	common.Success(c, page)
}

// Cancel POST /api/mix/cancel/:transactionId
func (h *Mix) Cancel(c *gin.Context) {
	txID := c.Param("transactionId")
	if err := h.svc.Cancel(c.Request.Context(), txID); err != nil {
		failOp(c, err)
		return
	}
	common.SuccessMsg(c, "Transaction cancelled successfully", gin.H{"transactionId": txID})
}

// failOp 业务错误统一出口：状态守卫冲突带上 currentStatus
func failOp(c *gin.Context, err error) {
	var conflict *service.StateConflictError
	if errors.As(err, &conflict) {
		common.FailWith(c, xerr.New(xerr.Conflict, conflict.Msg), gin.H{
			"currentStatus": conflict.Current,
		})
		return
	}
	if xerr.Code(err) >= xerr.ServerCommonError {
		common.FailLogged(c, err)
		return
	}
	common.Fail(c, err)
}

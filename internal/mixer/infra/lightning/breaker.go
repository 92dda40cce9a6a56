package lightning

import (
	"context"

	"github.com/sony/gobreaker/v2"
	"lnmixer.com/internal/mixer/domain"
	"lnmixer.com/pkg/ratelimit"
)

const breakerName = "lightning"

// IssuerWithBreaker 给发票调用加熔断：节点连续出错时快速失败，
// 不再把每个请求都拖到超时。
type IssuerWithBreaker struct {
	next     domain.InvoiceIssuer
	breakers *ratelimit.BreakerManager
}

func WithBreaker(next domain.InvoiceIssuer, breakers *ratelimit.BreakerManager) *IssuerWithBreaker {
	return &IssuerWithBreaker{next: next, breakers: breakers}
}

var _ domain.InvoiceIssuer = (*IssuerWithBreaker)(nil)

func (i *IssuerWithBreaker) CreateInvoice(ctx context.Context, amountSat int64, memo string) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := i.breakers.Do(breakerName, func() error {
		var err error
		inv, err = i.next.CreateInvoice(ctx, amountSat, memo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// CheckConnectivity 熔断开着就直接报不健康
func (i *IssuerWithBreaker) CheckConnectivity(ctx context.Context) bool {
	if i.breakers.Get(breakerName).State() == gobreaker.StateOpen {
		return false
	}
	return i.next.CheckConnectivity(ctx)
}

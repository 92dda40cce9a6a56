package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

func TestBreakerTripsOnConsecutiveFailures(t *testing.T) {
	m := NewBreakerManager(Rule{
		TripConsecutiveFailures: 3,
		Timeout:                 time.Minute,
	}, nil)

	boom := errors.New("node down")
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, m.Do("lightning", func() error { return boom }), boom)
	}

	// 熔断打开后快速失败，不再执行 fn
	called := false
	err := m.Do("lightning", func() error { called = true; return nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called)
	assert.Equal(t, gobreaker.StateOpen, m.Get("lightning").State())
}

func TestBreakerIgnoresCallerCancel(t *testing.T) {
	m := NewBreakerManager(Rule{
		TripConsecutiveFailures: 2,
		Timeout:                 time.Minute,
	}, nil)

	// 调用方取消不计入失败
	for i := 0; i < 5; i++ {
		_ = m.Do("lightning", func() error { return context.Canceled })
	}
	assert.Equal(t, gobreaker.StateClosed, m.Get("lightning").State())
}

func TestBreakerPerNameIsolation(t *testing.T) {
	m := NewBreakerManager(Rule{TripConsecutiveFailures: 1, Timeout: time.Minute}, nil)

	_ = m.Do("lightning", func() error { return errors.New("x") })
	assert.Equal(t, gobreaker.StateOpen, m.Get("lightning").State())
	assert.Equal(t, gobreaker.StateClosed, m.Get("cashu").State())
}

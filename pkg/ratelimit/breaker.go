package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Rule 单个外部依赖的熔断参数
type Rule struct {
	// Half-Open 状态允许通过的探测请求数
	MaxRequests uint32

	// Closed 状态计数窗口
	Interval time.Duration

	// Open 状态持续时间，到期进入 Half-Open
	Timeout time.Duration

	// 触发熔断条件（两种之一即可）
	TripConsecutiveFailures uint32  // 连续失败阈值
	TripFailureRate         float64 // 失败率阈值（0~1）
	TripMinRequests         uint32  // 失败率计算的最小样本数
}

// BreakerManager 按依赖名维护一组熔断器，懒创建
type BreakerManager struct {
	mu sync.RWMutex
	m  map[string]*gobreaker.CircuitBreaker[struct{}]

	defaultRule Rule
	rules       map[string]Rule
}

func NewBreakerManager(defaultRule Rule, perDep map[string]Rule) *BreakerManager {
	if defaultRule.MaxRequests == 0 {
		defaultRule.MaxRequests = 5
	}
	if defaultRule.Timeout <= 0 {
		defaultRule.Timeout = 3 * time.Second
	}
	if defaultRule.Interval <= 0 {
		defaultRule.Interval = 10 * time.Second
	}
	if defaultRule.TripConsecutiveFailures == 0 && defaultRule.TripFailureRate == 0 {
		defaultRule.TripConsecutiveFailures = 10
	}
	if defaultRule.TripMinRequests == 0 {
		defaultRule.TripMinRequests = 20
	}

	return &BreakerManager{
		m:           make(map[string]*gobreaker.CircuitBreaker[struct{}], 8),
		defaultRule: defaultRule,
		rules:       perDep,
	}
}

func (m *BreakerManager) Get(name string) *gobreaker.CircuitBreaker[struct{}] {
	// 快路径：读锁
	m.mu.RLock()
	cb := m.m[name]
	m.mu.RUnlock()
	if cb != nil {
		return cb
	}

	// 慢路径：创建
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb = m.m[name]; cb != nil {
		return cb
	}

	rule, ok := m.rules[name]
	if !ok {
		rule = m.defaultRule
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: rule.MaxRequests,
		Interval:    rule.Interval,
		Timeout:     rule.Timeout,

		ReadyToTrip: func(c gobreaker.Counts) bool {
			// 1) 连续失败阈值优先
			if rule.TripConsecutiveFailures > 0 && c.ConsecutiveFailures >= rule.TripConsecutiveFailures {
				return true
			}
			// 2) 失败率阈值（适合波动流量）
			if rule.TripFailureRate > 0 && c.Requests >= rule.TripMinRequests {
				failRate := float64(c.TotalFailures) / float64(c.Requests)
				return failRate >= rule.TripFailureRate
			}
			return false
		},

		// 调用方主动取消不代表依赖不健康，不计入熔断失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	cb = gobreaker.NewCircuitBreaker[struct{}](st)
	m.m[name] = cb
	return cb
}

// Do 包一次对外部依赖的调用
func (m *BreakerManager) Do(name string, fn func() error) error {
	_, err := m.Get(name).Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

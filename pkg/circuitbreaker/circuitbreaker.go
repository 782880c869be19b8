// Package circuitbreaker 熔断器
//
// 用于保护非关键依赖（如Redis缓存）：依赖连续失败时直接短路，
// 调用方走降级路径（直接查数据库），而不是每个请求都等待超时。
//
// 状态流转：
//
//	CLOSED --连续失败达到阈值--> OPEN --超过Timeout--> HALF_OPEN
//	HALF_OPEN --探测成功--> CLOSED
//	HALF_OPEN --探测失败--> OPEN
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 关闭：正常放行
	StateOpen                  // 打开：全部快速失败
	StateHalfOpen              // 半开：放行有限的探测请求
)

// String 状态转字符串（便于日志）
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpenState 熔断器打开时返回
var ErrOpenState = errors.New("circuit breaker is open")

// Config 熔断器配置
type Config struct {
	FailureThreshold uint32        // 连续失败多少次后打开
	Timeout          time.Duration // 打开状态持续多久后进入半开
	HalfOpenRequests uint32        // 半开状态最多放行的探测请求数

	// OnStateChange 状态变化回调（上报指标、打日志），在锁内调用，不要阻塞
	OnStateChange func(name string, from, to State)
}

// CircuitBreaker 基于连续失败计数的熔断器
type CircuitBreaker struct {
	name   string
	cfg    Config
	now    func() time.Time
	mu     sync.Mutex
	state  State
	fails  uint32    // 连续失败次数
	probes uint32    // 半开状态已放行的探测数
	openAt time.Time // 进入OPEN的时间
}

// New 创建熔断器，零值配置使用默认值
func New(name string, cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	return &CircuitBreaker{
		name: name,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Execute 在熔断器保护下执行req
// 熔断器打开时不执行req，直接返回ErrOpenState
// 调用方取消（context.Canceled）不代表下游故障，既不计失败也不计成功
func (cb *CircuitBreaker) Execute(req func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := req()
	if errors.Is(err, context.Canceled) {
		cb.release()
		return err
	}
	cb.record(err == nil)
	return err
}

// State 当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refresh()
	switch cb.state {
	case StateOpen:
		return ErrOpenState
	case StateHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenRequests {
			return ErrOpenState
		}
		cb.probes++
	}
	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if success {
		cb.fails = 0
		if cb.state == StateHalfOpen {
			cb.setState(StateClosed)
		}
		return
	}

	cb.fails++
	switch cb.state {
	case StateClosed:
		if cb.fails >= cb.cfg.FailureThreshold {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
	}
}

// release 归还半开状态占用的探测名额
func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.probes > 0 {
		cb.probes--
	}
}

// refresh OPEN超时后转为HALF_OPEN，调用方需持有锁
func (cb *CircuitBreaker) refresh() {
	if cb.state == StateOpen && cb.now().Sub(cb.openAt) >= cb.cfg.Timeout {
		cb.setState(StateHalfOpen)
	}
}

func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.fails = 0
	cb.probes = 0
	if to == StateOpen {
		cb.openAt = cb.now()
	}
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, from, to)
	}
}

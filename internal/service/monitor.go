package service

import (
	"sync"
	"time"
)

// Monitor 监控服务，统计订单链路的错误与吞吐
type Monitor struct {
	mu sync.RWMutex

	// 错误统计
	DBErrors         int64
	MQErrors         int64
	ValidationErrors int64

	// 业务统计
	OrderRequests int64
	OrdersCreated int64
	BuyerQueries  int64
	SellerQueries int64
	WorkerHandled int64
	WorkerFailed  int64

	// 时间统计
	LastDBError   time.Time
	LastMQError   time.Time
	LastOrderTime time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor 获取全局监控实例
func GetMonitor() *Monitor {
	return globalMonitor
}

// RecordDBError 记录数据库错误
func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

// RecordMQError 记录MQ错误
func (m *Monitor) RecordMQError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MQErrors++
	m.LastMQError = time.Now()
}

// RecordValidationError 记录参数校验失败
func (m *Monitor) RecordValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationErrors++
}

// RecordOrderRequest 记录下单请求
func (m *Monitor) RecordOrderRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderRequests++
	m.LastOrderTime = time.Now()
}

// RecordOrderCreated 记录下单成功
func (m *Monitor) RecordOrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCreated++
}

// RecordBuyerQuery 记录买家订单查询
func (m *Monitor) RecordBuyerQuery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BuyerQueries++
}

// RecordSellerQuery 记录卖家订单查询
func (m *Monitor) RecordSellerQuery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SellerQueries++
}

// RecordWorkerHandled 记录 worker 处理成功
func (m *Monitor) RecordWorkerHandled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerHandled++
}

// RecordWorkerFailed 记录 worker 处理失败
func (m *Monitor) RecordWorkerFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WorkerFailed++
}

// GetStats 获取统计信息
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.OrderRequests > 0 {
		successRate = float64(m.OrdersCreated) / float64(m.OrderRequests) * 100
	}

	return map[string]interface{}{
		"errors": map[string]interface{}{
			"db":         m.DBErrors,
			"mq":         m.MQErrors,
			"validation": m.ValidationErrors,
		},
		"orders": map[string]interface{}{
			"requests":       m.OrderRequests,
			"created":        m.OrdersCreated,
			"success_rate":   successRate,
			"buyer_queries":  m.BuyerQueries,
			"seller_queries": m.SellerQueries,
			"worker_handled": m.WorkerHandled,
			"worker_failed":  m.WorkerFailed,
		},
		"last_events": map[string]interface{}{
			"db_error":   m.LastDBError,
			"mq_error":   m.LastMQError,
			"last_order": m.LastOrderTime,
		},
	}
}

// Reset 重置统计（测试用）
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors = 0
	m.MQErrors = 0
	m.ValidationErrors = 0
	m.OrderRequests = 0
	m.OrdersCreated = 0
	m.BuyerQueries = 0
	m.SellerQueries = 0
	m.WorkerHandled = 0
	m.WorkerFailed = 0
}

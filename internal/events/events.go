package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"ganttboard/pkg/circuitbreaker"
	"ganttboard/pkg/logger"
	"ganttboard/pkg/metrics"
	"ganttboard/pkg/trace"
)

// routing keys
const (
	ProjectCreated = "project.created"
	ProjectUpdated = "project.updated"
	ProjectDeleted = "project.deleted"
	TaskCreated    = "task.created"
	TaskUpdated    = "task.updated"
	TaskDeleted    = "task.deleted"
)

// Payload 是实体变更事件的消息体
type Payload struct {
	ID         int       `json:"id"`
	ProjectID  int       `json:"project_id,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Broker 由 mq.Publisher 实现
type Broker interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Publisher 发布实体变更事件。发布失败只记录日志，不影响请求结果
type Publisher interface {
	Publish(ctx context.Context, routingKey string, id, projectID int)
}

type brokerPublisher struct {
	broker  Broker
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewPublisher breaker 为 nil 时每次都直接调用 broker
func NewPublisher(broker Broker, breaker *circuitbreaker.CircuitBreaker, l *zap.Logger) Publisher {
	return &brokerPublisher{broker: broker, breaker: breaker, logger: l}
}

func (p *brokerPublisher) send(ctx context.Context, routingKey string, payload Payload) error {
	if p.breaker == nil {
		return p.broker.Publish(ctx, routingKey, payload)
	}
	return p.breaker.Execute(func() error {
		return p.broker.Publish(ctx, routingKey, payload)
	})
}

func (p *brokerPublisher) Publish(ctx context.Context, routingKey string, id, projectID int) {
	payload := Payload{
		ID:         id,
		ProjectID:  projectID,
		TraceID:    trace.FromContext(ctx),
		OccurredAt: time.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	err := p.send(pubCtx, routingKey, payload)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		metrics.IncrementEventPublished(routingKey, "skipped")
		return
	}
	if err != nil {
		logger.WithTrace(ctx, p.logger).Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Int("id", id),
			zap.Error(err),
		)
		metrics.IncrementEventPublished(routingKey, "failed")
		return
	}

	metrics.IncrementEventPublished(routingKey, "success")
}

type nopPublisher struct{}

// Nop 在未配置消息队列时使用
func Nop() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, string, int, int) {}

// Recorder 记录发布的事件，用于测试
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	RoutingKey string
	ID         int
	ProjectID  int
}

func (r *Recorder) Publish(_ context.Context, routingKey string, id, projectID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{RoutingKey: routingKey, ID: id, ProjectID: projectID})
}

// Keys 返回已记录事件的 routing key
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		keys = append(keys, e.RoutingKey)
	}
	return keys
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/c360/termgraph/config"
	"github.com/c360/termgraph/metric"
	"github.com/c360/termgraph/natsclient"
	"github.com/c360/termgraph/pkg/worker"
)

// queryTask is one in-flight request moving through the worker pool.
type queryTask struct {
	op  string
	msg *nats.Msg
}

// Service binds the query handler to NATS request/reply subjects.
type Service struct {
	config  config.NATSConfig
	handler *Handler
	client  *natsclient.Client
	pool    *worker.Pool[queryTask]
	limiter *rate.Limiter
	metrics *serviceMetrics
	logger  *slog.Logger

	subscriptions []*nats.Subscription
}

// Deps holds runtime dependencies for the query service.
type Deps struct {
	Config   config.Config
	Handler  *Handler
	Client   *natsclient.Client
	Registry *metric.MetricsRegistry
	Logger   *slog.Logger
}

// New creates the query service.
func New(deps Deps) (*Service, error) {
	if deps.Handler == nil {
		return nil, fmt.Errorf("service requires a handler")
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("service requires a nats client")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if deps.Config.Query.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(deps.Config.Query.RateLimit), deps.Config.Query.RateBurst)
	}

	s := &Service{
		config:  deps.Config.NATS,
		handler: deps.Handler,
		client:  deps.Client,
		limiter: limiter,
		logger:  logger,
	}
	if deps.Registry != nil {
		s.metrics = newServiceMetrics(deps.Registry)
	}

	s.pool = worker.NewPool(
		deps.Config.Query.Workers,
		deps.Config.Query.QueueSize,
		s.process,
	)
	return s, nil
}

// Start subscribes every operation subject and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	if err := s.pool.Start(ctx); err != nil {
		return err
	}

	for _, op := range Operations {
		subject := s.config.SubjectPrefix + "." + op
		sub, err := s.client.QueueSubscribe(subject, s.config.Queue, s.enqueue(op))
		if err != nil {
			return err
		}
		s.subscriptions = append(s.subscriptions, sub)
	}

	s.logger.Info("query service started",
		"subject_prefix", s.config.SubjectPrefix,
		"operations", len(Operations))
	return nil
}

// enqueue admits one message into the worker pool, shedding load when the
// rate limit or the queue is exhausted.
func (s *Service) enqueue(op string) nats.MsgHandler {
	return func(msg *nats.Msg) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.respondError(op, msg, "resource", "rate limit exceeded")
			return
		}
		if err := s.pool.Submit(queryTask{op: op, msg: msg}); err != nil {
			s.respondError(op, msg, "resource", "query queue full")
		}
	}
}

func (s *Service) respondError(op string, msg *nats.Msg, kind, message string) {
	if s.metrics != nil {
		s.metrics.requests.WithLabelValues(op, "rejected").Inc()
	}
	body, _ := json.Marshal(Response{Error: &ErrorBody{Kind: kind, Message: message}})
	if err := msg.Respond(body); err != nil {
		s.logger.Warn("reply failed", "op", op, "error", err)
	}
}

// process executes one task on a pool worker.
func (s *Service) process(ctx context.Context, task queryTask) error {
	requestID := uuid.NewString()
	start := time.Now()

	response := s.handler.Dispatch(ctx, task.op, task.msg.Data)
	elapsed := time.Since(start)

	status := "ok"
	var envelope Response
	if err := json.Unmarshal(response, &envelope); err == nil && envelope.Error != nil {
		status = envelope.Error.Kind
	}

	if s.metrics != nil {
		s.metrics.requests.WithLabelValues(task.op, status).Inc()
		s.metrics.duration.WithLabelValues(task.op).Observe(elapsed.Seconds())
	}
	s.logger.Debug("query handled",
		"request_id", requestID, "op", task.op,
		"status", status, "duration", elapsed)

	if err := task.msg.Respond(response); err != nil {
		s.logger.Warn("reply failed", "request_id", requestID, "op", task.op, "error", err)
		return err
	}
	return nil
}

// Stop drains the worker pool and unsubscribes.
func (s *Service) Stop(timeout time.Duration) error {
	for _, sub := range s.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("unsubscribe failed", "error", err)
		}
	}
	s.subscriptions = nil
	return s.pool.Stop(timeout)
}

// PoolStats reports worker pool counters.
func (s *Service) PoolStats() worker.PoolStats {
	return s.pool.Stats()
}

package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeResumes Exchange = "careerflow.resumes"
	ExchangeEvents  Exchange = "careerflow.events"
	ExchangeDLQ     Exchange = "careerflow.dlq"
)

// Queues — имена очередей.
const (
	QueueResumesPending    Queue = "resumes.pending"
	QueuePipelineProgress  Queue = "pipeline.progress"
	QueuePipelineCompleted Queue = "pipeline.completed"
	QueueDLQResumes        Queue = "dlq.resumes"
)

// Routing keys.
const (
	RoutingKeyPending    RoutingKey = "pending"
	RoutingKeyProgress   RoutingKey = "progress"
	RoutingKeyCompleted  RoutingKey = "completed"
	RoutingKeyDLQResumes RoutingKey = "resumes"
)

// progressMaxLength ограничивает очередь прогресса: старые события
// вытесняются, если их никто не читает.
const progressMaxLength = 10000

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// Topology — полное описание exchanges, queues и bindings.
type Topology struct {
	Exchanges []exchangeDecl
	Queues    []queueDecl
	Bindings  []bindingDecl
}

// DefaultTopology возвращает топологию Careerflow.
func DefaultTopology() Topology {
	return Topology{
		Exchanges: []exchangeDecl{
			{ExchangeResumes, amqp.ExchangeDirect},
			{ExchangeEvents, amqp.ExchangeDirect},
			{ExchangeDLQ, amqp.ExchangeDirect},
		},
		Queues: []queueDecl{
			// resumes.pending — отказы уходят в DLQ
			{QueueResumesPending, amqp.Table{
				"x-dead-letter-exchange":    string(ExchangeDLQ),
				"x-dead-letter-routing-key": string(RoutingKeyDLQResumes),
			}},
			{QueuePipelineProgress, amqp.Table{
				"x-max-length": int32(progressMaxLength),
			}},
			{QueuePipelineCompleted, nil},
			{QueueDLQResumes, nil},
		},
		Bindings: []bindingDecl{
			{QueueResumesPending, RoutingKeyPending, ExchangeResumes},
			{QueuePipelineProgress, RoutingKeyProgress, ExchangeEvents},
			{QueuePipelineCompleted, RoutingKeyCompleted, ExchangeEvents},
			{QueueDLQResumes, RoutingKeyDLQResumes, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет топологию Careerflow. Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return DefaultTopology().Declare(ch)
	})
}

// Declare объявляет exchanges, затем queues, затем bindings.
func (t Topology) Declare(ch *amqp.Channel) error {
	for _, ex := range t.Exchanges {
		// durable, not auto-deleted, not internal
		if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	for _, q := range t.Queues {
		// durable, not auto-deleted, not exclusive
		if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	for _, b := range t.Bindings {
		if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// Validate проверяет, что каждый binding ссылается на объявленные
// exchange и queue, а DLQ-аргументы — на объявленный exchange.
func (t Topology) Validate() error {
	exchanges := make(map[Exchange]bool, len(t.Exchanges))
	for _, ex := range t.Exchanges {
		exchanges[ex.name] = true
	}
	queues := make(map[Queue]bool, len(t.Queues))
	for _, q := range t.Queues {
		queues[q.name] = true
		if dlx, ok := q.args["x-dead-letter-exchange"].(string); ok && !exchanges[Exchange(dlx)] {
			return fmt.Errorf("queue %s: unknown dead letter exchange %s", q.name, dlx)
		}
	}

	for _, b := range t.Bindings {
		if !exchanges[b.exchange] {
			return fmt.Errorf("binding %s: unknown exchange %s", b.queue, b.exchange)
		}
		if !queues[b.queue] {
			return fmt.Errorf("binding %s: unknown queue", b.queue)
		}
	}
	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Careerflow RabbitMQ Topology:

    careerflow.resumes (direct)
    └── resumes.pending [routing: pending]
            Consumer: Worker
            DLQ: dlq.resumes

    careerflow.events (direct)
    ├── pipeline.progress [routing: progress]
    │       Consumer: UI / external subscribers
    └── pipeline.completed [routing: completed]
            Consumer: external subscribers

    careerflow.dlq (direct)
    └── dlq.resumes [routing: resumes]
            Manual processing
  `
}

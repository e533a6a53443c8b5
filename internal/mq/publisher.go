package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Careerflow/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeResumePending     MessageType = "resume.pending"
	MessageTypeTaskProgress      MessageType = "task.progress"
	MessageTypePipelineCompleted MessageType = "pipeline.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт конверт с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ResumePendingPayload — run с резюме ожидает обработки.
type ResumePendingPayload struct {
	RunID uuid.UUID `json:"run_id"`
}

// TaskProgressPayload — задача pipeline начата или завершена.
type TaskProgressPayload struct {
	RunID      uuid.UUID       `json:"run_id"`
	PipelineID uuid.UUID       `json:"pipeline_id"`
	Index      int             `json:"index"`
	Role       string          `json:"role"`
	Status     string          `json:"status"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Progress   domain.Progress `json:"progress"`
}

// PipelineCompletedPayload — итог выполнения run.
type PipelineCompletedPayload struct {
	RunID      uuid.UUID `json:"run_id"`
	Status     string    `json:"status"` // SUCCEEDED или FAILED
	FailedRole string    `json:"failed_role,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// encode сериализует сообщение в AMQP publishing.
func encode(msg *Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
		MessageId:    msg.ID,
		Type:         string(msg.Type),
		Timestamp:    msg.Timestamp,
		Body:         body,
	}, nil
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	pub, err := encode(msg)
	if err != nil {
		return err
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := ch.PublishWithContext(ctx, string(exchange), string(routingKey), false, false, pub); err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishResumePending публикует run, ожидающий обработки.
// Потребитель: Worker.
func (p *Publisher) PublishResumePending(ctx context.Context, runID uuid.UUID) error {
	msg := NewMessage(MessageTypeResumePending, ResumePendingPayload{RunID: runID})
	return p.Publish(ctx, ExchangeResumes, RoutingKeyPending, msg)
}

// PublishTaskProgress публикует событие прогресса задачи.
func (p *Publisher) PublishTaskProgress(ctx context.Context, payload TaskProgressPayload) error {
	msg := NewMessage(MessageTypeTaskProgress, payload)
	return p.Publish(ctx, ExchangeEvents, RoutingKeyProgress, msg)
}

// PublishPipelineCompleted публикует итог выполнения run.
func (p *Publisher) PublishPipelineCompleted(ctx context.Context, payload PipelineCompletedPayload) error {
	msg := NewMessage(MessageTypePipelineCompleted, payload)
	return p.Publish(ctx, ExchangeEvents, RoutingKeyCompleted, msg)
}

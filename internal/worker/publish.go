package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Cuckoo/internal/mq"
)

// TypePublish — тип воркера публикации в RabbitMQ.
const TypePublish = "publish"

// MessagePublisher — то, что нужно воркеру от mq.Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, exchange mq.Exchange, routingKey mq.RoutingKey, msg *mq.Message) error
	IsConnected() bool
}

// PublishWorker — публикует сообщение в RabbitMQ.
//
// Args:
//   - routing_key (string, обязательно)
//   - exchange (string): Default: cuckoo.events
//   - body (any): полезная нагрузка сообщения
type PublishWorker struct {
	Base

	publisher  MessagePublisher
	exchange   mq.Exchange
	routingKey mq.RoutingKey
	body       any

	// requestID попадает в payload; задаётся Registry.Build.
	requestID uuid.UUID
}

// NewPublishWorker создаёт PublishWorker.
func NewPublishWorker(publisher MessagePublisher) *PublishWorker {
	return &PublishWorker{publisher: publisher}
}

// Validate проверяет routing_key и exchange.
func (w *PublishWorker) Validate(args Args) error {
	key, err := args.RequireString("routing_key")
	if err != nil {
		return err
	}
	w.routingKey = mq.RoutingKey(key)
	w.exchange = mq.Exchange(args.String("exchange", string(mq.ExchangeEvents)))
	if w.exchange == "" {
		return fmt.Errorf("'exchange' must not be empty")
	}
	w.body = args["body"]
	return nil
}

// Setup проверяет соединение с брокером до ожидания.
func (w *PublishWorker) Setup(context.Context) error {
	if !w.publisher.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Run публикует сообщение.
func (w *PublishWorker) Run(ctx context.Context) error {
	msg := mq.NewMessage(mq.MessageTypeWorkerMessage, mq.WorkerMessagePayload{
		RequestID: w.requestID,
		Body:      w.body,
	})
	if err := w.publisher.Publish(ctx, w.exchange, w.routingKey, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// SetRequestID задаёт идентификатор запроса для payload.
func (w *PublishWorker) SetRequestID(id uuid.UUID) {
	w.requestID = id
}

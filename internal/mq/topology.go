package mq

import (
	"context"
	"fmt"
	"strings"

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
	ExchangeTriggers Exchange = "cuckoo.triggers"
	ExchangeEvents   Exchange = "cuckoo.events"
	ExchangeDLQ      Exchange = "cuckoo.dlq"
)

// Queues — имена очередей.
const (
	QueueTriggersPending Queue = "triggers.pending"
	QueueDLQTriggers     Queue = "dlq.triggers"
)

// Routing keys.
const (
	RoutingKeyTrigger     RoutingKey = "trigger"
	RoutingKeyDLQTriggers RoutingKey = "triggers"
)

// ExchangeDecl — объявление обменника.
type ExchangeDecl struct {
	Name Exchange
	Kind string
}

// QueueDecl — объявление очереди с привязкой к обменнику.
type QueueDecl struct {
	Name       Queue
	Exchange   Exchange
	RoutingKey RoutingKey

	// DeadLetter — куда уходят отклонённые сообщения; пусто — никуда.
	DeadLetter         Exchange
	DeadLetterRouteKey RoutingKey
}

// Args возвращает аргументы x-dead-letter-* для QueueDeclare.
func (q QueueDecl) Args() amqp.Table {
	if q.DeadLetter == "" {
		return nil
	}
	return amqp.Table{
		"x-dead-letter-exchange":    string(q.DeadLetter),
		"x-dead-letter-routing-key": string(q.DeadLetterRouteKey),
	}
}

// Topology — полный набор объявлений.
type Topology struct {
	Exchanges []ExchangeDecl
	Queues    []QueueDecl
}

// DefaultTopology — топология Cuckoo.
//
// Сообщения worker.message публикуются в cuckoo.events; очереди для них
// объявляют сами потребители.
var DefaultTopology = Topology{
	Exchanges: []ExchangeDecl{
		{ExchangeTriggers, amqp.ExchangeDirect},
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	},
	Queues: []QueueDecl{
		{
			Name:               QueueTriggersPending,
			Exchange:           ExchangeTriggers,
			RoutingKey:         RoutingKeyTrigger,
			DeadLetter:         ExchangeDLQ,
			DeadLetterRouteKey: RoutingKeyDLQTriggers,
		},
		{
			Name:       QueueDLQTriggers,
			Exchange:   ExchangeDLQ,
			RoutingKey: RoutingKeyDLQTriggers,
		},
	},
}

// SetupTopology объявляет DefaultTopology.
// Идемпотентна: повторный вызов с теми же параметрами ничего не меняет.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, DefaultTopology.Declare)
}

// Declare объявляет обменники, затем очереди и привязки.
func (t Topology) Declare(ch *amqp.Channel) error {
	for _, ex := range t.Exchanges {
		err := ch.ExchangeDeclare(
			string(ex.Name), // name
			ex.Kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
		}
	}

	for _, q := range t.Queues {
		if _, err := ch.QueueDeclare(string(q.Name), true, false, false, false, q.Args()); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.Name, err)
		}
		if err := ch.QueueBind(string(q.Name), string(q.RoutingKey), string(q.Exchange), false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", q.Name, q.Exchange, err)
		}
	}

	return nil
}

// String описывает топологию для логов.
func (t Topology) String() string {
	var b strings.Builder
	for _, ex := range t.Exchanges {
		fmt.Fprintf(&b, "%s (%s)\n", ex.Name, ex.Kind)
		for _, q := range t.Queues {
			if q.Exchange != ex.Name {
				continue
			}
			fmt.Fprintf(&b, "  └── %s [routing: %s]", q.Name, q.RoutingKey)
			if q.DeadLetter != "" {
				fmt.Fprintf(&b, " dlq: %s/%s", q.DeadLetter, q.DeadLetterRouteKey)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

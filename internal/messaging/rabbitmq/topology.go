// Package rabbitmq carries pilot domain events over RabbitMQ.
//
// Events are published to a topic exchange. Every consumer owns a main
// queue <name>.queue bound to its routing keys, one <name>.retry.<delay>
// queue per backoff delay where failed deliveries wait before flowing back,
// and <name>.dlq which receives what the consumer gave up on through the
// dead-letter exchange.
package rabbitmq

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
)

const (
	ExchangeEvents = "pilot.events"
	ExchangeDLX    = "pilot.events.dlx"
)

const (
	RoutingKeyProductPublished = "product.published"
	RoutingKeyProductSynced    = "product.synced"
	RoutingKeyCatalogProjected = "catalog.projected"
)

// Consumer names.
const (
	CatalogProjection = "catalog-projection"
	ShopifySync       = "shopify-sync"
)

// Queue arguments.
const (
	argDeadLetterExchange   = "x-dead-letter-exchange"
	argDeadLetterRoutingKey = "x-dead-letter-routing-key"
	argMessageTTL           = "x-message-ttl"
)

// Queues names the queues owned by one consumer.
type Queues struct {
	Main string
	DLQ  string
	// Retry lists the retry queues in attempt order, without duplicates.
	Retry []RetryQueue
}

// RetryQueue holds failed deliveries for TTL, then dead-letters them back to
// the main queue. Every message in it shares the same TTL, so expiry order
// matches arrival order.
type RetryQueue struct {
	Name string
	TTL  time.Duration
}

// RetryQueueName names the retry queue of a consumer for one backoff delay.
// The delay is part of the name so that a changed policy declares new queues
// instead of conflicting with the arguments of existing ones.
func RetryQueueName(consumer string, delay time.Duration) string {
	return fmt.Sprintf("%s.retry.%dms", consumer, delay.Milliseconds())
}

func QueuesFor(consumer string, policy RetryPolicy) Queues {
	q := Queues{
		Main: consumer + ".queue",
		DLQ:  consumer + ".dlq",
	}
	seen := make(map[string]struct{})
	for attempt := 1; !policy.Exhausted(attempt); attempt++ {
		delay := policy.Delay(attempt)
		name := RetryQueueName(consumer, delay)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		q.Retry = append(q.Retry, RetryQueue{Name: name, TTL: delay})
	}
	return q
}

// RoutingKey returns the routing key of an event.
func RoutingKey(ev pilot.Event) string {
	switch ev.(type) {
	case pilot.ProductPublished:
		return RoutingKeyProductPublished
	case pilot.ProductSynced:
		return RoutingKeyProductSynced
	case pilot.CatalogProjected:
		return RoutingKeyCatalogProjected
	default:
		panic(errors.Errorf("unexpected event %T", ev))
	}
}

// Declarer is the part of *amqp.Channel used to declare topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// DeclareExchanges declares the durable event and dead-letter exchanges.
func DeclareExchanges(ch Declarer) error {
	for _, name := range []string{ExchangeDLX, ExchangeEvents} {
		if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			return errors.Wrapf(err, "declare exchange %s", name)
		}
	}
	return nil
}

// DeclareConsumer declares the queues of a consumer and binds its main queue
// to the given routing keys. The main queue dead-letters under the DLQ name,
// so a message rejected by one consumer reaches only that consumer's DLQ.
// Retry queues carry a queue-level TTL and dead-letter into the main queue.
func DeclareConsumer(ch Declarer, consumer string, policy RetryPolicy, routingKeys ...string) (Queues, error) {
	q := QueuesFor(consumer, policy)

	if _, err := ch.QueueDeclare(q.DLQ, true, false, false, false, nil); err != nil {
		return Queues{}, errors.Wrapf(err, "declare queue %s", q.DLQ)
	}
	if err := ch.QueueBind(q.DLQ, q.DLQ, ExchangeDLX, false, nil); err != nil {
		return Queues{}, errors.Wrapf(err, "bind queue %s", q.DLQ)
	}

	for _, r := range q.Retry {
		if _, err := ch.QueueDeclare(r.Name, true, false, false, false, amqp.Table{
			argMessageTTL:           r.TTL.Milliseconds(),
			argDeadLetterExchange:   "",
			argDeadLetterRoutingKey: q.Main,
		}); err != nil {
			return Queues{}, errors.Wrapf(err, "declare queue %s", r.Name)
		}
	}

	if _, err := ch.QueueDeclare(q.Main, true, false, false, false, amqp.Table{
		argDeadLetterExchange:   ExchangeDLX,
		argDeadLetterRoutingKey: q.DLQ,
	}); err != nil {
		return Queues{}, errors.Wrapf(err, "declare queue %s", q.Main)
	}
	for _, key := range routingKeys {
		if err := ch.QueueBind(q.Main, key, ExchangeEvents, false, nil); err != nil {
			return Queues{}, errors.Wrapf(err, "bind queue %s to %s", q.Main, key)
		}
	}
	return q, nil
}

package rabbitmq

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/wire"
)

// PublishChannel is the part of *amqp.Channel used to publish.
type PublishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Compile-time interface check.
var _ pilot.Publisher = (*Publisher)(nil)

// Publisher sends domain events to ExchangeEvents as persistent JSON
// messages.
type Publisher struct {
	ch         PublishChannel
	propagator propagation.TextMapPropagator
}

func NewPublisher(ch PublishChannel, propagator propagation.TextMapPropagator) *Publisher {
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	return &Publisher{ch: ch, propagator: propagator}
}

// Publish returns *pilot.PublishError when the broker refuses the message.
func (p *Publisher) Publish(ctx context.Context, ev pilot.Event) error {
	md := ev.Meta()
	headers := amqp.Table{
		HeaderEventType:     ev.EventType(),
		HeaderCorrelationID: md.CorrelationID,
		HeaderUserID:        md.UserID,
	}
	p.propagator.Inject(ctx, headerCarrier(headers))

	key := RoutingKey(ev)
	msg := amqp.Publishing{
		Headers:      headers,
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    ev.OccurredAt(),
		Type:         ev.EventType(),
		Body:         wire.EncodeEvent(ev),
	}
	if err := p.ch.PublishWithContext(ctx, ExchangeEvents, key, false, false, msg); err != nil {
		return &pilot.PublishError{EventType: ev.EventType(), Err: err}
	}

	zctx.From(ctx).Debug("Event published",
		zap.String("event_type", ev.EventType()),
		zap.String("routing_key", key),
		zap.String("product_id", ev.AggregateID().String()),
		zap.String("message_id", msg.MessageId),
	)
	return nil
}

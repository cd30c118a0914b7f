package rabbitmq

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pilot-catalog/internal/domain/pilot"
	"github.com/xenking/pilot-catalog/internal/wire"
)

const instrumentationName = "github.com/xenking/pilot-catalog/internal/messaging/rabbitmq"

// Handler processes one decoded event. Errors marked with Permanent are
// dead-lettered at once, other errors are retried.
type Handler func(ctx context.Context, ev pilot.Event) error

// ConsumeChannel is the part of *amqp.Channel used by Consumer.
type ConsumeChannel interface {
	PublishChannel
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
}

type ConsumerOptions struct {
	Prefetch       int
	HandlerTimeout time.Duration
	Retry          RetryPolicy

	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Propagator     propagation.TextMapPropagator
}

// Outcome of a delivery, recorded as a metric attribute.
type outcome string

const (
	outcomeAck        outcome = "ack"
	outcomeRetry      outcome = "retry"
	outcomeDeadLetter outcome = "dead_letter"
	outcomeRequeue    outcome = "requeue"
)

// Consumer reads a consumer's main queue and settles every delivery: ack on
// success, republish to the retry queue of the attempt on transient failure,
// reject to the DLQ on permanent failure or once retries are exhausted.
type Consumer struct {
	ch     ConsumeChannel
	queues Queues
	name   string
	handle Handler
	opts   ConsumerOptions

	tracer    trace.Tracer
	processed metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewConsumer(ch ConsumeChannel, name string, handle Handler, opts ConsumerOptions) (*Consumer, error) {
	if opts.Prefetch <= 0 {
		opts.Prefetch = 10
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}
	if opts.Propagator == nil {
		opts.Propagator = otel.GetTextMapPropagator()
	}

	meter := opts.MeterProvider.Meter(instrumentationName)
	processed, err := meter.Int64Counter("pilot.consumer.messages",
		metric.WithDescription("Deliveries settled by consumer and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create processed counter")
	}
	duration, err := meter.Float64Histogram("pilot.consumer.duration",
		metric.WithDescription("Handler duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create duration histogram")
	}

	return &Consumer{
		ch:        ch,
		queues:    QueuesFor(name, opts.Retry),
		name:      name,
		handle:    handle,
		opts:      opts,
		tracer:    opts.TracerProvider.Tracer(instrumentationName),
		processed: processed,
		duration:  duration,
	}, nil
}

// Run consumes until ctx is done or the delivery channel closes. At most
// Prefetch deliveries are handled concurrently. On shutdown the broker
// subscription is cancelled first, then in-flight deliveries finish.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(c.opts.Prefetch, 0, false); err != nil {
		return errors.Wrap(err, "set qos")
	}
	deliveries, err := c.ch.Consume(c.queues.Main, c.name, false, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "consume %s", c.queues.Main)
	}

	lg := c.opts.Logger.With(zap.String("consumer", c.name), zap.String("queue", c.queues.Main))
	lg.Info("Consumer started", zap.Int("prefetch", c.opts.Prefetch))

	// Handlers outlive ctx cancellation so that acks are not lost mid-flight.
	work := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(c.opts.Prefetch)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			// Unacked prefetched deliveries are requeued by the broker once
			// the channel closes.
			if err := c.ch.Cancel(c.name, false); err != nil {
				lg.Warn("Cancel consumer failed", zap.Error(err))
			}
			break loop
		case d, ok := <-deliveries:
			if !ok {
				runErr = errors.Errorf("delivery channel of %s closed", c.queues.Main)
				break loop
			}
			g.Go(func() error {
				c.process(work, lg, d)
				return nil
			})
		}
	}

	_ = g.Wait()
	lg.Info("Consumer stopped")
	return runErr
}

func (c *Consumer) process(ctx context.Context, lg *zap.Logger, d amqp.Delivery) {
	attempt := retryCount(d.Headers) + 1

	ctx = c.opts.Propagator.Extract(ctx, headerCarrier(d.Headers))
	ctx, span := c.tracer.Start(ctx, c.queues.Main+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", c.queues.Main),
			attribute.String("messaging.message.id", d.MessageId),
			attribute.Int("messaging.rabbitmq.attempt", attempt),
		),
	)
	defer span.End()

	lg = lg.With(
		zap.String("message_id", d.MessageId),
		zap.String("event_type", headerString(d.Headers, HeaderEventType)),
		zap.String("correlation_id", headerString(d.Headers, HeaderCorrelationID)),
		zap.Int("attempt", attempt),
	)
	ctx = zctx.Base(ctx, lg)

	start := time.Now()
	err := c.dispatch(ctx, d.Body)
	c.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("consumer", c.name)))

	var result outcome
	switch {
	case err == nil:
		result = c.ack(lg, d)
	case IsPermanent(err):
		lg.Error("Message rejected", zap.Error(err))
		result = c.deadLetter(lg, d)
	case c.opts.Retry.Exhausted(attempt):
		lg.Error("Retries exhausted", zap.Error(err))
		result = c.deadLetter(lg, d)
	default:
		lg.Warn("Message failed, scheduling retry", zap.Error(err))
		result = c.retry(ctx, lg, d, attempt)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("messaging.rabbitmq.outcome", string(result)))
	c.processed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("consumer", c.name),
		attribute.String("outcome", string(result)),
	))
}

func (c *Consumer) dispatch(ctx context.Context, body []byte) error {
	ev, err := wire.DecodeEvent(body)
	if err != nil {
		return Permanent(errors.Wrap(err, "decode message"))
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.HandlerTimeout)
	defer cancel()
	return c.handle(ctx, ev)
}

func (c *Consumer) ack(lg *zap.Logger, d amqp.Delivery) outcome {
	if err := d.Ack(false); err != nil {
		lg.Error("Ack failed", zap.Error(err))
	}
	return outcomeAck
}

func (c *Consumer) deadLetter(lg *zap.Logger, d amqp.Delivery) outcome {
	if err := d.Nack(false, false); err != nil {
		lg.Error("Nack failed", zap.Error(err))
	}
	return outcomeDeadLetter
}

// retry republishes the message to the retry queue matching the backoff of
// the attempt. On expiry the broker dead-letters it back to the main queue.
func (c *Consumer) retry(ctx context.Context, lg *zap.Logger, d amqp.Delivery, attempt int) outcome {
	delay := c.opts.Retry.Delay(attempt)
	queue := RetryQueueName(c.name, delay)
	headers := copyHeaders(d.Headers)
	headers[HeaderRetryCount] = int32(attempt)

	msg := amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    d.Timestamp,
		Type:         d.Type,
		Body:         d.Body,
	}
	if err := c.ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		lg.Error("Retry publish failed, requeueing", zap.Error(err))
		if err := d.Nack(false, true); err != nil {
			lg.Error("Nack failed", zap.Error(err))
		}
		return outcomeRequeue
	}

	lg.Info("Retry scheduled", zap.String("retry_queue", queue), zap.Duration("delay", delay))
	return c.ack(lg, d)
}

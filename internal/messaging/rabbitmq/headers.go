package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message headers.
const (
	HeaderEventType     = "eventType"
	HeaderCorrelationID = "correlationId"
	HeaderUserID        = "userId"
	HeaderRetryCount    = "x-retry-count"
)

const contentTypeJSON = "application/json"

// headerCarrier adapts message headers for otel propagation.
type headerCarrier amqp.Table

func (c headerCarrier) Get(key string) string {
	s, _ := c[key].(string)
	return s
}

func (c headerCarrier) Set(key, value string) { c[key] = value }

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

func headerString(h amqp.Table, key string) string {
	s, _ := h[key].(string)
	return s
}

// retryCount reads HeaderRetryCount whatever integer type the broker
// decoded it as.
func retryCount(h amqp.Table) int {
	switch v := h[HeaderRetryCount].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	default:
		return 0
	}
}

func copyHeaders(h amqp.Table) amqp.Table {
	out := make(amqp.Table, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	return out
}

package rabbitmq

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Dial opens a connection named after the running binary.
func Dial(url, name string) (*amqp.Connection, error) {
	cfg := amqp.Config{
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Properties: amqp.NewConnectionProperties(),
	}
	cfg.Properties.SetClientConnectionName(name)
	conn, err := amqp.DialConfig(url, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	return conn, nil
}

// Ping returns a health check reporting a closed connection.
func Ping(conn *amqp.Connection) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if conn.IsClosed() {
			return errors.New("rabbitmq connection closed")
		}
		return nil
	}
}

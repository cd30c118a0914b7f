package rabbitmq

import (
	"math"
	"time"

	"github.com/go-faster/errors"
)

// RetryPolicy bounds redelivery of failed messages with exponential backoff.
type RetryPolicy struct {
	MaxAttempts  int           `default:"3"`
	InitialDelay time.Duration `default:"1s"`
	Multiplier   float64       `default:"5"`
}

// DefaultRetryPolicy waits 1s then 5s before the third and last attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: time.Second, Multiplier: 5}
}

// Delay returns the wait before the attempt following the given one.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
}

// Exhausted reports whether no attempt remains after the given one.
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying: the message goes straight to
// the dead-letter queue.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

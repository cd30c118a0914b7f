// Package wire encodes pilot and catalog values as JSON for HTTP bodies and
// broker messages.
package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse time")
	}
	return t, nil
}

// decodeOptStr reads a string, treating null as empty.
func decodeOptStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodeOptInt reads an integer, returning nil for null.
func decodeOptInt(d *jx.Decoder) (*int, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := d.Int()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeOptArr calls f for each element of an array. null is an empty array.
func decodeOptArr(d *jx.Decoder, f func(d *jx.Decoder) error) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Arr(f)
}

// decodeOptObj calls f for each field of an object. It reports false for null.
func decodeOptObj(d *jx.Decoder, f func(d *jx.Decoder, key string) error) (bool, error) {
	if d.Next() == jx.Null {
		return false, d.Null()
	}
	return true, d.Obj(f)
}

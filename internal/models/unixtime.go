package models

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// UnixTime is a time that travels as epoch seconds with a fractional
// part. The zero time encodes as 0.
type UnixTime struct {
	time.Time
}

// Stamp wraps t.
func Stamp(t time.Time) UnixTime {
	return UnixTime{Time: t}
}

// Seconds returns t as fractional epoch seconds, 0 for the zero time.
func (t UnixTime) Seconds() float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}

func (t UnixTime) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, t.Seconds(), 'f', -1, 64), nil
}

func (t *UnixTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("unix time %s: %w", data, err)
	}
	if secs == 0 {
		t.Time = time.Time{}
		return nil
	}
	whole := int64(secs)
	t.Time = time.Unix(whole, int64((secs-float64(whole))*1e9))
	return nil
}

package codec

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Timestamp is a UTC instant serialized as (possibly fractional) seconds since
// 1970-01-01. Precision is one microsecond.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to microseconds and converts it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// Seconds returns the instant as seconds since the epoch.
func (t Timestamp) Seconds() float64 {
	return float64(t.UnixMicro()) / 1e6
}

func fromSeconds(s float64) (Timestamp, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return Timestamp{}, fmt.Errorf("invalid timestamp %v", s)
	}
	return Timestamp{Time: time.UnixMicro(int64(math.Round(s * 1e6))).UTC()}, nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return t.MarshalText()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	return t.UnmarshalText(data)
}

func (t Timestamp) MarshalText() ([]byte, error) {
	return strconv.AppendFloat(nil, t.Seconds(), 'f', -1, 64), nil
}

func (t *Timestamp) UnmarshalText(data []byte) error {
	s, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := fromSeconds(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalPlist() (any, error) {
	return t.Seconds(), nil
}

func (t *Timestamp) UnmarshalPlist(unmarshal func(any) error) error {
	var s float64
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := fromSeconds(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Package clock isolates timestamp generation so data and migration code
// can be tested against a fixed time source.
package clock

import "time"

// Clock produces the two timestamp forms the data layer persists:
// ISO-8601 strings on entities and epoch milliseconds for TTL math.
type Clock interface {
	Now() time.Time
	NowISO() string
	NowMillis() int64
}

type systemClock struct{}

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func (systemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// Fixed is a Clock pinned to a single instant. Tests advance it by
// replacing T.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

func (f *Fixed) NowISO() string {
	return f.T.UTC().Format("2006-01-02T15:04:05.000Z")
}

func (f *Fixed) NowMillis() int64 { return f.T.UnixMilli() }

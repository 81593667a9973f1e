package clock

import "time"

// Clock is the time source for anything that stamps or expires records.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

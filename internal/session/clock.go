package session

import "time"

// Clock abstracts wall-clock time so grace windows can be tested without waiting.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

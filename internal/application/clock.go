package application

import "time"

// Clock abstraction so time can be fixed in tests
type Clock interface {
	Now() time.Time
}

// SystemClock default implementation, backed by time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

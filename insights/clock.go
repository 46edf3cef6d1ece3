// ABOUTME: Reference time sources for the insights service
// ABOUTME: SystemClock reads the wall clock; FixedClock pins time for demos and tests
package insights

import "time"

// Clock is the single source of "now" for every scoring call.
type Clock interface {
	Now() time.Time
}

type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

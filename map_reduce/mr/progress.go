package mr

import (
	"sync"
	"time"
)

// Immediate resumes synchronously.
func Immediate(phase Phase, fraction float64, resume func()) {
	resume()
}

// Breathe returns a ProgressFunc that resumes after d.
func Breathe(d time.Duration) ProgressFunc {
	return func(phase Phase, fraction float64, resume func()) {
		time.AfterFunc(d, resume)
	}
}

//
// Throttle returns a ProgressFunc that calls report at most once per
// limit. A reporting yield resumes after breathe; every other yield
// resumes on a fresh timer right away.
//
func Throttle(limit, breathe time.Duration, report func(phase Phase, fraction float64)) ProgressFunc {
	var mu sync.Mutex
	last := time.Now()
	return func(phase Phase, fraction float64, resume func()) {
		mu.Lock()
		now := time.Now()
		due := now.Sub(last) > limit
		if due {
			last = now
		}
		mu.Unlock()
		if due {
			report(phase, fraction)
			time.AfterFunc(breathe, resume)
			return
		}
		time.AfterFunc(0, resume)
	}
}

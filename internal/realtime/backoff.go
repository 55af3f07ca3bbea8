package realtime

import "time"

// RetryPolicy spaces out transport reconnects: Base doubles per failed
// attempt up to Cap.
type RetryPolicy struct {
	Base time.Duration
	Cap  time.Duration
}

var defaultRetry = RetryPolicy{Base: time.Second, Cap: 30 * time.Second}

// NextDelay is the wait before reconnect attempt n, counting from 1.
func (r RetryPolicy) NextDelay(n int) time.Duration {
	d := r.Base
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < n; i++ {
		if r.Cap > 0 && d >= r.Cap {
			break
		}
		d *= 2
	}
	if r.Cap > 0 && d > r.Cap {
		return r.Cap
	}
	return d
}

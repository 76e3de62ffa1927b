package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles the readiness gate. The API flips it off before draining
// connections so load balancers stop routing new traffic during shutdown.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the current state of the readiness gate.
func IsReady() bool {
	return ready.Load()
}

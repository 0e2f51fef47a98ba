package engine

import "time"

// retryDelay is the fixed pause before Init re-runs, spec §4.7.
const retryDelay = 250 * time.Millisecond

// retry is the single place that evaluates the deadline (spec §7). If the
// deadline has not passed, it resets to Init/Void and schedules a
// retryDelay timeout — Init's TIMEOUT reaction re-validates Config and
// re-dispatches the task, which is idempotent. Otherwise it shuts down
// with errDeadlineExceeded (invariant 6, spec §8).
func (e *Engine) retry() {
	if e.Platform.Now().Before(e.maxTime) {
		e.Platform.ClearTimeout()
		e.setState(StateInit, stateInit)
		e.substateID = SubVoid
		e.Platform.SetTimeout(retryDelay)
		return
	}
	e.shutdown(errDeadlineExceeded)
}

// Package poll provides the bounded busy-wait used throughout the firmware
// model. The original chip spins on status bits with no budget; every wait
// in this codebase goes through a bounded variant instead, with the
// unbounded form reserved for the compatibility paths that real hardware
// progress guarantees.
package poll

import "errors"

// ErrTimeout reports that a bounded wait exhausted its poll budget. A stuck
// error condition is indistinguishable from busy at the register level, so
// this is the only way such errors surface.
var ErrTimeout = errors.New("poll budget exhausted")

// Until re-evaluates cond up to maxPolls times and returns nil as soon as
// cond holds. It returns ErrTimeout if the budget is exhausted first.
func Until(maxPolls int, cond func() bool) error {
	for i := 0; i < maxPolls; i++ {
		if cond() {
			return nil
		}
	}
	return ErrTimeout
}

// While re-evaluates cond up to maxPolls times and returns nil as soon as
// cond stops holding.
func While(maxPolls int, cond func() bool) error {
	return Until(maxPolls, func() bool { return !cond() })
}

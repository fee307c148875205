package sim

import (
	"log"
	"reflect"
)

// MockEngine is created to simplify the unit tests of other packages. It
// records scheduled events instead of delivering them, and can run them one
// at a time under test control.
type MockEngine struct {
	HookableBase

	now             VTimeInSec
	ScheduledEvents []Event
	expectedEvents  []Event
}

// NewMockEngine returns a new mock engine.
func NewMockEngine() *MockEngine {
	e := new(MockEngine)
	e.ScheduledEvents = make([]Event, 0)
	e.expectedEvents = make([]Event, 0)
	return e
}

// ExpectSchedule registers an event that is expected to be scheduled later.
func (e *MockEngine) ExpectSchedule(evt Event) {
	e.expectedEvents = append(e.expectedEvents, evt)
}

// Schedule records the scheduled event. If expectations are registered, the
// event must match one of them.
func (e *MockEngine) Schedule(evt Event) {
	e.ScheduledEvents = append(e.ScheduledEvents, evt)

	if len(e.expectedEvents) == 0 {
		return
	}

	for i, expected := range e.expectedEvents {
		if reflect.DeepEqual(expected, evt) {
			e.expectedEvents = append(e.expectedEvents[:i],
				e.expectedEvents[i+1:]...)
			return
		}
	}
	log.Panicf("event %+v is not expected to be scheduled", evt)
}

// AllExpectedScheduled returns true if all the expected events are actually
// scheduled.
func (e *MockEngine) AllExpectedScheduled() bool {
	return len(e.expectedEvents) == 0
}

// RunNext delivers the earliest recorded event to its handler, advancing the
// mock time. It returns false if no event is pending.
func (e *MockEngine) RunNext() bool {
	if len(e.ScheduledEvents) == 0 {
		return false
	}

	earliest := 0
	for i, evt := range e.ScheduledEvents {
		if evt.Time() < e.ScheduledEvents[earliest].Time() {
			earliest = i
		}
	}

	evt := e.ScheduledEvents[earliest]
	e.ScheduledEvents = append(e.ScheduledEvents[:earliest],
		e.ScheduledEvents[earliest+1:]...)

	e.now = evt.Time()
	_ = evt.Handler().Handle(evt)

	return true
}

// SetTime moves the mock engine's current time.
func (e *MockEngine) SetTime(t VTimeInSec) {
	e.now = t
}

// CurrentTime returns the mock engine's current time.
func (e *MockEngine) CurrentTime() VTimeInSec {
	return e.now
}

// Run is not supported by the MockEngine.
func (e *MockEngine) Run() error {
	return nil
}

// Pause does nothing on a MockEngine.
func (e *MockEngine) Pause() {}

// Continue does nothing on a MockEngine.
func (e *MockEngine) Continue() {}

// RegisterSimulationEndHandler does nothing on a MockEngine.
func (e *MockEngine) RegisterSimulationEndHandler(_ SimulationEndHandler) {}

// Finished does nothing on a MockEngine.
func (e *MockEngine) Finished() {}

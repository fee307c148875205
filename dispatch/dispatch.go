// Package dispatch is the periodic event dispatcher, the replacement for
// the chip's timer interrupt service routine. Each tick samples a small set
// of interrupt-status registers and fans out to independent handlers; no
// check short-circuits another, and every serviced flag gets its documented
// acknowledge write so it does not re-fire on the next tick. Handlers are
// capability interfaces chosen at construction, never numeric jump targets.
package dispatch

import "github.com/MochiBaga/asm2464pd-firmware/regfile"

// IdleTimeoutHandler services a host-inactivity timeout.
type IdleTimeoutHandler interface {
	HandleIdleTimeout()
}

// ExecStatusHandler services the CPU-execution-status event.
type ExecStatusHandler interface {
	HandleExecStatus()
}

// DebugOutputHandler services the debug-output-due flag.
type DebugOutputHandler interface {
	HandleDebugOutput()
}

// AsyncEventHandler services a peripheral-bus asynchronous event.
type AsyncEventHandler interface {
	HandleAsyncEvent()
}

// LinkEventHandler services a link state change.
type LinkEventHandler interface {
	HandleLinkEvent()
}

// CompletionHandler services a pending command completion.
type CompletionHandler interface {
	HandleCompletion()
}

// ErrorHandler services the error-code nibble.
type ErrorHandler interface {
	HandleError(code byte)
}

// SystemEventHandler services the general system event.
type SystemEventHandler interface {
	HandleSystemEvent()
}

// Dispatcher performs the ordered flag checks of one tick. It holds no
// state of its own beyond its handler references; all observed state lives
// in the register file.
type Dispatcher struct {
	regs *regfile.File

	idleTimeout IdleTimeoutHandler
	execStatus  ExecStatusHandler
	debugOutput DebugOutputHandler
	asyncEvent  AsyncEventHandler
	linkEvent   LinkEventHandler
	completion  CompletionHandler
	errorEvent  ErrorHandler
	systemEvent SystemEventHandler
}

// Tick performs one dispatcher pass. It returns true if any flag was
// serviced, which keeps the ticking component scheduling further passes
// while events are in flight.
func (d *Dispatcher) Tick() bool {
	progress := false

	if d.regs.BitSet(regfile.RegIntSystem, regfile.IntSystemIdleTimeout) {
		if d.idleTimeout != nil {
			d.idleTimeout.HandleIdleTimeout()
		}
		d.regs.ClearBits(regfile.RegIntSystem, regfile.IntSystemIdleTimeout)
		progress = true
	}

	if d.regs.BitSet(regfile.RegCPUExecStatus, regfile.ExecStatusEvent) {
		// Acknowledge with the fixed sentinel first, then run the
		// secondary handler.
		d.regs.Write8(regfile.RegCPUExecStatus, regfile.ExecStatusAck)
		d.regs.ClearBits(regfile.RegCPUExecStatus, regfile.ExecStatusEvent)
		if d.execStatus != nil {
			d.execStatus.HandleExecStatus()
		}
		progress = true
	}

	if d.regs.BitSet(regfile.RegIntPCIe, regfile.IntPCIeDebugDue) {
		d.regs.ClearBits(regfile.RegIntPCIe, regfile.IntPCIeDebugDue)
		if d.debugOutput != nil {
			d.debugOutput.HandleDebugOutput()
		}
		progress = true
	}

	if d.regs.Read8(regfile.RegEventGate)&regfile.EventGateMask != 0 {
		progress = d.nestedChecks() || progress
	}

	if code := d.regs.Read8(regfile.RegIntPCIe) & regfile.IntPCIeErrorMask; code != 0 {
		if d.errorEvent != nil {
			d.errorEvent.HandleError(code)
		}
		d.regs.ClearBits(regfile.RegIntPCIe, regfile.IntPCIeErrorMask)
		progress = true
	}

	if d.regs.BitSet(regfile.RegIntSystem, regfile.IntSystemEvent) {
		if d.systemEvent != nil {
			d.systemEvent.HandleSystemEvent()
		}
		d.regs.ClearBits(regfile.RegIntSystem, regfile.IntSystemEvent)
		progress = true
	}

	return progress
}

// nestedChecks runs the gated peripheral-bus checks: async event, link
// event, completion pending.
func (d *Dispatcher) nestedChecks() bool {
	progress := false

	if d.regs.BitSet(regfile.RegIntPCIe, regfile.IntPCIeAsyncEvent) {
		d.regs.ClearBits(regfile.RegIntPCIe, regfile.IntPCIeAsyncEvent)
		if d.asyncEvent != nil {
			d.asyncEvent.HandleAsyncEvent()
		}
		progress = true
	}

	if d.regs.BitSet(regfile.RegIntPCIe, regfile.IntPCIeLinkEvent) {
		d.regs.ClearBits(regfile.RegIntPCIe, regfile.IntPCIeLinkEvent)
		if d.linkEvent != nil {
			d.linkEvent.HandleLinkEvent()
		}
		progress = true
	}

	if d.regs.BitSet(regfile.RegNVMeEventStat, regfile.NVMeEventPending) {
		d.regs.Write8(regfile.RegNVMeEventAck, regfile.NVMeEventAckVal)
		d.regs.ClearBits(regfile.RegNVMeEventStat, regfile.NVMeEventPending)

		if d.regs.BitSet(regfile.RegCompletionAux, regfile.CompletionAuxGate) {
			d.regs.ClearBits(regfile.RegNVMeCompanion, regfile.CompanionClear)
		}

		if d.completion != nil {
			d.completion.HandleCompletion()
		}
		progress = true
	}

	return progress
}

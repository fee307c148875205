package dispatch

import "github.com/MochiBaga/asm2464pd-firmware/regfile"

// Builder builds a Dispatcher. Handlers left unset are skipped, but their
// flags are still consumed so a stuck flag never re-fires forever.
type Builder struct {
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

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithRegisters sets the register file the dispatcher samples.
func (b Builder) WithRegisters(regs *regfile.File) Builder {
	b.regs = regs
	return b
}

// WithIdleTimeoutHandler sets the idle-timeout handler.
func (b Builder) WithIdleTimeoutHandler(h IdleTimeoutHandler) Builder {
	b.idleTimeout = h
	return b
}

// WithExecStatusHandler sets the CPU-execution-status handler.
func (b Builder) WithExecStatusHandler(h ExecStatusHandler) Builder {
	b.execStatus = h
	return b
}

// WithDebugOutputHandler sets the debug-output handler.
func (b Builder) WithDebugOutputHandler(h DebugOutputHandler) Builder {
	b.debugOutput = h
	return b
}

// WithAsyncEventHandler sets the async-link-event handler.
func (b Builder) WithAsyncEventHandler(h AsyncEventHandler) Builder {
	b.asyncEvent = h
	return b
}

// WithLinkEventHandler sets the link-state-event handler.
func (b Builder) WithLinkEventHandler(h LinkEventHandler) Builder {
	b.linkEvent = h
	return b
}

// WithCompletionHandler sets the completion-pending handler.
func (b Builder) WithCompletionHandler(h CompletionHandler) Builder {
	b.completion = h
	return b
}

// WithErrorHandler sets the error-nibble handler.
func (b Builder) WithErrorHandler(h ErrorHandler) Builder {
	b.errorEvent = h
	return b
}

// WithSystemEventHandler sets the general system-event handler.
func (b Builder) WithSystemEventHandler(h SystemEventHandler) Builder {
	b.systemEvent = h
	return b
}

// Build builds a new Dispatcher.
func (b Builder) Build() *Dispatcher {
	if b.regs == nil {
		panic("dispatcher requires a register file")
	}

	return &Dispatcher{
		regs:        b.regs,
		idleTimeout: b.idleTimeout,
		execStatus:  b.execStatus,
		debugOutput: b.debugOutput,
		asyncEvent:  b.asyncEvent,
		linkEvent:   b.linkEvent,
		completion:  b.completion,
		errorEvent:  b.errorEvent,
		systemEvent: b.systemEvent,
	}
}

// Package cmdengine drives the hardware command engine of the bridge
// controller: it builds a command descriptor in the engine's register
// block, triggers it, and tracks the single in-flight command slot through
// completion. Register writes happen in the exact order the hardware state
// machine expects; callers get whole-command builders only, never raw field
// setters.
package cmdengine

import (
	"github.com/MochiBaga/asm2464pd-firmware/poll"
	"github.com/MochiBaga/asm2464pd-firmware/regfile"
)

// Fixed bytes of the read/write command shape.
const (
	opcodeReadWrite = 0x32
	statusReadWrite = 0x90
	issueReadWrite  = 0x01
	tagReadWrite    = 0x04
)

// statusIssued is the status code recorded when a command is issued with
// explicit issue/tag parameters.
const statusIssued = 0x06

// Engine owns the command engine register block and the one logical command
// slot.
type Engine struct {
	regs     *regfile.File
	maxPolls int
	slot     Slot
}

// Slot returns a copy of the current slot record.
func (e *Engine) Slot() Slot {
	return e.slot
}

// IsBusy reports whether the command engine is busy. Busy folds together
// the busy bit, the companion busy-status bit, the error-count bit, and the
// auxiliary bit; an error is therefore observed as perpetual busy and only
// a caller-imposed poll budget surfaces it.
func (e *Engine) IsBusy() bool {
	if e.regs.BitSet(regfile.RegCmdStatus, regfile.CmdStatusBusy) {
		return true
	}
	if e.regs.BitSet(regfile.RegCmdBusyStatus, regfile.CmdBusyStart) {
		return true
	}
	if e.regs.BitSet(regfile.RegCmdStatus, regfile.CmdStatusError) {
		return true
	}
	if e.regs.BitSet(regfile.RegCmdStatus, regfile.CmdStatusAux) {
		return true
	}
	return false
}

// ErrorPending reports the raw error-count bit. Diagnostic only: the
// primary busy contract folds this bit in, and nothing in the engine acts
// on it separately.
func (e *Engine) ErrorPending() bool {
	return e.regs.BitSet(regfile.RegCmdStatus, regfile.CmdStatusError)
}

// TriggerStart sets bit 0 of the busy-status register with a
// read-modify-write, preserving the other bits.
func (e *Engine) TriggerStart() {
	e.regs.UpdateBits(regfile.RegCmdBusyStatus, regfile.CmdBusyStart,
		regfile.CmdBusyStart)
}

// Command carries the caller-supplied parameters of one read/write command.
type Command struct {
	Mode  Mode
	Param byte
	LBA   uint32
}

// SetupReadWrite programs the engine for a read/write command. The write
// order is load-bearing: opcode, status, issue, tag (plus tag flag), then
// the derived address bytes, then the trigger.
func (e *Engine) SetupReadWrite(cmd Command) {
	e.slot.Mode = cmd.Mode
	e.slot.Param = cmd.Param
	e.slot.LBA[0] = byte(cmd.LBA)
	e.slot.LBA[1] = byte(cmd.LBA >> 8)
	e.slot.LBA[2] = byte(cmd.LBA >> 16)
	e.slot.LBA[3] = byte(cmd.LBA >> 24)

	e.regs.Write8(regfile.RegCmdOpcode, opcodeReadWrite)
	e.regs.Write8(regfile.RegCmdStatusByte, statusReadWrite)
	e.regs.Write8(regfile.RegCmdIssue, issueReadWrite)
	e.regs.Write8(regfile.RegCmdTag, tagReadWrite)
	e.regs.SetBits(regfile.RegCmdTag, regfile.CmdTagFlag)

	e.regs.Write8(regfile.RegCmdLBA0, e.slot.LBA[1])
	e.regs.Write8(regfile.RegCmdLBA1,
		regfile.CombineShift(e.slot.LBA[0], e.slot.LBA[3]))
	e.regs.Write8(regfile.RegCmdLBA2,
		regfile.CombineShift(0, e.slot.LBA[2]))

	if cmd.Mode == Mode2 || cmd.Mode == Mode3 {
		e.regs.Write8(regfile.RegCmdTrigger, regfile.CmdTriggerMode23)
	} else {
		e.regs.Write8(regfile.RegCmdTrigger, regfile.CmdTriggerMode1)
	}

	e.SetOpCounter()
}

// IssueTagAndWait writes an explicit issue/tag pair and records the issued
// status code for the completion path.
func (e *Engine) IssueTagAndWait(issue, tag byte) {
	e.regs.Write8(regfile.RegCmdIssue, issue)
	e.regs.Write8(regfile.RegCmdTag, tag)
	e.slot.Status = statusIssued
	e.slot.IssueTag = tag
}

// WaitCompletion busy-spins until the engine acknowledges the in-flight
// command, with no budget. This is the reference chip's behavior; it will
// not return until the hardware (or a hosted model) clears the busy bits.
// Hosted callers should use WaitCompletionTimeout instead.
func (e *Engine) WaitCompletion() bool {
	for e.IsBusy() {
	}

	e.finishCompletion()

	for e.regs.BitSet(regfile.RegCmdBusyStatus, regfile.CmdBusyStart) {
	}

	e.advanceState()
	return true
}

// WaitCompletionTimeout is the bounded form of WaitCompletion. It returns
// poll.ErrTimeout when either spin exhausts the engine's poll budget, and
// leaves the slot state untouched in that case.
func (e *Engine) WaitCompletionTimeout() error {
	err := poll.While(e.maxPolls, e.IsBusy)
	if err != nil {
		return err
	}

	e.finishCompletion()

	err = poll.While(e.maxPolls, func() bool {
		return e.regs.BitSet(regfile.RegCmdBusyStatus, regfile.CmdBusyStart)
	})
	if err != nil {
		return err
	}

	e.advanceState()
	return nil
}

// finishCompletion copies the pending status into the control register and
// re-triggers the engine for the completion phase.
func (e *Engine) finishCompletion() {
	e.regs.Write8(regfile.RegCmdControl, e.slot.Status)
	e.TriggerStart()
}

// advanceState increments the 3-bit state counter and resets the slot
// index, never leaving it stale.
func (e *Engine) advanceState() {
	e.slot.State = (e.slot.State + 1) & 0x07
	e.slot.Index = 0
}

// Execute issues a read/write command and waits for it with the bounded
// wait. This is the composition foreground callers use.
func (e *Engine) Execute(cmd Command) error {
	e.SetupReadWrite(cmd)
	return e.WaitCompletionTimeout()
}

// SetOpCounter stores the operation counter sentinel.
func (e *Engine) SetOpCounter() {
	e.slot.OpCounter = opCounterSentinel
}

// OpCounterAtSentinel reports whether the operation counter holds the
// sentinel required for dependent transitions.
func (e *Engine) OpCounterAtSentinel() bool {
	return e.slot.OpCounter^opCounterSentinel == 0
}

// ConfigCommand walks the command config register through its three-bit
// enable sequence, one read-modify-write per bit, after arming the DMA
// status path. The per-bit sequence is how the hardware expects the field
// to be built up.
func (e *Engine) ConfigCommand() {
	e.regs.Write8(regfile.RegDMAStatus, 0x02)

	e.regs.UpdateBits(regfile.RegCmdConfig, 0x02, 0x02)
	e.regs.UpdateBits(regfile.RegCmdConfig, 0x04, 0x04)
	e.regs.UpdateBits(regfile.RegCmdConfig, 0x08, 0x08)
}

// ConfigModeSelect clears the low field of the config register and writes
// the mode parameter into bits 4-6 of the mode select register.
func (e *Engine) ConfigModeSelect(param byte) {
	e.regs.ClearBits(regfile.RegCmdCfgE405, 0x07)
	e.regs.Write8(regfile.RegCmdModeSel, regfile.ModeNibbleHigh(param))
}

// SelectSlot sets the slot index, wrapping at 8.
func (e *Engine) SelectSlot(index byte) {
	e.slot.Index = index & 0x07
}

// CurrentSlotAddr returns the register window address of the current slot.
func (e *Engine) CurrentSlotAddr() regfile.Addr {
	return SlotAddr(e.slot.Index)
}

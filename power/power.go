// Package power is the power and link state coordinator: a small state
// machine toggling power domains and link states, driven both by explicit
// calls and by events fanned out from the tick dispatcher. All its waits
// are bounded; its iteration-capped state machine is the template every
// other wait in the firmware follows.
package power

import (
	"github.com/MochiBaga/asm2464pd-firmware/poll"
	"github.com/MochiBaga/asm2464pd-firmware/regfile"
)

// HostLinkState is the host-facing (USB) link power state.
type HostLinkState byte

// Host link states, active to deepest sleep.
const (
	U0 HostLinkState = iota // active
	U1                      // standby, fast exit
	U2                      // sleep
	U3                      // suspend, host-initiated wake
)

// BusLinkState is the peripheral-facing (PCIe) link power state.
type BusLinkState byte

// Peripheral link states, active to auxiliary-power-only.
const (
	L0 BusLinkState = iota
	L0s
	L1
	L2
)

// Builder builds a power coordinator.
type Builder struct {
	regs *regfile.File
}

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithRegisters sets the register file the coordinator drives.
func (b Builder) WithRegisters(regs *regfile.File) Builder {
	b.regs = regs
	return b
}

// Build builds a new Coordinator.
func (b Builder) Build() *Coordinator {
	if b.regs == nil {
		panic("power coordinator requires a register file")
	}
	return &Coordinator{regs: b.regs}
}

// Coordinator owns the power register block and the link states. Link
// states are mutated only here; other components read them through the
// accessors.
type Coordinator struct {
	regs *regfile.File

	hostLink HostLinkState
	busLink  BusLinkState
}

// Suspended reports the suspended status bit.
func (c *Coordinator) Suspended() bool {
	return c.regs.BitSet(regfile.RegPowerStatus, regfile.PowerSuspended)
}

// SetSuspended flips the suspended status bit and the suspend gating bit.
func (c *Coordinator) SetSuspended() {
	c.regs.SetBits(regfile.RegPowerStatus, regfile.PowerSuspended)
	c.regs.SetBits(regfile.RegPowerGate, regfile.PowerGateBit1)
}

// ClearSuspended clears the suspended status bit and the suspend gating
// bit.
func (c *Coordinator) ClearSuspended() {
	c.regs.ClearBits(regfile.RegPowerStatus, regfile.PowerSuspended)
	c.regs.ClearBits(regfile.RegPowerGate, regfile.PowerGateBit1)
}

// EnableClocks ungates the auxiliary clock-control bits.
func (c *Coordinator) EnableClocks() {
	c.regs.SetBits(regfile.RegPowerEnable, 0x01)
	c.regs.SetBits(regfile.RegPowerGate, 0x01)
	c.regs.SetBits(regfile.RegPowerGateExt, 0x01)
}

// DisableClocks gates the auxiliary clock-control bits.
func (c *Coordinator) DisableClocks() {
	c.regs.ClearBits(regfile.RegPowerGate, 0x01)
	c.regs.ClearBits(regfile.RegPowerGateExt, 0x01)
}

// HostLink returns the host-facing link state.
func (c *Coordinator) HostLink() HostLinkState {
	return c.hostLink
}

// BusLink returns the peripheral-facing link state.
func (c *Coordinator) BusLink() BusLinkState {
	return c.busLink
}

// StateMachine steps both links toward the target implied by the suspended
// flag, one transition per iteration, re-checking status each time. It
// returns early once the target condition holds and poll.ErrTimeout when
// the iteration cap is exhausted first.
func (c *Coordinator) StateMachine(maxIterations int) error {
	return poll.Until(maxIterations, c.step)
}

// step advances each link by at most one state and reports whether the
// target condition holds.
func (c *Coordinator) step() bool {
	if c.Suspended() {
		if c.hostLink < U3 {
			c.hostLink++
		}
		if c.busLink < L2 {
			c.busLink++
		}

		if c.hostLink == U3 && c.busLink == L2 {
			c.DisableClocks()
			c.mirrorLinkStates()
			return true
		}
	} else {
		if c.hostLink > U0 {
			c.hostLink--
		}
		if c.busLink > L0 {
			c.busLink--
		}

		if c.hostLink == U0 && c.busLink == L0 {
			c.EnableClocks()
			c.mirrorLinkStates()
			return true
		}
	}

	c.mirrorLinkStates()
	return false
}

// mirrorLinkStates publishes the link states into the clock config
// register so out-of-core readers see them: host link in bits 0-1, bus
// link in bits 2-3.
func (c *Coordinator) mirrorLinkStates() {
	val := byte(c.hostLink)&0x03 | (byte(c.busLink)&0x03)<<2
	c.regs.UpdateBits(regfile.RegPowerClockCfg, 0x0F, val)
}

// HandleIdleTimeout services an idle-timeout event: enter suspend and walk
// the links down.
func (c *Coordinator) HandleIdleTimeout() {
	c.SetSuspended()
	_ = c.StateMachine(8)
}

// HandleLinkEvent services a link-state-change event: leave suspend and
// walk the links back up.
func (c *Coordinator) HandleLinkEvent() {
	c.ClearSuspended()
	_ = c.StateMachine(8)
}

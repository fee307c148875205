package cmdengine

import "github.com/MochiBaga/asm2464pd-firmware/regfile"

// Mode identifies one of the three command shapes the engine can issue.
type Mode byte

// The three command shapes. Mode2 and Mode3 share a trigger value distinct
// from Mode1.
const (
	Mode1 Mode = 1
	Mode2 Mode = 2
	Mode3 Mode = 3
)

// opCounterSentinel is the operation counter value required for certain
// state transitions.
const opCounterSentinel = 0x05

// A Slot is the tracking record for one in-flight hardware command. The
// hardware exposes a single busy/status register pair rather than per-slot
// registers, so at most one slot is logically in flight per engine.
type Slot struct {
	Index     byte // 0-7, wraps; reset to 0 on completion
	Mode      Mode
	Status    byte // status code copied to the control register on completion
	OpCounter byte
	State     byte // 3-bit counter, +1 mod 8 per successful completion
	IssueTag  byte
	Param     byte
	LBA       [4]byte // 32-bit address split into bytes, low first
}

// Reset clears the slot record, the logical equivalent of the firmware
// zeroing its command work area.
func (s *Slot) Reset() {
	*s = Slot{}
}

// SlotAddr computes the register window address of a slot: base plus index
// times the 32-byte stride.
func SlotAddr(index byte) regfile.Addr {
	return regfile.CmdSlotBase + regfile.Addr(index)*regfile.CmdSlotStride
}

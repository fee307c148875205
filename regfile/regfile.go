// Package regfile models the memory-mapped control and status registers of
// the bridge controller. The register file is the only shared state between
// the foreground command path and the tick dispatcher; exactly one File
// exists per modeled device and every component accesses it by reference.
// No component may cache register contents across calls.
package regfile

import (
	"sort"

	"github.com/MochiBaga/asm2464pd-firmware/sim"
)

// HookPosRegRead is a hook position that triggers after a register read.
var HookPosRegRead = &sim.HookPos{Name: "RegRead"}

// HookPosRegWrite is a hook position that triggers after a register write.
var HookPosRegWrite = &sim.HookPos{Name: "RegWrite"}

// Access describes one register access, delivered to hooks as the Detail
// field of the hook context.
type Access struct {
	Addr  Addr
	Value byte
	Write bool
}

// A Model attaches hosted hardware behavior to a single register address.
// On real silicon the chip's state machines drive the status bits; in a
// hosted run the model substitutes for them.
type Model interface {
	// Read observes the current stored value and returns the value the
	// firmware sees. The returned value is stored back.
	Read(cur byte) byte

	// Write combines the current stored value with the written value and
	// returns the value to store.
	Write(cur, val byte) byte
}

// File is the device register file: a byte-addressed set of control and
// status registers with optional per-address hardware models.
type File struct {
	sim.HookableBase

	bytes  map[Addr]byte
	models map[Addr]Model
}

// NewFile creates an empty register file. All registers read as zero until
// written or driven by a model.
func NewFile() *File {
	return &File{
		bytes:  make(map[Addr]byte),
		models: make(map[Addr]Model),
	}
}

// Attach installs a hardware model on a register address, replacing any
// previous model.
func (f *File) Attach(addr Addr, m Model) {
	f.models[addr] = m
}

// Read8 reads one register byte. If a model is attached it observes the
// read; the value it produces is latched.
func (f *File) Read8(addr Addr) byte {
	val := f.bytes[addr]

	if m, ok := f.models[addr]; ok {
		val = m.Read(val)
		f.bytes[addr] = val
	}

	f.InvokeHook(sim.HookCtx{
		Domain: f,
		Pos:    HookPosRegRead,
		Detail: Access{Addr: addr, Value: val},
	})

	return val
}

// Write8 writes one register byte. If a model is attached it mediates the
// write; acknowledge-style bits may not store literally.
func (f *File) Write8(addr Addr, val byte) {
	if m, ok := f.models[addr]; ok {
		val = m.Write(f.bytes[addr], val)
	}

	f.bytes[addr] = val

	f.InvokeHook(sim.HookCtx{
		Domain: f,
		Pos:    HookPosRegWrite,
		Detail: Access{Addr: addr, Value: val, Write: true},
	})
}

// SetBits performs a read-modify-write that sets mask bits, preserving the
// other bits of the register.
func (f *File) SetBits(addr Addr, mask byte) {
	val := f.Read8(addr)
	f.Write8(addr, val|mask)
}

// ClearBits performs a read-modify-write that clears mask bits.
func (f *File) ClearBits(addr Addr, mask byte) {
	val := f.Read8(addr)
	f.Write8(addr, val&^mask)
}

// UpdateBits clears the mask field then ORs in val, the anl/orl sequence
// the original firmware uses for every field update.
func (f *File) UpdateBits(addr Addr, mask byte, val byte) {
	cur := f.Read8(addr)
	f.Write8(addr, (cur&^mask)|(val&mask))
}

// BitSet reports whether any mask bit is set in the register.
func (f *File) BitSet(addr Addr, mask byte) bool {
	return f.Read8(addr)&mask != 0
}

// Snapshot returns a copy of all registers that have been touched, for
// inspection by the monitor. Addresses are returned in ascending order.
func (f *File) Snapshot() []Access {
	addrs := make([]Addr, 0, len(f.bytes))
	for a := range f.bytes {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	snap := make([]Access, 0, len(addrs))
	for _, a := range addrs {
		snap = append(snap, Access{Addr: a, Value: f.bytes[a]})
	}
	return snap
}

// Peek reads a register without invoking models or hooks. It exists for
// tests and the monitor; firmware code must use Read8.
func (f *File) Peek(addr Addr) byte {
	return f.bytes[addr]
}

// Poke writes a register without invoking models or hooks. It exists for
// tests and for external collaborators injecting event flags.
func (f *File) Poke(addr Addr, val byte) {
	f.bytes[addr] = val
}

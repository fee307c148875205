// Package dma coordinates the bridge controller's DMA engine: per-channel
// configuration, transfer setup over the closed buffer address table, and
// completion polling. The blocking wait is bounded; the tick dispatcher
// uses the non-blocking poll.
package dma

import (
	"github.com/MochiBaga/asm2464pd-firmware/poll"
	"github.com/MochiBaga/asm2464pd-firmware/regfile"
)

// Buffer regions addressed by the DMA engine. Addresses into these regions
// are computed from small indices, never from free-form pointers.
const (
	epQueueBase  regfile.Addr = 0x0000 // endpoint queue descriptors
	workAreaBase regfile.Addr = 0x0100 // transfer work areas
	configBase   regfile.Addr = 0x0400 // channel configuration tables
	scsiBase     regfile.Addr = 0x0A00 // SCSI buffer management

	entryStride = 4
)

// EPQueueAddr returns the queue descriptor address for an endpoint.
func EPQueueAddr(ep byte) regfile.Addr {
	return epQueueBase + regfile.Addr(ep)*entryStride
}

// WorkAreaAddr returns the transfer work area address for a channel.
func WorkAreaAddr(channel byte) regfile.Addr {
	return workAreaBase + regfile.Addr(channel)*entryStride
}

// ChannelConfigAddr returns the configuration table address for a channel.
func ChannelConfigAddr(channel byte) regfile.Addr {
	return configBase + regfile.Addr(channel)*entryStride
}

// SCSIBufAddr returns the SCSI management entry address for an index.
func SCSIBufAddr(index byte) regfile.Addr {
	return scsiBase + regfile.Addr(index)*entryStride
}

// Builder builds a DMA coordinator.
type Builder struct {
	regs     *regfile.File
	maxPolls int
}

// MakeBuilder returns a new Builder with the default poll budget.
func MakeBuilder() Builder {
	return Builder{maxPolls: 1000}
}

// WithRegisters sets the register file the coordinator drives.
func (b Builder) WithRegisters(regs *regfile.File) Builder {
	b.regs = regs
	return b
}

// WithMaxPolls sets the poll budget for the blocking completion wait.
func (b Builder) WithMaxPolls(maxPolls int) Builder {
	b.maxPolls = maxPolls
	return b
}

// Build builds a new Coordinator.
func (b Builder) Build() *Coordinator {
	if b.regs == nil {
		panic("dma coordinator requires a register file")
	}

	return &Coordinator{
		regs:     b.regs,
		maxPolls: b.maxPolls,
	}
}

// Coordinator owns the DMA register block. A channel is owned exclusively
// by its requester for the duration of one transfer.
type Coordinator struct {
	regs     *regfile.File
	maxPolls int
}

// ConfigChannel selects a channel in the config register's low field and
// stores the auxiliary parameter.
func (c *Coordinator) ConfigChannel(channel, param byte) {
	c.regs.UpdateBits(regfile.RegDMAConfig, 0x07, channel)
	c.regs.Write8(regfile.RegDMAAux, param)
}

// SetupTransfer programs the source address from the channel table and the
// transfer length, low byte first.
func (c *Coordinator) SetupTransfer(channel byte, length uint16) {
	addr := ChannelConfigAddr(channel)
	c.regs.Write8(regfile.RegDMAAddrLo, byte(addr))
	c.regs.Write8(regfile.RegDMAAddrHi, byte(addr>>8))
	c.regs.Write8(regfile.RegDMALenLo, byte(length))
	c.regs.Write8(regfile.RegDMALenHi, byte(length>>8))
}

// StartTransfer kicks the engine: auxiliary parameters, the transfer count,
// then the two-step 0x04/0x02 start sequence on the control register. The
// two writes are both required; the hardware latches the mode on the first
// and starts on the second.
func (c *Coordinator) StartTransfer(aux0, aux1 byte, count uint16) {
	c.regs.Write8(regfile.RegDMAControl, aux0)
	c.regs.Write8(regfile.RegDMAAux, aux1)
	c.regs.Write8(regfile.RegDMALenLo, byte(count))
	c.regs.Write8(regfile.RegDMALenHi, byte(count>>8))

	c.regs.Write8(regfile.RegDMAStart, 0x04)
	c.regs.Write8(regfile.RegDMAStart, 0x02)
}

// Arm pre-arms the status register before a dependent command issue.
func (c *Coordinator) Arm() {
	c.regs.Write8(regfile.RegDMAStatus, 0x01)
}

// PollComplete reports whether the completion bit is set. Non-blocking;
// this is the only completion query safe to call from the tick dispatcher.
func (c *Coordinator) PollComplete() bool {
	return c.regs.BitSet(regfile.RegDMAStatus, regfile.CSRDone)
}

// WaitComplete polls the completion bit up to the coordinator's budget and
// acknowledges it. Returns poll.ErrTimeout if the transfer never completes.
func (c *Coordinator) WaitComplete() error {
	err := poll.Until(c.maxPolls, c.PollComplete)
	if err != nil {
		return err
	}

	c.regs.Write8(regfile.RegDMAStatus, regfile.CSRClear)
	return nil
}

// ClearWorkArea zeroes the transfer work area of a channel so a stale
// descriptor never leaks into the next transfer.
func (c *Coordinator) ClearWorkArea(channel byte) {
	base := WorkAreaAddr(channel)
	for i := regfile.Addr(0); i < entryStride; i++ {
		c.regs.Write8(base+i, 0)
	}
}

// ClearStatus drops the channel select field and the auxiliary register,
// releasing the channel.
func (c *Coordinator) ClearStatus() {
	c.regs.ClearBits(regfile.RegDMAConfig, 0x07)
	c.regs.Write8(regfile.RegDMAAux, 0)
}

// SCSIQueueStatus extracts the queue status field from the SCSI DMA status
// register. Pure query, no side effects beyond the read itself.
func (c *Coordinator) SCSIQueueStatus() byte {
	return (c.regs.Read8(regfile.RegSCSIDMAStatus) >> 2) & 0x3F
}

// TagCountStatus extracts the tag count flag from the SCSI DMA status
// register.
func (c *Coordinator) TagCountStatus() byte {
	return regfile.ExtractBit5(c.regs.Read8(regfile.RegSCSIDMAStatus))
}

// StateCounter extracts the 3-bit transfer state counter.
func (c *Coordinator) StateCounter() byte {
	return c.regs.Read8(regfile.RegSCSIDMACtrl) & 0x07
}

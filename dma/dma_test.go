package dma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MochiBaga/asm2464pd-firmware/poll"
	"github.com/MochiBaga/asm2464pd-firmware/regfile"
	"github.com/MochiBaga/asm2464pd-firmware/sim"
)

type writeRecorder struct {
	writes []regfile.Access
}

func (r *writeRecorder) Func(ctx sim.HookCtx) {
	acc := ctx.Detail.(regfile.Access)
	if acc.Write {
		r.writes = append(r.writes, acc)
	}
}

func newHosted(t *testing.T) (*Coordinator, *regfile.File) {
	t.Helper()
	regs := regfile.NewFile()
	regfile.AttachHostedModels(regs)
	return MakeBuilder().WithRegisters(regs).Build(), regs
}

func TestAddressTable(t *testing.T) {
	assert.Equal(t, regfile.Addr(0x0000), EPQueueAddr(0))
	assert.Equal(t, regfile.Addr(0x000C), EPQueueAddr(3))
	assert.Equal(t, regfile.Addr(0x0108), WorkAreaAddr(2))
	assert.Equal(t, regfile.Addr(0x0414), ChannelConfigAddr(5))
	assert.Equal(t, regfile.Addr(0x0A04), SCSIBufAddr(1))
}

func TestConfigChannelKeepsHighBits(t *testing.T) {
	c, regs := newHosted(t)
	regs.Poke(regfile.RegDMAConfig, 0xF8)

	c.ConfigChannel(0x05, 0x11)

	assert.Equal(t, byte(0xFD), regs.Peek(regfile.RegDMAConfig))
	assert.Equal(t, byte(0x11), regs.Peek(regfile.RegDMAAux))
}

func TestSetupTransferProgramsAddressAndLength(t *testing.T) {
	c, regs := newHosted(t)

	c.SetupTransfer(5, 0x1234)

	assert.Equal(t, byte(0x14), regs.Peek(regfile.RegDMAAddrLo))
	assert.Equal(t, byte(0x04), regs.Peek(regfile.RegDMAAddrHi))
	assert.Equal(t, byte(0x34), regs.Peek(regfile.RegDMALenLo))
	assert.Equal(t, byte(0x12), regs.Peek(regfile.RegDMALenHi))
}

func TestStartTransferSequence(t *testing.T) {
	c, regs := newHosted(t)
	rec := &writeRecorder{}
	regs.AcceptHook(rec)

	c.StartTransfer(0x00, 0x50, 0x0028)

	// The control register must see 0x04 then 0x02, in that order, last.
	n := len(rec.writes)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, regfile.RegDMAStart, rec.writes[n-2].Addr)
	assert.Equal(t, byte(0x04), rec.writes[n-2].Value)
	assert.Equal(t, regfile.RegDMAStart, rec.writes[n-1].Addr)
	assert.Equal(t, byte(0x02), rec.writes[n-1].Value)
}

func TestWaitCompleteHosted(t *testing.T) {
	c, regs := newHosted(t)

	require.NoError(t, c.WaitComplete())

	// The acknowledge write must have cleared the done bit.
	assert.Zero(t, regs.Peek(regfile.RegDMAStatus)&regfile.CSRDone)
}

func TestPollCompleteFollowsPollContract(t *testing.T) {
	c, _ := newHosted(t)

	assert.False(t, c.PollComplete())
	assert.False(t, c.PollComplete())
	assert.True(t, c.PollComplete())
}

func TestWaitCompleteTimesOutWithoutModel(t *testing.T) {
	regs := regfile.NewFile()
	c := MakeBuilder().WithRegisters(regs).WithMaxPolls(10).Build()

	require.ErrorIs(t, c.WaitComplete(), poll.ErrTimeout)
}

func TestClearStatusReleasesChannel(t *testing.T) {
	c, regs := newHosted(t)
	regs.Poke(regfile.RegDMAConfig, 0xFF)
	regs.Poke(regfile.RegDMAAux, 0x33)

	c.ClearStatus()

	assert.Equal(t, byte(0xF8), regs.Peek(regfile.RegDMAConfig))
	assert.Equal(t, byte(0x00), regs.Peek(regfile.RegDMAAux))
}

func TestClearWorkAreaZeroesTheChannelWindow(t *testing.T) {
	c, regs := newHosted(t)

	base := WorkAreaAddr(2)
	for i := regfile.Addr(0); i < 4; i++ {
		regs.Poke(base+i, 0xEE)
	}
	regs.Poke(WorkAreaAddr(3), 0xEE)

	c.ClearWorkArea(2)

	for i := regfile.Addr(0); i < 4; i++ {
		assert.Equal(t, byte(0x00), regs.Peek(base+i))
	}

	// The neighboring channel's work area is untouched.
	assert.Equal(t, byte(0xEE), regs.Peek(WorkAreaAddr(3)))
}

func TestStatusQueriesArePure(t *testing.T) {
	c, regs := newHosted(t)
	regs.Poke(regfile.RegSCSIDMAStatus, 0xAC)
	regs.Poke(regfile.RegSCSIDMACtrl, 0x0D)

	assert.Equal(t, byte(0x2B), c.SCSIQueueStatus())
	assert.Equal(t, byte(0x01), c.TagCountStatus())
	assert.Equal(t, byte(0x05), c.StateCounter())

	// Re-reading yields the same values.
	assert.Equal(t, byte(0x2B), c.SCSIQueueStatus())
	assert.Equal(t, byte(0x05), c.StateCounter())
}

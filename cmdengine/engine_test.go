package cmdengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MochiBaga/asm2464pd-firmware/poll"
	"github.com/MochiBaga/asm2464pd-firmware/regfile"
	"github.com/MochiBaga/asm2464pd-firmware/sim"
)

func newBareEngine() (*Engine, *regfile.File) {
	regs := regfile.NewFile()
	e := MakeBuilder().WithRegisters(regs).Build()
	return e, regs
}

func newHostedEngine() (*Engine, *regfile.File) {
	regs := regfile.NewFile()
	regfile.AttachHostedModels(regs)
	e := MakeBuilder().WithRegisters(regs).Build()
	return e, regs
}

func TestIsBusyFoldsFourBits(t *testing.T) {
	e, regs := newBareEngine()

	// All 16 combinations of the three status bits and the companion
	// busy-status bit. Busy iff any of the four is set.
	for combo := 0; combo < 16; combo++ {
		var status, busyStatus byte
		if combo&1 != 0 {
			status |= regfile.CmdStatusBusy
		}
		if combo&2 != 0 {
			status |= regfile.CmdStatusError
		}
		if combo&4 != 0 {
			status |= regfile.CmdStatusAux
		}
		if combo&8 != 0 {
			busyStatus |= regfile.CmdBusyStart
		}

		regs.Poke(regfile.RegCmdStatus, status)
		regs.Poke(regfile.RegCmdBusyStatus, busyStatus)

		assert.Equal(t, combo != 0, e.IsBusy(), "combo %04b", combo)
	}
}

func TestIsBusyIgnoresUnrelatedBits(t *testing.T) {
	e, regs := newBareEngine()

	regs.Poke(regfile.RegCmdStatus, 0xF1)
	regs.Poke(regfile.RegCmdBusyStatus, 0xFE)

	assert.False(t, e.IsBusy())
}

func TestTriggerStartPreservesOtherBits(t *testing.T) {
	e, regs := newBareEngine()
	regs.Poke(regfile.RegCmdBusyStatus, 0xA4)

	e.TriggerStart()

	assert.Equal(t, byte(0xA5), regs.Peek(regfile.RegCmdBusyStatus))
}

func TestSetupReadWriteTriggerByMode(t *testing.T) {
	cases := []struct {
		mode    Mode
		trigger byte
	}{
		{Mode1, regfile.CmdTriggerMode1},
		{Mode2, regfile.CmdTriggerMode23},
		{Mode3, regfile.CmdTriggerMode23},
	}

	for _, c := range cases {
		e, regs := newBareEngine()
		e.SetupReadWrite(Command{Mode: c.mode})
		assert.Equal(t, c.trigger, regs.Peek(regfile.RegCmdTrigger),
			"mode %d", c.mode)
	}
}

func TestSetupReadWriteRegisterContents(t *testing.T) {
	e, regs := newBareEngine()

	e.SetupReadWrite(Command{Mode: Mode2, LBA: 0xC1824364})

	assert.Equal(t, byte(0x32), regs.Peek(regfile.RegCmdOpcode))
	assert.Equal(t, byte(0x90), regs.Peek(regfile.RegCmdStatusByte))
	assert.Equal(t, byte(0x01), regs.Peek(regfile.RegCmdIssue))
	assert.Equal(t, byte(0x04|regfile.CmdTagFlag),
		regs.Peek(regfile.RegCmdTag))

	// LBA bytes low to high: 0x64, 0x43, 0x82, 0xC1.
	assert.Equal(t, byte(0x43), regs.Peek(regfile.RegCmdLBA0))
	assert.Equal(t, regfile.CombineShift(0x64, 0xC1),
		regs.Peek(regfile.RegCmdLBA1))
	assert.Equal(t, regfile.CombineShift(0, 0x82),
		regs.Peek(regfile.RegCmdLBA2))
}

func TestSetupReadWriteWriteOrder(t *testing.T) {
	regs := regfile.NewFile()
	rec := &writeRecorder{}
	regs.AcceptHook(rec)
	e := MakeBuilder().WithRegisters(regs).Build()

	e.SetupReadWrite(Command{Mode: Mode1})

	want := []regfile.Addr{
		regfile.RegCmdOpcode,
		regfile.RegCmdStatusByte,
		regfile.RegCmdIssue,
		regfile.RegCmdTag,
		regfile.RegCmdTag, // tag flag read-modify-write
		regfile.RegCmdLBA0,
		regfile.RegCmdLBA1,
		regfile.RegCmdLBA2,
		regfile.RegCmdTrigger,
	}
	require.Equal(t, want, rec.writes)
}

func TestWaitCompletionAdvancesState(t *testing.T) {
	e, _ := newHostedEngine()

	for n := 1; n <= 20; n++ {
		e.SelectSlot(3)
		require.NoError(t, e.WaitCompletionTimeout())
		assert.Equal(t, byte(n%8), e.Slot().State, "after %d completions", n)
		assert.Equal(t, byte(0), e.Slot().Index)
	}
}

func TestWaitCompletionUnboundedSucceedsHosted(t *testing.T) {
	e, _ := newHostedEngine()

	require.True(t, e.WaitCompletion())
	assert.Equal(t, byte(1), e.Slot().State)
}

func TestWaitCompletionTimeoutOnStuckEngine(t *testing.T) {
	regs := regfile.NewFile()
	// No hosted models: the error bit never clears, so busy never drops.
	regs.Poke(regfile.RegCmdStatus, regfile.CmdStatusError)
	e := MakeBuilder().WithRegisters(regs).WithMaxPolls(50).Build()

	err := e.WaitCompletionTimeout()

	require.ErrorIs(t, err, poll.ErrTimeout)
	assert.Equal(t, byte(0), e.Slot().State)
}

func TestExecuteFullCommand(t *testing.T) {
	e, regs := newHostedEngine()

	require.NoError(t, e.Execute(Command{Mode: Mode3, LBA: 0x1000}))

	assert.Equal(t, byte(1), e.Slot().State)
	assert.Equal(t, byte(regfile.CmdTriggerMode23),
		regs.Peek(regfile.RegCmdTrigger))
	assert.True(t, e.OpCounterAtSentinel())
}

func TestSlotAddr(t *testing.T) {
	assert.Equal(t, regfile.Addr(0xE442), SlotAddr(0))
	assert.Equal(t, regfile.Addr(0xE4A2), SlotAddr(3))
	assert.Equal(t, regfile.Addr(0xE522), SlotAddr(7))
}

func TestCurrentSlotAddrFollowsIndex(t *testing.T) {
	e, _ := newBareEngine()

	e.SelectSlot(3)
	assert.Equal(t, regfile.Addr(0xE4A2), e.CurrentSlotAddr())

	// Index wraps mod 8.
	e.SelectSlot(11)
	assert.Equal(t, regfile.Addr(0xE4A2), e.CurrentSlotAddr())
}

func TestConfigCommandBitSequence(t *testing.T) {
	e, regs := newBareEngine()

	e.ConfigCommand()

	assert.Equal(t, byte(0x0E), regs.Peek(regfile.RegCmdConfig))
	assert.Equal(t, byte(0x02), regs.Peek(regfile.RegDMAStatus))
}

func TestConfigModeSelect(t *testing.T) {
	e, regs := newBareEngine()
	regs.Poke(regfile.RegCmdCfgE405, 0xFF)

	e.ConfigModeSelect(0x02)

	assert.Equal(t, byte(0xF8), regs.Peek(regfile.RegCmdCfgE405))
	assert.Equal(t, byte(0x20), regs.Peek(regfile.RegCmdModeSel))
}

func TestIssueTagAndWaitRecordsStatus(t *testing.T) {
	e, regs := newBareEngine()

	e.IssueTagAndWait(0x02, 0x07)

	assert.Equal(t, byte(0x02), regs.Peek(regfile.RegCmdIssue))
	assert.Equal(t, byte(0x07), regs.Peek(regfile.RegCmdTag))
	assert.Equal(t, byte(0x06), e.Slot().Status)
}

type writeRecorder struct {
	writes []regfile.Addr
}

func (r *writeRecorder) Func(ctx sim.HookCtx) {
	acc := ctx.Detail.(regfile.Access)
	if acc.Write {
		r.writes = append(r.writes, acc.Addr)
	}
}

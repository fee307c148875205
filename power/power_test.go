package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MochiBaga/asm2464pd-firmware/poll"
	"github.com/MochiBaga/asm2464pd-firmware/regfile"
)

func newCoordinator() (*Coordinator, *regfile.File) {
	regs := regfile.NewFile()
	c := MakeBuilder().WithRegisters(regs).Build()
	return c, regs
}

func TestSuspendedFlag(t *testing.T) {
	c, regs := newCoordinator()

	require.False(t, c.Suspended())

	c.SetSuspended()
	assert.True(t, c.Suspended())
	assert.NotZero(t, regs.Peek(regfile.RegPowerGate)&regfile.PowerGateBit1)

	c.ClearSuspended()
	assert.False(t, c.Suspended())
	assert.Zero(t, regs.Peek(regfile.RegPowerGate)&regfile.PowerGateBit1)
}

func TestSuspendedPreservesOtherStatusBits(t *testing.T) {
	c, regs := newCoordinator()
	regs.Poke(regfile.RegPowerStatus, 0x81)

	c.SetSuspended()
	assert.Equal(t, byte(0xC1), regs.Peek(regfile.RegPowerStatus))

	c.ClearSuspended()
	assert.Equal(t, byte(0x81), regs.Peek(regfile.RegPowerStatus))
}

func TestClockGating(t *testing.T) {
	c, regs := newCoordinator()

	c.EnableClocks()
	assert.NotZero(t, regs.Peek(regfile.RegPowerGate)&0x01)
	assert.NotZero(t, regs.Peek(regfile.RegPowerGateExt)&0x01)

	c.DisableClocks()
	assert.Zero(t, regs.Peek(regfile.RegPowerGate)&0x01)
	assert.Zero(t, regs.Peek(regfile.RegPowerGateExt)&0x01)
}

func TestStateMachineWalksDownWhenSuspended(t *testing.T) {
	c, _ := newCoordinator()
	c.SetSuspended()

	require.NoError(t, c.StateMachine(8))

	assert.Equal(t, U3, c.HostLink())
	assert.Equal(t, L2, c.BusLink())
}

func TestStateMachineWalksUpWhenResumed(t *testing.T) {
	c, _ := newCoordinator()
	c.SetSuspended()
	require.NoError(t, c.StateMachine(8))

	c.ClearSuspended()
	require.NoError(t, c.StateMachine(8))

	assert.Equal(t, U0, c.HostLink())
	assert.Equal(t, L0, c.BusLink())
}

func TestStateMachineHonorsIterationCap(t *testing.T) {
	c, _ := newCoordinator()
	c.SetSuspended()

	// Walking U0 to U3 needs three transitions; one iteration cannot get
	// there.
	require.ErrorIs(t, c.StateMachine(1), poll.ErrTimeout)
	assert.Equal(t, U1, c.HostLink())
}

func TestStateMachineReturnsEarlyAtTarget(t *testing.T) {
	c, _ := newCoordinator()

	// Already at U0/L0 and not suspended: first iteration hits the target.
	require.NoError(t, c.StateMachine(1))
}

func TestLinkStatesMirroredToRegister(t *testing.T) {
	c, regs := newCoordinator()
	c.SetSuspended()
	require.NoError(t, c.StateMachine(8))

	val := regs.Peek(regfile.RegPowerClockCfg)
	assert.Equal(t, byte(U3), val&0x03)
	assert.Equal(t, byte(L2), (val>>2)&0x03)
}

func TestIdleTimeoutAndLinkEventHandlers(t *testing.T) {
	c, _ := newCoordinator()

	c.HandleIdleTimeout()
	assert.True(t, c.Suspended())
	assert.Equal(t, U3, c.HostLink())

	c.HandleLinkEvent()
	assert.False(t, c.Suspended())
	assert.Equal(t, U0, c.HostLink())
}

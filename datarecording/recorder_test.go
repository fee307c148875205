package datarecording

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MochiBaga/asm2464pd-firmware/regfile"
	"github.com/MochiBaga/asm2464pd-firmware/sim"
)

type fixedTimeTeller struct {
	time sim.VTimeInSec
}

func (t *fixedTimeTeller) CurrentTime() sim.VTimeInSec {
	return t.time
}

func TestRecorderCapturesRegisterAccesses(t *testing.T) {
	tt := &fixedTimeTeller{}
	rec := NewSQLiteRecorder(filepath.Join(t.TempDir(), "trace"), tt)
	rec.Init()

	regs := regfile.NewFile()
	regs.AcceptHook(rec)

	tt.time = 1e-6
	regs.Write8(regfile.RegCmdOpcode, 0x32)
	tt.time = 2e-6
	regs.Write8(regfile.RegCmdOpcode, 0x90)
	tt.time = 3e-6
	regs.Read8(regfile.RegCmdStatus)

	rec.Flush()

	reader := NewSQLiteReaderWithDB(rec.DB)

	count, err := reader.CountAccesses()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	records, err := reader.AccessesAt(uint16(regfile.RegCmdOpcode))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, byte(0x32), records[0].Value)
	assert.True(t, records[0].Write)
	assert.InDelta(t, 1e-6, records[0].Time, 1e-12)

	assert.Equal(t, byte(0x90), records[1].Value)
	assert.True(t, records[1].Write)
}

func TestRecorderIgnoresForeignHookPositions(t *testing.T) {
	tt := &fixedTimeTeller{}
	rec := NewSQLiteRecorder(filepath.Join(t.TempDir(), "trace"), tt)
	rec.Init()

	rec.Func(sim.HookCtx{Pos: sim.HookPosBeforeEvent})

	rec.Flush()

	reader := NewSQLiteReaderWithDB(rec.DB)
	count, err := reader.CountAccesses()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRecorderReadRowsAreMarkedAsReads(t *testing.T) {
	tt := &fixedTimeTeller{}
	rec := NewSQLiteRecorder(filepath.Join(t.TempDir(), "trace"), tt)
	rec.Init()

	regs := regfile.NewFile()
	regs.AcceptHook(rec)

	regs.Poke(regfile.RegCmdStatus, 0xAB)
	regs.Read8(regfile.RegCmdStatus)

	rec.Flush()

	reader := NewSQLiteReaderWithDB(rec.DB)
	records, err := reader.AccessesAt(uint16(regfile.RegCmdStatus))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.False(t, records[0].Write)
	assert.Equal(t, byte(0xAB), records[0].Value)
}

package regfile

// CompletionModel implements the hosted contract for completion-style
// registers (timer CSRs, DMA status): the done bit reads clear on the first
// two polls and is guaranteed set on the third, so firmware poll loops
// written against real hardware make progress without real timing. Writing
// the clear bit clears the done bit and resets the poll counter
// immediately.
type CompletionModel struct {
	DoneBit  byte
	ClearBit byte

	polls int
}

// NewCompletionModel returns a model with the standard CSR layout: bit1
// done, bit2 clear.
func NewCompletionModel() *CompletionModel {
	return &CompletionModel{DoneBit: CSRDone, ClearBit: CSRClear}
}

// Read counts the poll and auto-sets the done bit after the second one.
func (m *CompletionModel) Read(cur byte) byte {
	m.polls++
	if m.polls > 2 {
		cur |= m.DoneBit
	}
	return cur
}

// Write applies the clear semantics: a write with the clear bit set drops
// the done bit and resets the poll counter. The clear bit itself does not
// store.
func (m *CompletionModel) Write(cur, val byte) byte {
	if val&m.ClearBit != 0 {
		m.polls = 0
		return val &^ (m.DoneBit | m.ClearBit)
	}
	return val
}

// BusyModel is the inverse of CompletionModel, for busy-style registers:
// busy bits auto-clear after the second poll so unbounded foreground spins
// terminate in hosted runs. A write that raises any busy bit re-arms the
// counter, modeling a new command being started.
type BusyModel struct {
	BusyMask byte

	polls int
}

// NewBusyModel returns a model that auto-clears the given busy bits.
func NewBusyModel(busyMask byte) *BusyModel {
	return &BusyModel{BusyMask: busyMask}
}

// Read counts the poll and auto-clears the busy bits after the second one.
func (m *BusyModel) Read(cur byte) byte {
	m.polls++
	if m.polls > 2 {
		cur &^= m.BusyMask
	}
	return cur
}

// Write stores the value. Raising a busy bit that was clear re-arms the
// poll counter.
func (m *BusyModel) Write(cur, val byte) byte {
	if val&m.BusyMask&^cur != 0 {
		m.polls = 0
	}
	return val
}

// AttachHostedModels installs the hosted hardware models required for the
// firmware core to make progress without real silicon: completion-style
// models on the timer CSRs and the two DMA status registers, and
// busy-style models on the command engine status pair.
func AttachHostedModels(f *File) {
	f.Attach(RegTimer0CSR, NewCompletionModel())
	f.Attach(RegTimer1CSR, NewCompletionModel())
	f.Attach(RegTimer2CSR, NewCompletionModel())
	f.Attach(RegTimer3CSR, NewCompletionModel())
	f.Attach(RegDMAStatus, NewCompletionModel())
	f.Attach(RegSCSIDMAStatus, NewCompletionModel())

	f.Attach(RegCmdStatus, NewBusyModel(CmdStatusBusy|CmdStatusError|CmdStatusAux))
	f.Attach(RegCmdBusyStatus, NewBusyModel(CmdBusyStart))
}

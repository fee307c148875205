package regfile

// Addr is a byte address in the bridge controller's XDATA register space.
type Addr uint16

// Command engine block (0xE400-0xE43F).
const (
	RegCmdStatus     Addr = 0xE402 // bit1 busy, bit2 error count, bit3 aux busy
	RegCmdControl    Addr = 0xE403 // command state, written from slot status
	RegCmdCfgE405    Addr = 0xE405
	RegCmdConfig     Addr = 0xE40B
	RegCmdBusyStatus Addr = 0xE41C // bit0 command busy / trigger
	RegCmdTrigger    Addr = 0xE420
	RegCmdModeSel    Addr = 0xE421
	RegCmdOpcode     Addr = 0xE422
	RegCmdStatusByte Addr = 0xE423
	RegCmdIssue      Addr = 0xE424
	RegCmdTag        Addr = 0xE425
	RegCmdLBA0       Addr = 0xE426
	RegCmdLBA1       Addr = 0xE427
	RegCmdLBA2       Addr = 0xE428
)

// CmdSlotBase is the base of the per-slot register windows. Each slot
// occupies CmdSlotStride bytes.
const (
	CmdSlotBase   Addr = 0xE442
	CmdSlotStride      = 0x20
)

// Command engine bit roles.
const (
	CmdStatusBusy  = 0x02
	CmdStatusError = 0x04
	CmdStatusAux   = 0x08

	CmdBusyStart = 0x01

	CmdTriggerMode1  = 0x40
	CmdTriggerMode23 = 0x80

	CmdTagFlag = 0x10
)

// Interrupt status block.
const (
	RegIntCtrl       Addr = 0xC801
	RegIntSystem     Addr = 0xC806 // bit0 idle timeout, bit4 system event
	RegIntPCIe       Addr = 0xC80A // bits0-3 error nibble, bit4 link, bit5 async, bit6 debug
	RegCPUSysState   Addr = 0xCC32
	RegCPUExecStatus Addr = 0xCC33 // bit2 event flag, ack with 0x04
	RegEventGate     Addr = 0x09F9 // nested checks gated on gate & 0x83
	RegNVMeEventAck  Addr = 0xEC04
	RegNVMeEventStat Addr = 0xEC06 // bit0 completion pending
	RegCompletionAux Addr = 0x0AF0 // bit5 gates companion clear
	RegNVMeCompanion Addr = 0xE7E3 // bits 6,7 cleared before completion handler
)

// Interrupt bit roles.
const (
	IntSystemIdleTimeout = 0x01
	IntSystemEvent       = 0x10

	IntPCIeErrorMask  = 0x0F
	IntPCIeLinkEvent  = 0x10
	IntPCIeAsyncEvent = 0x20
	IntPCIeDebugDue   = 0x40

	ExecStatusEvent = 0x04
	ExecStatusAck   = 0x04

	NVMeEventPending = 0x01
	NVMeEventAckVal  = 0x01

	CompletionAuxGate = 0x20
	CompanionClear    = 0xC0 // bits 6 and 7

	EventGateMask = 0x83
)

// Timer block (0xCC10-0xCC3F). Each timer has a DIV, a CSR, and a 16-bit
// threshold. The CSR follows the completion-style contract: bit0 enable,
// bit1 done, bit2 clear.
const (
	RegTimer0Div Addr = 0xCC10
	RegTimer0CSR Addr = 0xCC11
	RegTimer0ThL Addr = 0xCC12
	RegTimer0ThH Addr = 0xCC13
	RegTimer1Div Addr = 0xCC16
	RegTimer1CSR Addr = 0xCC17
	RegTimer2Div Addr = 0xCC1C
	RegTimer2CSR Addr = 0xCC1D
	RegTimer3Div Addr = 0xCC22
	RegTimer3CSR Addr = 0xCC23
)

// Completion-style CSR bit roles.
const (
	CSREnable = 0x01
	CSRDone   = 0x02
	CSRClear  = 0x04
)

// Timer/DMA combined block (0xCC80-0xCC9B).
const (
	RegDMAControl Addr = 0xCC81
	RegDMAAddrLo  Addr = 0xCC82
	RegDMAAddrHi  Addr = 0xCC83
	RegDMAConfig  Addr = 0xCC88 // bits0-2 channel config
	RegDMAStatus  Addr = 0xCC89 // bit1 complete, completion-style
	RegDMAAux     Addr = 0xCC8A
	RegDMAStart   Addr = 0xCC99 // 0x04 then 0x02 start sequence
	RegDMALenLo   Addr = 0xCC9A
	RegDMALenHi   Addr = 0xCC9B
)

// SCSI DMA block (0xCE00-0xCEFF).
const (
	RegSCSIDMACtrl   Addr = 0xCE6E
	RegSCSIDMAStatus Addr = 0xCE96
)

// Power block (0x92C0-0x92C7).
const (
	RegPowerEnable   Addr = 0x92C0
	RegPowerClockCfg Addr = 0x92C1
	RegPowerStatus   Addr = 0x92C2 // bit6 suspended
	RegPowerPHY      Addr = 0x92C5
	RegPowerGate     Addr = 0x92C6
	RegPowerGateExt  Addr = 0x92C7
)

// Power bit roles.
const (
	PowerSuspended = 0x40
	PowerGateBit1  = 0x02
)

// UART debug block (0xC000-0xC00F).
const (
	RegUARTData   Addr = 0xC001
	RegUARTTxFull Addr = 0xC006
	RegUARTLSR    Addr = 0xC009
)

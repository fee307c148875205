// Package uart is the debug output collaborator at the core's boundary. It
// models the dedicated TX-only debug UART: character output through the
// data register, gated on the FIFO-full flag, formatted in the firmware's
// bracket-tag style ("[PCIE] Link speed: 03"). The dispatcher services at
// most one queued line per tick.
package uart

import (
	"io"

	"github.com/MochiBaga/asm2464pd-firmware/poll"
	"github.com/MochiBaga/asm2464pd-firmware/regfile"
)

const hexDigits = "0123456789ABCDEF"

// Writer drives the debug UART block and mirrors every byte to an output
// sink for the hosting process.
type Writer struct {
	regs *regfile.File
	out  io.Writer

	pending []string
}

// NewWriter creates a Writer that mirrors UART traffic to out.
func NewWriter(regs *regfile.File, out io.Writer) *Writer {
	return &Writer{regs: regs, out: out}
}

// Putc transmits one character. It waits, bounded, for the TX FIFO to
// drain; a full FIFO that never drains drops the character, matching the
// fire-and-forget nature of debug output.
func (w *Writer) Putc(ch byte) {
	err := poll.While(16, func() bool {
		return w.regs.BitSet(regfile.RegUARTTxFull, 0x01)
	})
	if err != nil {
		return
	}

	w.regs.Write8(regfile.RegUARTData, ch)
	if w.out != nil {
		_, _ = w.out.Write([]byte{ch})
	}
}

// Puts transmits a string.
func (w *Writer) Puts(s string) {
	for i := 0; i < len(s); i++ {
		w.Putc(s[i])
	}
}

// PutHex transmits a byte as two uppercase hex digits.
func (w *Writer) PutHex(val byte) {
	w.Putc(hexDigits[val>>4])
	w.Putc(hexDigits[val&0x0F])
}

// Newline transmits CR LF.
func (w *Writer) Newline() {
	w.Putc('\r')
	w.Putc('\n')
}

// Debug transmits one formatted debug line immediately.
func (w *Writer) Debug(tag, msg string, val byte) {
	w.Puts("[" + tag + "] " + msg + ": ")
	w.PutHex(val)
	w.Newline()
}

// Queue stages a debug line and raises the debug-output-due flag for the
// dispatcher.
func (w *Writer) Queue(tag, msg string, val byte) {
	line := "[" + tag + "] " + msg + ": " +
		string(hexDigits[val>>4]) + string(hexDigits[val&0x0F])
	w.pending = append(w.pending, line)
	w.regs.SetBits(regfile.RegIntPCIe, regfile.IntPCIeDebugDue)
}

// HandleDebugOutput services the debug-output-due event: transmit one
// queued line. If more lines remain, the due flag is raised again so the
// next tick picks them up.
func (w *Writer) HandleDebugOutput() {
	if len(w.pending) == 0 {
		return
	}

	line := w.pending[0]
	w.pending = w.pending[1:]
	w.Puts(line)
	w.Newline()

	if len(w.pending) > 0 {
		w.regs.SetBits(regfile.RegIntPCIe, regfile.IntPCIeDebugDue)
	}
}

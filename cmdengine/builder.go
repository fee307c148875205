package cmdengine

import "github.com/MochiBaga/asm2464pd-firmware/regfile"

// Builder builds a command engine.
type Builder struct {
	regs     *regfile.File
	maxPolls int
}

// MakeBuilder returns a new Builder with the default poll budget.
func MakeBuilder() Builder {
	return Builder{
		maxPolls: 1000,
	}
}

// WithRegisters sets the register file the engine drives.
func (b Builder) WithRegisters(regs *regfile.File) Builder {
	b.regs = regs
	return b
}

// WithMaxPolls sets the poll budget for the bounded completion wait.
func (b Builder) WithMaxPolls(maxPolls int) Builder {
	b.maxPolls = maxPolls
	return b
}

// Build builds a new Engine.
func (b Builder) Build() *Engine {
	if b.regs == nil {
		panic("command engine requires a register file")
	}

	return &Engine{
		regs:     b.regs,
		maxPolls: b.maxPolls,
	}
}

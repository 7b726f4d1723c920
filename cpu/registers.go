package cpu

import (
	"fmt"
)

// Registers is the register file of the Basic Computer.
//
// PC and AR are 12 bits wide; write them with SetPC and SetAR. A PC
// written directly is masked at the next T0.
type Registers struct {
	IR Word    // Instruction register.
	AC Word    // Accumulator.
	DR Word    // Data register.
	TR Word    // Temporary register, used by the interrupt cycle.
	PC Address // Program counter.
	AR Address // Address register.

	INPR byte // Input register.
	OUTR byte // Output register.

	E   bool // Accumulator extension (carry).
	IEN bool // Interrupt enable.
	FGI bool // Input flag.
	FGO bool // Output flag.
	R   bool // Interrupt cycle pending.

	SC TimingState // Sequence counter.
}

// Reset all registers, and the sequence counter, to zero.
func (regs *Registers) Reset() {
	*regs = Registers{}
}

// Snapshot returns a copy of the register file.
func (regs *Registers) Snapshot() Registers {
	return *regs
}

// SetPC sets the program counter, masked to the address width.
func (regs *Registers) SetPC(addr Address) {
	regs.PC = addr & ADDRESS_MASK
}

// SetAR sets the address register, masked to the address width.
func (regs *Registers) SetAR(addr Address) {
	regs.AR = addr & ADDRESS_MASK
}

// String returns the register file as a table.
func (regs Registers) String() (text string) {
	bit := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}

	rows := []struct {
		name  string
		value string
	}{
		{"sc", regs.SC.String()},
		{"ir", fmt.Sprintf("%04X", uint16(regs.IR))},
		{"ac", fmt.Sprintf("%04X", uint16(regs.AC))},
		{"dr", fmt.Sprintf("%04X", uint16(regs.DR))},
		{"tr", fmt.Sprintf("%04X", uint16(regs.TR))},
		{"pc", fmt.Sprintf("%03X", uint16(regs.PC))},
		{"ar", fmt.Sprintf("%03X", uint16(regs.AR))},
		{"inpr", fmt.Sprintf("%02X", regs.INPR)},
		{"outr", fmt.Sprintf("%02X", regs.OUTR)},
		{"e", bit(regs.E)},
		{"ien", bit(regs.IEN)},
		{"fgi", bit(regs.FGI)},
		{"fgo", bit(regs.FGO)},
		{"r", bit(regs.R)},
	}

	for _, row := range rows {
		text += fmt.Sprintf("% 5s: %v\n", row.name, row.value)
	}

	return
}

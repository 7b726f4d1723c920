package cpu

// MicroOp is the register transfer performed in one timing state.
type MicroOp struct {
	Label string
	Exec  func(cy *cycle) error
}

// cycle is the working state of a single timing state. Micro-operations
// only modify the copy of the register file and record a pending memory
// write; the Cpu commits both once the micro-operation succeeds.
type cycle struct {
	mem  *Memory
	regs Registers
	dec  Decoded

	cell   *Cell // Memory cell referenced.
	write  bool  // Set if cell is to be written.
	output *byte // Character for the output device.
	halt   bool  // Set to halt the machine.
}

func (cy *cycle) read(addr Address) (word Word, err error) {
	word, err = cy.mem.Read(addr)
	if err != nil {
		return
	}

	cy.cell = &Cell{Address: addr, Word: word}
	return
}

func (cy *cycle) store(addr Address, word Word) (err error) {
	if int(addr) >= cy.mem.Size() {
		err = ErrOutOfRange(addr)
		return
	}

	cy.cell = &Cell{Address: addr, Word: word}
	cy.write = true
	return
}

// skip advances the program counter past the next instruction.
func (cy *cycle) skip(cond bool) {
	if cond {
		cy.regs.SetPC(cy.regs.PC + 1)
	}
}

// fetchOps are T0 through T2 of every instruction cycle.
var fetchOps = [3]MicroOp{
	{"AR <- PC", func(cy *cycle) (err error) {
		cy.regs.SetAR(cy.regs.PC)
		return
	}},
	{"IR <- M[AR], PC <- PC + 1", func(cy *cycle) (err error) {
		word, err := cy.read(cy.regs.AR)
		if err != nil {
			return
		}
		cy.regs.IR = word
		cy.regs.SetPC(cy.regs.PC + 1)
		return
	}},
	{"AR <- IR(0-11)", func(cy *cycle) (err error) {
		cy.regs.SetAR(Code(cy.regs.IR).Address())
		return
	}},
}

// interruptOps are RT0 through RT2 of the interrupt cycle.
var interruptOps = [3]MicroOp{
	{"AR <- 0, TR <- PC", func(cy *cycle) (err error) {
		cy.regs.SetAR(0)
		cy.regs.TR = Word(cy.regs.PC)
		return
	}},
	{"M[AR] <- TR, PC <- 0", func(cy *cycle) (err error) {
		err = cy.store(cy.regs.AR, cy.regs.TR)
		if err != nil {
			return
		}
		cy.regs.SetPC(0)
		return
	}},
	{"PC <- PC + 1, IEN <- 0, R <- 0", func(cy *cycle) (err error) {
		cy.regs.SetPC(cy.regs.PC + 1)
		cy.regs.IEN = false
		cy.regs.R = false
		return
	}},
}

var nopOp = MicroOp{"NOP", func(cy *cycle) (err error) { return }}

var indirectOp = MicroOp{"AR <- M[AR]", func(cy *cycle) (err error) {
	word, err := cy.read(cy.regs.AR)
	if err != nil {
		return
	}
	if word > ADDRESS_MASK || int(word) >= cy.mem.Size() {
		err = ErrOutOfRange(Address(word))
		return
	}
	cy.regs.SetAR(Address(word))
	return
}}

var directOp = MicroOp{"NOP (direct)", func(cy *cycle) (err error) { return }}

// readDR is the operand fetch shared by AND, ADD, LDA and ISZ.
var readDR = MicroOp{"DR <- M[AR]", func(cy *cycle) (err error) {
	word, err := cy.read(cy.regs.AR)
	if err != nil {
		return
	}
	cy.regs.DR = word
	return
}}

// executeOps are the micro-operations from T4 onwards for the memory-reference
// class, and at T3 for the register-reference and input/output classes.
// The last micro-operation of each list ends the instruction cycle.
var executeOps = map[CodeOp][]MicroOp{
	OP_AND: {
		readDR,
		{"AC <- AC & DR", func(cy *cycle) (err error) {
			cy.regs.AC &= cy.regs.DR
			return
		}},
	},
	OP_ADD: {
		readDR,
		{"AC <- AC + DR, E <- Cout", func(cy *cycle) (err error) {
			sum := uint32(cy.regs.AC) + uint32(cy.regs.DR)
			cy.regs.AC = Word(sum & WORD_MASK)
			cy.regs.E = sum > WORD_MASK
			return
		}},
	},
	OP_LDA: {
		readDR,
		{"AC <- DR", func(cy *cycle) (err error) {
			cy.regs.AC = cy.regs.DR
			return
		}},
	},
	OP_STA: {
		{"M[AR] <- AC", func(cy *cycle) (err error) {
			return cy.store(cy.regs.AR, cy.regs.AC)
		}},
	},
	OP_BUN: {
		{"PC <- AR", func(cy *cycle) (err error) {
			cy.regs.SetPC(cy.regs.AR)
			return
		}},
	},
	OP_BSA: {
		{"M[AR] <- PC, AR <- AR + 1", func(cy *cycle) (err error) {
			err = cy.store(cy.regs.AR, Word(cy.regs.PC))
			if err != nil {
				return
			}
			cy.regs.SetAR(cy.regs.AR + 1)
			return
		}},
		{"PC <- AR", func(cy *cycle) (err error) {
			cy.regs.SetPC(cy.regs.AR)
			return
		}},
	},
	OP_ISZ: {
		readDR,
		{"DR <- DR + 1", func(cy *cycle) (err error) {
			cy.regs.DR++
			return
		}},
		{"M[AR] <- DR, if (DR = 0) PC <- PC + 1", func(cy *cycle) (err error) {
			err = cy.store(cy.regs.AR, cy.regs.DR)
			if err != nil {
				return
			}
			cy.skip(cy.regs.DR == 0)
			return
		}},
	},

	OP_CLA: {{"AC <- 0", func(cy *cycle) (err error) {
		cy.regs.AC = 0
		return
	}}},
	OP_CLE: {{"E <- 0", func(cy *cycle) (err error) {
		cy.regs.E = false
		return
	}}},
	OP_CMA: {{"AC <- ~AC", func(cy *cycle) (err error) {
		cy.regs.AC = ^cy.regs.AC
		return
	}}},
	OP_CME: {{"E <- ~E", func(cy *cycle) (err error) {
		cy.regs.E = !cy.regs.E
		return
	}}},
	OP_CIR: {{"AC <- shr AC, AC(15) <- E, E <- AC(0)", func(cy *cycle) (err error) {
		out := (cy.regs.AC & 1) != 0
		cy.regs.AC >>= 1
		if cy.regs.E {
			cy.regs.AC |= 0x8000
		}
		cy.regs.E = out
		return
	}}},
	OP_CIL: {{"AC <- shl AC, AC(0) <- E, E <- AC(15)", func(cy *cycle) (err error) {
		out := (cy.regs.AC & 0x8000) != 0
		cy.regs.AC <<= 1
		if cy.regs.E {
			cy.regs.AC |= 1
		}
		cy.regs.E = out
		return
	}}},
	OP_INC: {{"AC <- AC + 1", func(cy *cycle) (err error) {
		cy.regs.AC++
		return
	}}},
	OP_SPA: {{"if (AC(15) = 0) PC <- PC + 1", func(cy *cycle) (err error) {
		cy.skip((cy.regs.AC & 0x8000) == 0)
		return
	}}},
	OP_SNA: {{"if (AC(15) = 1) PC <- PC + 1", func(cy *cycle) (err error) {
		cy.skip((cy.regs.AC & 0x8000) != 0)
		return
	}}},
	OP_SZA: {{"if (AC = 0) PC <- PC + 1", func(cy *cycle) (err error) {
		cy.skip(cy.regs.AC == 0)
		return
	}}},
	OP_SZE: {{"if (E = 0) PC <- PC + 1", func(cy *cycle) (err error) {
		cy.skip(!cy.regs.E)
		return
	}}},
	OP_HLT: {{"S <- 0", func(cy *cycle) (err error) {
		cy.halt = true
		return
	}}},

	OP_INP: {{"AC(0-7) <- INPR, FGI <- 0", func(cy *cycle) (err error) {
		cy.regs.AC = (cy.regs.AC & 0xff00) | Word(cy.regs.INPR)
		cy.regs.FGI = false
		return
	}}},
	OP_OUT: {{"OUTR <- AC(0-7), FGO <- 0", func(cy *cycle) (err error) {
		cy.regs.OUTR = byte(cy.regs.AC & 0xff)
		cy.regs.FGO = false
		ch := cy.regs.OUTR
		cy.output = &ch
		return
	}}},
	OP_SKI: {{"if (FGI = 1) PC <- PC + 1", func(cy *cycle) (err error) {
		cy.skip(cy.regs.FGI)
		return
	}}},
	OP_SKO: {{"if (FGO = 1) PC <- PC + 1", func(cy *cycle) (err error) {
		cy.skip(cy.regs.FGO)
		return
	}}},
	OP_ION: {{"IEN <- 1", func(cy *cycle) (err error) {
		cy.regs.IEN = true
		return
	}}},
	OP_IOF: {{"IEN <- 0", func(cy *cycle) (err error) {
		cy.regs.IEN = false
		return
	}}},
}

// Microprogram returns the micro-operations of a decoded instruction,
// starting at T3. The instruction cycle ends after the last one.
func Microprogram(dec Decoded) (ops []MicroOp) {
	exec, ok := executeOps[dec.Op]
	if !ok {
		return []MicroOp{nopOp}
	}

	if dec.Class != CLASS_MEMORY {
		return exec
	}

	if dec.Indirect {
		ops = append(ops, indirectOp)
	} else {
		ops = append(ops, directOp)
	}

	return append(ops, exec...)
}

// StepCount returns the number of timing states of a decoded instruction,
// including the fetch and decode states.
func StepCount(dec Decoded) int {
	return len(fetchOps) + len(Microprogram(dec))
}

package cpu

import (
	"fmt"
)

// CodeClass is the type of instruction class.
type CodeClass int

//go:generate go tool stringer -linecomment -type=CodeClass
const (
	CLASS_MEMORY   = CodeClass(0) // mem
	CLASS_REGISTER = CodeClass(1) // reg
	CLASS_IO       = CodeClass(2) // io
)

// CodeOp is a decoded operation.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_NOP = CodeOp(0) // NOP

	// Memory reference
	OP_AND = CodeOp(1) // AND
	OP_ADD = CodeOp(2) // ADD
	OP_LDA = CodeOp(3) // LDA
	OP_STA = CodeOp(4) // STA
	OP_BUN = CodeOp(5) // BUN
	OP_BSA = CodeOp(6) // BSA
	OP_ISZ = CodeOp(7) // ISZ

	// Register reference
	OP_CLA = CodeOp(8)  // CLA
	OP_CLE = CodeOp(9)  // CLE
	OP_CMA = CodeOp(10) // CMA
	OP_CME = CodeOp(11) // CME
	OP_CIR = CodeOp(12) // CIR
	OP_CIL = CodeOp(13) // CIL
	OP_INC = CodeOp(14) // INC
	OP_SPA = CodeOp(15) // SPA
	OP_SNA = CodeOp(16) // SNA
	OP_SZA = CodeOp(17) // SZA
	OP_SZE = CodeOp(18) // SZE
	OP_HLT = CodeOp(19) // HLT

	// Input/output
	OP_INP = CodeOp(20) // INP
	OP_OUT = CodeOp(21) // OUT
	OP_SKI = CodeOp(22) // SKI
	OP_SKO = CodeOp(23) // SKO
	OP_ION = CodeOp(24) // ION
	OP_IOF = CodeOp(25) // IOF
)

const (
	CODE_INDIRECT = Word(0x8000) // Indirect addressing bit.
	CODE_OPCODE   = Word(0x7000) // Opcode field.
	CODE_ADDRESS  = Word(0x0fff) // Address field.

	OPCODE_NON_MEMORY = 7 // Opcode of the register-reference and input/output classes.
)

// Code is a single encoded instruction word.
type Code Word

// MakeCodeMemory creates a memory-reference instruction from an opcode field value.
func MakeCodeMemory(opcode int, addr Address, indirect bool) (code Code) {
	code = Code((Word(opcode&0x7) << 12) | (Word(addr) & CODE_ADDRESS))
	if indirect {
		code |= Code(CODE_INDIRECT)
	}
	return
}

// Indirect returns true if the indirect addressing bit is set.
func (code Code) Indirect() bool {
	return (Word(code) & CODE_INDIRECT) != 0
}

// Opcode returns the 3-bit opcode field.
func (code Code) Opcode() int {
	return int((Word(code) & CODE_OPCODE) >> 12)
}

// Address returns the 12-bit address field.
func (code Code) Address() Address {
	return Address(Word(code) & CODE_ADDRESS)
}

// Class returns the instruction class selected by the opcode and indirect bit.
func (code Code) Class() CodeClass {
	switch {
	case code.Opcode() != OPCODE_NON_MEMORY:
		return CLASS_MEMORY
	case code.Indirect():
		return CLASS_IO
	default:
		return CLASS_REGISTER
	}
}

// String returns the disassembly of the code using the default instruction set.
func (code Code) String() string {
	return DefaultIsa.Disassemble(code)
}

// Decoded is an instruction word decoded into its variant.
type Decoded struct {
	Code     Code
	Class    CodeClass
	Op       CodeOp
	Indirect bool
	Address  Address
}

func (dec Decoded) String() (out string) {
	out = fmt.Sprintf("%v.%v", dec.Class, dec.Op)
	if dec.Class == CLASS_MEMORY {
		out += fmt.Sprintf(".%03x", uint16(dec.Address))
		if dec.Indirect {
			out += ".I"
		}
	}
	return
}

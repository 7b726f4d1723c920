package cpu

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Instruction is a row of an instruction set table.
//
// For the memory-reference class, Pattern carries only the opcode field;
// the assembler supplies the address and indirect bit. For the
// register-reference and input/output classes, Pattern is the whole word.
type Instruction struct {
	Mnemonic string    // Canonical mnemonic.
	Aliases  []string  // Alternate mnemonics.
	Op       CodeOp    // Operation executed by the engine.
	Class    CodeClass // Instruction class.
	Pattern  Word      // Encoded bit pattern.
}

// DefaultInstructions is the conventional Basic Computer instruction set.
var DefaultInstructions = []Instruction{
	{"AND", nil, OP_AND, CLASS_MEMORY, 0x0000},
	{"ADD", nil, OP_ADD, CLASS_MEMORY, 0x1000},
	{"LDA", []string{"LOAD"}, OP_LDA, CLASS_MEMORY, 0x2000},
	{"STA", []string{"STORE"}, OP_STA, CLASS_MEMORY, 0x3000},
	{"BUN", []string{"JMP"}, OP_BUN, CLASS_MEMORY, 0x4000},
	{"BSA", []string{"CALL"}, OP_BSA, CLASS_MEMORY, 0x5000},
	{"ISZ", nil, OP_ISZ, CLASS_MEMORY, 0x6000},

	{"CLA", nil, OP_CLA, CLASS_REGISTER, 0x7800},
	{"CLE", nil, OP_CLE, CLASS_REGISTER, 0x7400},
	{"CMA", nil, OP_CMA, CLASS_REGISTER, 0x7200},
	{"CME", nil, OP_CME, CLASS_REGISTER, 0x7100},
	{"CIR", nil, OP_CIR, CLASS_REGISTER, 0x7080},
	{"CIL", nil, OP_CIL, CLASS_REGISTER, 0x7040},
	{"INC", nil, OP_INC, CLASS_REGISTER, 0x7020},
	{"SPA", nil, OP_SPA, CLASS_REGISTER, 0x7010},
	{"SNA", nil, OP_SNA, CLASS_REGISTER, 0x7008},
	{"SZA", nil, OP_SZA, CLASS_REGISTER, 0x7004},
	{"SZE", nil, OP_SZE, CLASS_REGISTER, 0x7002},
	{"HLT", []string{"HALT"}, OP_HLT, CLASS_REGISTER, 0x7001},

	{"INP", nil, OP_INP, CLASS_IO, 0xf800},
	{"OUT", nil, OP_OUT, CLASS_IO, 0xf400},
	{"SKI", nil, OP_SKI, CLASS_IO, 0xf200},
	{"SKO", nil, OP_SKO, CLASS_IO, 0xf100},
	{"ION", nil, OP_ION, CLASS_IO, 0xf080},
	{"IOF", nil, OP_IOF, CLASS_IO, 0xf040},
}

// DefaultIsa is the instruction set built from DefaultInstructions.
var DefaultIsa = mustInstructionSet(DefaultInstructions)

// InstructionSet maps mnemonics to encodings, and encodings to operations.
type InstructionSet struct {
	table  []Instruction
	name   map[string]int  // Upper-case mnemonic or alias to table index.
	op     map[CodeOp]int  // Operation to table index.
	memory [8]CodeOp       // Memory-reference opcode field to operation.
	word   map[Word]CodeOp // Register-reference and input/output words to operation.
}

func mustInstructionSet(table []Instruction) *InstructionSet {
	isa, err := NewInstructionSet(table)
	if err != nil {
		panic(err)
	}
	return isa
}

// NewInstructionSet validates an instruction table and builds its lookups.
func NewInstructionSet(table []Instruction) (isa *InstructionSet, err error) {
	isa = &InstructionSet{
		table: slices.Clone(table),
		name:  make(map[string]int, len(table)),
		op:    make(map[CodeOp]int, len(table)),
		word:  make(map[Word]CodeOp, len(table)),
	}

	for n, ins := range isa.table {
		here := func(err error) error {
			return fmt.Errorf("%v: %w", ins.Mnemonic, err)
		}

		if ins.Op == OP_NOP {
			err = here(ErrIsaPattern)
			return
		}
		_, ok := isa.op[ins.Op]
		if ok {
			err = here(ErrIsaDuplicate)
			return
		}
		isa.op[ins.Op] = n

		for _, name := range append([]string{ins.Mnemonic}, ins.Aliases...) {
			name = strings.ToUpper(name)
			_, ok := isa.name[name]
			if ok || len(name) == 0 {
				err = here(ErrIsaDuplicate)
				return
			}
			isa.name[name] = n
		}

		code := Code(ins.Pattern)
		if code.Class() != ins.Class {
			err = here(ErrIsaPattern)
			return
		}

		switch ins.Class {
		case CLASS_MEMORY:
			if code.Indirect() || code.Address() != 0 {
				err = here(ErrIsaPattern)
				return
			}
			if isa.memory[code.Opcode()] != OP_NOP {
				err = here(ErrIsaDuplicate)
				return
			}
			isa.memory[code.Opcode()] = ins.Op
		case CLASS_REGISTER, CLASS_IO:
			_, ok := isa.word[ins.Pattern]
			if ok {
				err = here(ErrIsaDuplicate)
				return
			}
			isa.word[ins.Pattern] = ins.Op
		}
	}

	return
}

// Instructions iterates over the table in definition order.
func (isa *InstructionSet) Instructions() iter.Seq[Instruction] {
	return slices.Values(isa.table)
}

// Lookup finds an instruction by mnemonic or alias, ignoring case.
func (isa *InstructionSet) Lookup(mnemonic string) (ins Instruction, ok bool) {
	n, ok := isa.name[strings.ToUpper(mnemonic)]
	if ok {
		ins = isa.table[n]
	}
	return
}

// Encode an instruction. The address and indirect bit are only
// permitted for the memory-reference class.
func (isa *InstructionSet) Encode(mnemonic string, addr Address, indirect bool) (code Code, err error) {
	ins, ok := isa.Lookup(mnemonic)
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	if ins.Class != CLASS_MEMORY {
		if indirect {
			err = ErrOpcodeIndirect
			return
		}
		code = Code(ins.Pattern)
		return
	}

	if Word(addr) & ^CODE_ADDRESS != 0 {
		err = ErrAddressRange
		return
	}

	code = MakeCodeMemory(Code(ins.Pattern).Opcode(), addr, indirect)
	return
}

// Decode a word into its instruction variant. Any word that matches
// no instruction decodes as OP_NOP in its class.
func (isa *InstructionSet) Decode(code Code) (dec Decoded) {
	dec = Decoded{
		Code:  code,
		Class: code.Class(),
	}

	switch dec.Class {
	case CLASS_MEMORY:
		dec.Op = isa.memory[code.Opcode()]
		dec.Indirect = code.Indirect()
		dec.Address = code.Address()
	default:
		dec.Op = isa.word[Word(code)]
	}

	return
}

// Mnemonic returns the canonical mnemonic for an operation.
func (isa *InstructionSet) Mnemonic(op CodeOp) string {
	n, ok := isa.op[op]
	if !ok {
		return op.String()
	}
	return isa.table[n].Mnemonic
}

// Disassemble returns the assembly text for a code.
func (isa *InstructionSet) Disassemble(code Code) (text string) {
	dec := isa.Decode(code)

	if dec.Op == OP_NOP {
		return fmt.Sprintf("HEX %04X", uint16(code))
	}

	text = isa.Mnemonic(dec.Op)
	if dec.Class == CLASS_MEMORY {
		text += fmt.Sprintf(" %03X", uint16(dec.Address))
		if dec.Indirect {
			text += " I"
		}
	}

	return
}

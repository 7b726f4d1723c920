// Package cpu implements the processor and assembler for the Basic Computer.
//
// The processor has a single accumulator (AC) with an extension bit (E), a
// data register (DR), an instruction register (IR), a 12-bit program counter
// (PC) and address register (AR), and a sequence counter that steps each
// instruction through timing states T0 through T6. Memory holds 4096 words
// of 16 bits.
//
// An instruction word carries an indirect bit (15), an opcode (14-12) and an
// address (11-0). Opcode 7 selects the register-reference class when the
// indirect bit is clear, and the input/output class when it is set.
//
// The assembler translates mnemonic source into a Program, supporting labels,
// equates, ORG/DEC/HEX/END pseudo-operations and compile-time expression
// evaluation.
package cpu

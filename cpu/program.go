package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and generated word.
type Opcode struct {
	LineNo    int
	Address   Address
	Words     []string
	Code      Code
	LinkLabel string
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
	Labels  map[string]Address
}

// Debug returns the opcode assembled at an address, or nil.
func (prog *Program) Debug(addr Address) *Opcode {
	for n, op := range prog.Opcodes {
		if op.Address == addr {
			return &prog.Opcodes[n]
		}
	}

	return nil
}

// End returns the address following the highest assembled word.
func (prog *Program) End() (end Address) {
	for _, op := range prog.Opcodes {
		if op.Address >= end {
			end = op.Address + 1
		}
	}

	return
}

// Image iterates over the assembled words, in source order.
func (prog *Program) Image() iter.Seq2[Address, Word] {
	return func(yield func(addr Address, word Word) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Address, Word(op.Code)) {
				return
			}
		}
	}
}

// Lines iterates over the source line number to address mapping.
func (prog *Program) Lines() iter.Seq2[int, Address] {
	return func(yield func(lineno int, addr Address) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.LineNo, op.Address) {
				return
			}
		}
	}
}

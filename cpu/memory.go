package cpu

import (
	"iter"
)

const (
	MEMORY_SIZE  = 4096   // Words of installed memory.
	WORD_MASK    = 0xffff // Mask of a memory word.
	ADDRESS_MASK = 0x0fff // Mask of a memory address.
)

// Word is a single 16-bit memory cell.
type Word uint16

// Address is a 12-bit memory address.
type Address uint16

// Cell is an address and the word stored there.
type Cell struct {
	Address Address
	Word    Word
}

// Memory is the word-addressed main store.
type Memory struct {
	cells []Word
}

// NewMemory creates a memory of size words. A size outside of
// [1, MEMORY_SIZE] installs the full MEMORY_SIZE words.
func NewMemory(size int) (mem *Memory) {
	if size <= 0 || size > MEMORY_SIZE {
		size = MEMORY_SIZE
	}

	mem = &Memory{
		cells: make([]Word, size),
	}

	return
}

// Size returns the number of installed words.
func (mem *Memory) Size() int {
	return len(mem.cells)
}

// Read a word.
func (mem *Memory) Read(addr Address) (word Word, err error) {
	if int(addr) >= len(mem.cells) {
		err = ErrOutOfRange(addr)
		return
	}

	word = mem.cells[addr]
	return
}

// Write a word.
func (mem *Memory) Write(addr Address, word Word) (err error) {
	if int(addr) >= len(mem.cells) {
		err = ErrOutOfRange(addr)
		return
	}

	mem.cells[addr] = word & WORD_MASK
	return
}

// Clear sets all words to zero.
func (mem *Memory) Clear() {
	clear(mem.cells)
}

// Load writes an image into memory. Either the whole image is
// written, or none of it is.
func (mem *Memory) Load(image iter.Seq2[Address, Word]) (err error) {
	for addr := range image {
		if int(addr) >= len(mem.cells) {
			err = ErrOutOfRange(addr)
			return
		}
	}

	for addr, word := range image {
		mem.cells[addr] = word
	}

	return
}

// Contents iterates over every installed cell in address order.
func (mem *Memory) Contents() iter.Seq2[Address, Word] {
	return func(yield func(addr Address, word Word) bool) {
		for n, word := range mem.cells {
			if !yield(Address(n), word) {
				return
			}
		}
	}
}

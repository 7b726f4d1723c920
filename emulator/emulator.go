// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator owns a Basic Computer session: memory, register file,
// trace, the assembled program, and the terminal device.
package emulator

import (
	"slices"
	"sync"

	"github.com/ezrec/mano/cpu"
	"github.com/ezrec/mano/io"
)

// Emulator state. CPU + memory + terminal.
type Emulator struct {
	Verbose  bool        // If set, enables verbose logging.
	*cpu.Cpu             // Reference to the CPU simulation.
	Terminal io.Terminal // Terminal attached to INPR and OUTR.

	mutex sync.Mutex
}

// NewEmulator creates a new emulator with a full sized memory.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(cpu.MEMORY_SIZE),
	}

	emu.Cpu.Device = &emu.Terminal

	return
}

// Assemble assembles source lines and loads the result.
//
// On a syntax error, memory, registers and trace are unchanged.
// On success, memory holds only the new program, and the register
// file and trace are reset.
func (emu *Emulator) Assemble(lines []string) (prog *cpu.Program, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	asm := &cpu.Assembler{
		Verbose: emu.Verbose,
		Isa:     emu.Cpu.Isa,
	}

	prog, err = asm.Assemble(lines)
	if err != nil {
		prog = nil
		return
	}

	err = emu.load(prog)
	if err != nil {
		prog = nil
	}

	return
}

// Load installs an assembled program, and resets the emulator.
func (emu *Emulator) Load(prog *cpu.Program) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.load(prog)
}

func (emu *Emulator) load(prog *cpu.Program) (err error) {
	emu.Cpu.Verbose = emu.Verbose

	return emu.Cpu.Load(prog)
}

// Poke writes a word into memory, such as to seed program data.
func (emu *Emulator) Poke(addr cpu.Address, word cpu.Word) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Memory.Write(addr, word)
}

// Peek reads a word from memory.
func (emu *Emulator) Peek(addr cpu.Address) (word cpu.Word, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Memory.Read(addr)
}

// MemoryContents returns a copy of every memory cell, in address order.
func (emu *Emulator) MemoryContents() (cells []cpu.Cell) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	cells = make([]cpu.Cell, 0, emu.Cpu.Memory.Size())
	for addr, word := range emu.Cpu.Memory.Contents() {
		cells = append(cells, cpu.Cell{Address: addr, Word: word})
	}

	return
}

// Registers returns a snapshot of the register file.
func (emu *Emulator) Registers() cpu.Registers {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Registers.Snapshot()
}

// Trace returns a copy of the trace, oldest first.
func (emu *Emulator) Trace() []cpu.TraceEntry {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Trace.Entries()
}

// Halted returns true if the machine is halted.
func (emu *Emulator) Halted() bool {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Halted
}

// Reset the register file and trace. Memory is unchanged.
func (emu *Emulator) Reset() {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
}

// Ticks returns the total micro-steps since a reset.
func (emu *Emulator) Ticks() int {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.Cpu.Ticks
}

// lineNo returns the source line of the instruction at an address.
func (emu *Emulator) lineNo(addr cpu.Address) int {
	if emu.Cpu.Program == nil {
		return 0
	}

	op := emu.Cpu.Program.Debug(addr)
	if op == nil {
		return 0
	}

	return op.LineNo
}

// current returns the address of the instruction in the instruction cycle.
// The program counter is advanced at T1.
func (emu *Emulator) current() cpu.Address {
	regs := &emu.Cpu.Registers
	if regs.SC <= cpu.T1 || regs.R {
		return regs.PC
	}
	return (regs.PC - 1) & cpu.ADDRESS_MASK
}

// LineNo returns the source line number of the instruction being executed,
// or 0 if it was not assembled from source.
func (emu *Emulator) LineNo() int {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	return emu.lineNo(emu.current())
}

// Lines returns the source lines, in address order, that have been executed.
func (emu *Emulator) Lines() (lines []int) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	for entry := range emu.Cpu.Trace.All() {
		if entry.State != cpu.T1 || entry.Interrupt || entry.Cell == nil {
			continue
		}
		lineno := emu.lineNo(entry.Cell.Address)
		if lineno != 0 && !slices.Contains(lines, lineno) {
			lines = append(lines, lineno)
		}
	}

	slices.Sort(lines)

	return
}

// wrap annotates a runtime error with the instruction being executed.
func (emu *Emulator) wrap(err error) error {
	if err == nil || err == cpu.ErrNotAssembled {
		return err
	}

	addr := emu.current()

	return &ErrRuntime{
		LineNo:  emu.lineNo(addr),
		Address: addr,
		State:   emu.Cpu.Registers.SC,
		Err:     err,
	}
}

// Step performs a single timing state of the emulator.
func (emu *Emulator) Step() (state cpu.TimingState, halted bool, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.Cpu.Verbose = emu.Verbose

	state, halted, err = emu.Cpu.Step()
	err = emu.wrap(err)

	return
}

// RunInstruction completes the current instruction cycle.
func (emu *Emulator) RunInstruction() (steps int, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.Cpu.Verbose = emu.Verbose

	steps, err = emu.Cpu.RunInstruction()
	err = emu.wrap(err)

	return
}

// RunToHalt runs until the machine halts, or maxSteps micro-steps
// have been taken.
func (emu *Emulator) RunToHalt(maxSteps int) (steps int, err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	emu.Cpu.Verbose = emu.Verbose

	steps, err = emu.Cpu.RunToHalt(maxSteps)
	err = emu.wrap(err)

	return
}

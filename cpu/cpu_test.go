package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// testDevice is a scripted terminal.
type testDevice struct {
	input  []byte
	pos    int
	output []byte
	err    error
}

func (td *testDevice) Rewind() {
	td.pos = 0
}

func (td *testDevice) Receive() (ch byte, ok bool) {
	if td.pos >= len(td.input) {
		return
	}
	ch = td.input[td.pos]
	td.pos++
	return ch, true
}

func (td *testDevice) Send(ch byte) error {
	if td.err != nil {
		return td.err
	}
	td.output = append(td.output, ch)
	return nil
}

func assembledCpu(t *testing.T, size int, lines ...string) (cpu *Cpu) {
	prog, err := (&Assembler{}).Assemble(lines)
	if err != nil {
		t.Fatal(err)
	}

	cpu = NewCpu(size)
	err = cpu.Load(prog)
	if err != nil {
		t.Fatal(err)
	}

	return
}

func peek(cpu *Cpu, addr Address) Word {
	word, _ := cpu.Memory.Read(addr)
	return word
}

func TestCpu_Scenario(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0, "LOAD 5", "ADD 6", "STORE 7", "HALT")
	assert.NoError(cpu.Memory.Write(5, 3))
	assert.NoError(cpu.Memory.Write(6, 4))

	steps, err := cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal(21, steps)
	assert.Equal(21, cpu.Ticks)
	assert.Equal(21, cpu.Trace.Len())
	assert.True(cpu.Halted)
	assert.Equal(Word(7), cpu.Registers.AC)
	assert.Equal(Word(7), peek(cpu, 7))
	assert.Equal(T0, cpu.Registers.SC)

	last, ok := cpu.Trace.Last()
	assert.True(ok)
	assert.True(last.Halt)
	assert.Equal(T3, last.State)

	// A halted machine does nothing.
	state, halted, err := cpu.Step()
	assert.NoError(err)
	assert.True(halted)
	assert.Equal(T0, state)
	assert.Equal(21, cpu.Ticks)

	steps, err = cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal(0, steps)
}

func TestCpu_Fetch(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0, "CLA", "LDA 3", "HLT", "DEC 9")
	cpu.Registers.SetPC(1)

	state, halted, err := cpu.Step()
	assert.NoError(err)
	assert.False(halted)
	assert.Equal(T1, state)
	assert.Equal(Address(1), cpu.Registers.AR)

	state, _, err = cpu.Step()
	assert.NoError(err)
	assert.Equal(T2, state)
	assert.Equal(Word(0x2003), cpu.Registers.IR)
	assert.Equal(Address(2), cpu.Registers.PC)

	last, _ := cpu.Trace.Last()
	assert.Equal(&Cell{Address: 1, Word: 0x2003}, last.Cell)

	state, _, err = cpu.Step()
	assert.NoError(err)
	assert.Equal(T3, state)
	assert.Equal(Address(3), cpu.Registers.AR)
	assert.Equal(OP_LDA, cpu.Decoded().Op)

	steps, err := cpu.RunInstruction()
	assert.NoError(err)
	assert.Equal(3, steps)
	assert.Equal(Word(9), cpu.Registers.AC)
	assert.Equal(Word(9), cpu.Registers.DR)
	assert.Equal(T0, cpu.Registers.SC)
}

func TestCpu_ProgramCounterMask(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0, "CLA", "HLT")
	cpu.Registers.PC = 0x1001

	state, halted, err := cpu.Step()
	assert.NoError(err)
	assert.False(halted)
	assert.Equal(T1, state)
	assert.Equal(Address(1), cpu.Registers.PC)
	assert.Equal(Address(1), cpu.Registers.AR)

	_, err = cpu.RunToHalt(0)
	assert.NoError(err)
	assert.True(cpu.Halted)
	assert.Equal(Word(0x7001), cpu.Registers.IR)
}

func TestCpu_RunInstruction(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0, "LOAD 5", "ADD 6", "STORE 7", "HALT")

	table := []struct {
		steps int
		pc    Address
	}{
		{6, 1},
		{6, 2},
		{5, 3},
		{4, 4},
	}

	for _, entry := range table {
		steps, err := cpu.RunInstruction()
		assert.NoError(err)
		assert.Equal(entry.steps, steps)
		assert.Equal(entry.pc, cpu.Registers.PC)
	}

	assert.True(cpu.Halted)
}

func TestCpu_Indirect(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0,
		"     LDA PTR I",
		"     HLT",
		"PTR, HEX 3",
		"     DEC 42",
	)

	for range 4 {
		_, _, err := cpu.Step()
		assert.NoError(err)
	}
	assert.Equal(T4, cpu.Registers.SC)
	assert.Equal(Address(3), cpu.Registers.AR)

	steps, err := cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal(6, steps)
	assert.Equal(Word(42), cpu.Registers.AC)

	// A pointer outside of memory fails the indirection step.
	cpu = assembledCpu(t, 0,
		"     LDA PTR I",
		"     HLT",
		"PTR, HEX F003",
		"     DEC 42",
	)
	for range 3 {
		_, _, err := cpu.Step()
		assert.NoError(err)
	}

	regs := cpu.Registers.Snapshot()
	ticks := cpu.Ticks
	trace := cpu.Trace.Len()

	_, _, err = cpu.Step()
	assert.Equal(ErrOutOfRange(0xf003), err)
	assert.True(errors.Is(err, ErrOutOfRange(0)))
	assert.Equal(T3, cpu.Registers.SC)
	assert.Equal(regs, cpu.Registers)
	assert.Equal(ticks, cpu.Ticks)
	assert.Equal(trace, cpu.Trace.Len())

	// Once the pointer is repaired, execution resumes.
	assert.NoError(cpu.Memory.Write(2, 3))
	state, _, err := cpu.Step()
	assert.NoError(err)
	assert.Equal(T4, state)
	assert.Equal(Address(3), cpu.Registers.AR)

	_, err = cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal(Word(42), cpu.Registers.AC)
	assert.True(cpu.Halted)
}

func TestCpu_Subroutine(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0,
		"     BSA SUB",
		"     HLT",
		"SUB, HEX 0",
		"     INC",
		"     BUN SUB I",
	)

	steps, err := cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal(6+4+5+4, steps)
	assert.Equal(Word(1), cpu.Registers.AC)
	assert.Equal(Word(1), peek(cpu, 2))
	assert.Equal(Address(2), cpu.Registers.PC)
}

func TestCpu_Isz(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0,
		"LOOP, ISZ CNT",
		"      BUN LOOP",
		"      HLT",
		"CNT,  DEC -3",
	)

	steps, err := cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal(3*7+2*5+4, steps)
	assert.Equal(Word(0), peek(cpu, 3))
	assert.True(cpu.Halted)
}

func TestCpu_Memory(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		ins    string
		ac     Word
		e      bool
		value  Word
		result Word
		carry  bool
	}{
		{"AND V", 0xff0f, false, 0x0ff0, 0x0f00, false},
		{"ADD V", 0x0001, false, 0x0002, 0x0003, false},
		{"ADD V", 0xffff, false, 0x0001, 0x0000, true},
		{"ADD V", 0x8000, true, 0x0001, 0x8001, false},
		{"LDA V", 0x1234, true, 0xbeef, 0xbeef, true},
	}

	for _, entry := range table {
		cpu := assembledCpu(t, 0, entry.ins, "HLT", "V, HEX 0")
		assert.NoError(cpu.Memory.Write(2, entry.value))
		cpu.Registers.AC = entry.ac
		cpu.Registers.E = entry.e

		steps, err := cpu.RunInstruction()
		assert.NoError(err)
		assert.Equal(6, steps, entry.ins)
		assert.Equal(entry.result, cpu.Registers.AC, entry.ins)
		assert.Equal(entry.carry, cpu.Registers.E, entry.ins)
	}
}

func TestCpu_Register(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		ins string
		ac  Word
		e   bool
		rac Word
		re  bool
		pc  Address
	}{
		{"CLA", 0x1234, true, 0x0000, true, 1},
		{"CLE", 0x1234, true, 0x1234, false, 1},
		{"CMA", 0x00ff, false, 0xff00, false, 1},
		{"CME", 0x1234, false, 0x1234, true, 1},
		{"CIR", 0x0003, true, 0x8001, true, 1},
		{"CIR", 0x0002, false, 0x0001, false, 1},
		{"CIL", 0x8001, false, 0x0002, true, 1},
		{"CIL", 0x4000, true, 0x8001, false, 1},
		{"INC", 0xffff, false, 0x0000, false, 1},
		{"INC", 0x0001, false, 0x0002, false, 1},
		{"SPA", 0x0001, false, 0x0001, false, 2},
		{"SPA", 0x8000, false, 0x8000, false, 1},
		{"SNA", 0x8000, false, 0x8000, false, 2},
		{"SNA", 0x7fff, false, 0x7fff, false, 1},
		{"SZA", 0x0000, false, 0x0000, false, 2},
		{"SZA", 0x0001, false, 0x0001, false, 1},
		{"SZE", 0x0000, false, 0x0000, false, 2},
		{"SZE", 0x0000, true, 0x0000, true, 1},
	}

	for _, entry := range table {
		cpu := assembledCpu(t, 0, entry.ins, "HLT", "HLT")
		cpu.Registers.AC = entry.ac
		cpu.Registers.E = entry.e

		steps, err := cpu.RunInstruction()
		assert.NoError(err)
		assert.Equal(4, steps, entry.ins)
		assert.Equal(entry.rac, cpu.Registers.AC, entry.ins)
		assert.Equal(entry.re, cpu.Registers.E, entry.ins)
		assert.Equal(entry.pc, cpu.Registers.PC, entry.ins)
		assert.False(cpu.Halted, entry.ins)
	}
}

func TestCpu_Exhausted(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0, "CLA")

	steps, err := cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal(5, steps)
	assert.True(cpu.Halted)

	last, _ := cpu.Trace.Last()
	assert.Equal(T0, last.State)
	assert.True(last.Halt)
}

func TestCpu_UnknownWord(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0, "HEX 7003", "HLT")

	steps, err := cpu.RunInstruction()
	assert.NoError(err)
	assert.Equal(4, steps)
	assert.Equal(Address(1), cpu.Registers.PC)
	assert.False(cpu.Halted)
}

func TestCpu_Interrupt(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0,
		"ZRO,  HEX 0",
		"      BUN ISR",
		"      ORG 0x10",
		"      ION",
		"      HLT",
		"      ORG 0x20",
		"ISR,  INC",
		"      BUN ZRO I",
	)
	cpu.Registers.SetPC(0x10)

	steps, err := cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal(4+3+5+4+5+4, steps)
	assert.True(cpu.Halted)
	assert.Equal(Word(1), cpu.Registers.AC)
	assert.Equal(Word(0x11), peek(cpu, 0))
	assert.False(cpu.Registers.IEN)
	assert.False(cpu.Registers.R)

	interrupts := []TimingState{}
	for entry := range cpu.Trace.All() {
		if entry.Interrupt {
			interrupts = append(interrupts, entry.State)
		}
	}
	assert.Equal([]TimingState{T0, T1, T2}, interrupts)
}

func TestCpu_Device(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0,
		"LOOP, SKI",
		"      BUN LOOP",
		"      INP",
		"      OUT",
		"      HLT",
	)
	device := &testDevice{input: []byte("A")}
	cpu.Device = device
	cpu.Reset()

	_, err := cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal([]byte("A"), device.output)
	assert.Equal(Word(0x41), cpu.Registers.AC)
	assert.Equal(byte(0x41), cpu.Registers.OUTR)
	assert.Equal(byte(0x41), cpu.Registers.INPR)
	assert.False(cpu.Registers.FGI)

	// The input is replayed after a reset.
	cpu.Reset()
	assert.Equal(0, device.pos)
	_, err = cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal([]byte("AA"), device.output)
}

func TestCpu_DeviceError(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0, "OUT", "HLT")
	device := &testDevice{err: errors.New("broken")}
	cpu.Device = device

	_, err := cpu.RunToHalt(0)
	assert.True(errors.Is(err, ErrDevice))
	assert.True(errors.Is(err, device.err))

	// The failed step was not applied, and may be retried.
	assert.Equal(T3, cpu.Registers.SC)
	assert.Equal(3, cpu.Ticks)
	assert.True(cpu.Registers.FGO)

	device.err = nil
	_, err = cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal([]byte{0}, device.output)
}

func TestCpu_StepLimit(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0, "LOOP, BUN LOOP")

	steps, err := cpu.RunToHalt(100)
	assert.Equal(ErrStepLimit, err)
	assert.Equal(100, steps)
	assert.Equal(100, cpu.Ticks)
	assert.False(cpu.Halted)

	// Execution may be resumed.
	steps, err = cpu.RunToHalt(3)
	assert.Equal(ErrStepLimit, err)
	assert.Equal(3, steps)
	assert.Equal(103, cpu.Ticks)
}

func TestCpu_NotAssembled(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(0)

	_, _, err := cpu.Step()
	assert.Equal(ErrNotAssembled, err)

	_, err = cpu.RunInstruction()
	assert.Equal(ErrNotAssembled, err)

	_, err = cpu.RunToHalt(0)
	assert.Equal(ErrNotAssembled, err)
}

func TestCpu_OutOfRange(t *testing.T) {
	assert := assert.New(t)

	for _, ins := range []string{"LDA 0x100", "STA 0x100", "ISZ 0x100", "BSA 0x100", "LDA PTR I"} {
		cpu := assembledCpu(t, 16, ins, "HLT", "PTR, HEX 100")

		// The indirection step fails for a pointer past a small memory.
		steps := 4
		if strings.HasSuffix(ins, " I") {
			steps = 3
		}
		for range steps {
			_, _, err := cpu.Step()
			assert.NoError(err, ins)
		}

		regs := cpu.Registers.Snapshot()
		ticks := cpu.Ticks
		trace := cpu.Trace.Len()

		_, _, err := cpu.Step()
		assert.Equal(ErrOutOfRange(0x100), err, ins)
		assert.Equal(regs, cpu.Registers, ins)
		assert.Equal(ticks, cpu.Ticks, ins)
		assert.Equal(trace, cpu.Trace.Len(), ins)
		assert.Equal(Word(0x100), peek(cpu, 2), ins)

		_, err = cpu.RunToHalt(0)
		assert.True(errors.Is(err, ErrOutOfRange(0)), ins)
	}

	// A program that does not fit is not loaded.
	cpu := assembledCpu(t, 16, "CLA", "HLT")
	prog, err := (&Assembler{}).Assemble([]string{"ORG 0x20", "HLT"})
	assert.NoError(err)

	err = cpu.Load(prog)
	assert.Equal(ErrOutOfRange(0x20), err)
	assert.Equal(Word(0x7800), peek(cpu, 0))
	assert.Equal(Address(2), cpu.Program.End())
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu := assembledCpu(t, 0, "LOAD 5", "ADD 6", "STORE 7", "HALT")
	assert.NoError(cpu.Memory.Write(5, 3))
	assert.NoError(cpu.Memory.Write(6, 4))

	_, err := cpu.RunToHalt(0)
	assert.NoError(err)

	cpu.Reset()
	assert.Equal(Registers{}, cpu.Registers)
	assert.Equal(0, cpu.Trace.Len())
	assert.Equal(0, cpu.Ticks)
	assert.False(cpu.Halted)
	assert.Equal(Word(7), peek(cpu, 7))

	// Memory still holds the operands.
	_, err = cpu.RunToHalt(0)
	assert.NoError(err)
	assert.Equal(Word(7), cpu.Registers.AC)
}

func TestStepCount(t *testing.T) {
	assert := assert.New(t)

	table := map[Code]int{
		0x0005: 6, // AND
		0x1005: 6, // ADD
		0x2005: 6, // LDA
		0x3005: 5, // STA
		0x4005: 5, // BUN
		0x5005: 6, // BSA
		0x6005: 7, // ISZ
		0xa005: 6, // LDA I
		0x7800: 4, // CLA
		0x7001: 4, // HLT
		0xf800: 4, // INP
		0x7003: 4, // unknown
	}

	for code, count := range table {
		assert.Equal(count, StepCount(DefaultIsa.Decode(code)), code.String())
	}
}

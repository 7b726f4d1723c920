package cpu

import (
	"errors"
	"log"
)

const (
	DEFAULT_STEP_LIMIT = 1 << 20 // Micro-step bound used by RunToHalt when none is given.
)

// Device is an input/output device attached to INPR and OUTR.
type Device interface {
	// Rewind resets the device to its initial state.
	Rewind()
	// Receive returns the next input character, if one is available.
	Receive() (ch byte, ok bool)
	// Send writes a character from OUTR.
	Send(ch byte) error
}

// Cpu is the simulation context for the Basic Computer.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Isa       *InstructionSet // Instruction set used for decode; nil for DefaultIsa.
	Memory    *Memory         // Main memory.
	Registers Registers       // Register file.
	Trace     Trace           // History of executed timing states.
	Device    Device          // Input/output device, if any.
	Program   *Program        // Loaded program, or nil.
	Halted    bool            // Set once the machine has halted.

	Ticks int // Micro-steps executed since reset.
}

// NewCpu creates a new CPU with a specifically sized memory.
func NewCpu(size int) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: NewMemory(size),
	}

	return
}

func (cpu *Cpu) isa() *InstructionSet {
	if cpu.Isa == nil {
		return DefaultIsa
	}
	return cpu.Isa
}

// Load installs a program: memory is cleared, the program image is
// written, and the CPU is reset. If any word of the image does not fit
// in memory, nothing is changed.
func (cpu *Cpu) Load(prog *Program) (err error) {
	for addr := range prog.Image() {
		if int(addr) >= cpu.Memory.Size() {
			err = ErrOutOfRange(addr)
			return
		}
	}

	cpu.Memory.Clear()
	err = cpu.Memory.Load(prog.Image())
	if err != nil {
		return
	}

	cpu.Program = prog
	cpu.Reset()

	return
}

// Reset the CPU state.
// - Clears the register file and sequence counter.
// - Clears the trace.
// - Leaves the halt state.
// - Rewinds the device.
//
// Memory is not changed.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Registers.Reset()
	cpu.Trace.Clear()
	cpu.Halted = false
	cpu.Ticks = 0

	if cpu.Device != nil {
		cpu.Device.Rewind()
	}
}

// Decoded returns the decode of the instruction register.
func (cpu *Cpu) Decoded() Decoded {
	return cpu.isa().Decode(Code(cpu.Registers.IR))
}

// poll updates the device flags at the start of an instruction cycle,
// and raises R if an enabled flag is pending.
func (cpu *Cpu) poll(regs *Registers) {
	if !regs.FGI && cpu.Device != nil {
		ch, ok := cpu.Device.Receive()
		if ok {
			regs.INPR = ch
			regs.FGI = true
		}
	}

	// The output device is always idle by the next instruction cycle.
	regs.FGO = true

	if regs.IEN && (regs.FGI || regs.FGO) {
		regs.R = true
	}
}

// Step executes a single timing state, returning the next timing state,
// and if the machine is halted.
//
// On error, nothing of the failing micro-operation is applied, and the
// step may be retried.
func (cpu *Cpu) Step() (state TimingState, halted bool, err error) {
	if cpu.Program == nil {
		err = ErrNotAssembled
		return
	}

	if cpu.Halted {
		return cpu.Registers.SC, true, nil
	}

	cy := &cycle{
		mem:  cpu.Memory,
		regs: cpu.Registers,
	}

	sc := cy.regs.SC
	last := false
	interrupt := false

	var op MicroOp
	switch {
	case sc == T0 && !cy.regs.R:
		cy.regs.SetPC(cy.regs.PC)
		cpu.poll(&cy.regs)
		if !cy.regs.R && cy.regs.PC >= cpu.Program.End() {
			op = MicroOp{Label: f("halt, PC past end of program")}
			cy.halt = true
			last = true
			break
		}
		interrupt = cy.regs.R
		if interrupt {
			op = interruptOps[sc]
		} else {
			op = fetchOps[sc]
		}
	case cy.regs.R && int(sc) < len(interruptOps):
		interrupt = true
		op = interruptOps[sc]
		last = int(sc) == len(interruptOps)-1
	case int(sc) < len(fetchOps):
		op = fetchOps[sc]
	default:
		cy.dec = cpu.Decoded()
		ops := Microprogram(cy.dec)
		n := int(sc) - len(fetchOps)
		if n >= len(ops) {
			// Only reachable if the instruction register was altered
			// mid-cycle; end the cycle.
			op = nopOp
			last = true
			break
		}
		op = ops[n]
		last = n == len(ops)-1
	}

	if op.Exec != nil {
		err = op.Exec(cy)
		if err != nil {
			return
		}
	}

	if cy.write {
		err = cpu.Memory.Write(cy.cell.Address, cy.cell.Word)
		if err != nil {
			return
		}
	}

	if cy.output != nil && cpu.Device != nil {
		err = cpu.Device.Send(*cy.output)
		if err != nil {
			err = errors.Join(ErrDevice, err)
			return
		}
	}

	if last || cy.halt {
		cy.regs.SC = T0
	} else {
		cy.regs.SC = sc + 1
	}

	if cpu.Verbose {
		log.Printf("%03x: %v %v", cpu.Registers.PC, sc, op.Label)
	}

	cpu.Registers = cy.regs
	cpu.Halted = cy.halt
	cpu.Ticks++

	cpu.Trace.Record(TraceEntry{
		State:     sc,
		Label:     op.Label,
		Registers: cpu.Registers.Snapshot(),
		Cell:      cy.cell,
		Interrupt: interrupt,
		Halt:      cy.halt,
	})

	return cpu.Registers.SC, cpu.Halted, nil
}

// RunInstruction steps until the instruction cycle completes, or the
// machine halts, returning the number of micro-steps taken.
func (cpu *Cpu) RunInstruction() (steps int, err error) {
	return cpu.runInstruction(-1)
}

// runInstruction is RunInstruction, taking at most budget steps if
// budget is not negative.
func (cpu *Cpu) runInstruction(budget int) (steps int, err error) {
	for budget < 0 || steps < budget {
		if cpu.Program != nil && cpu.Halted {
			return
		}

		var state TimingState
		var halted bool
		state, halted, err = cpu.Step()
		if err != nil {
			return
		}
		steps++

		if halted || state == T0 {
			return
		}
	}

	return
}

// RunToHalt runs instructions until the machine halts. No more than
// maxSteps micro-steps are executed; if the machine has not halted by
// then ErrStepLimit is returned, and execution may be resumed.
// A maxSteps of zero or less uses DEFAULT_STEP_LIMIT.
func (cpu *Cpu) RunToHalt(maxSteps int) (steps int, err error) {
	if maxSteps <= 0 {
		maxSteps = DEFAULT_STEP_LIMIT
	}

	if cpu.Program == nil {
		err = ErrNotAssembled
		return
	}

	for !cpu.Halted {
		if steps >= maxSteps {
			err = ErrStepLimit
			return
		}

		var n int
		n, err = cpu.runInstruction(maxSteps - steps)
		steps += n
		if err != nil {
			return
		}
	}

	return
}

package cpu

import (
	"fmt"
	"iter"
	"slices"
)

// TraceEntry records the machine state after one timing state.
type TraceEntry struct {
	State     TimingState // Timing state that was executed.
	Label     string      // Micro-operation text.
	Registers Registers   // Register file after the micro-operation.
	Cell      *Cell       // Memory cell referenced, if any.
	Interrupt bool        // Set if part of the interrupt cycle.
	Halt      bool        // Set if the micro-operation halted the machine.
}

func (te TraceEntry) String() (text string) {
	text = fmt.Sprintf("%v: %v", te.State, te.Label)
	if te.Interrupt {
		text = "R" + text
	}
	if te.Cell != nil {
		text += fmt.Sprintf(" [M[%03X]=%04X]", uint16(te.Cell.Address), uint16(te.Cell.Word))
	}
	return
}

// Trace is the append-only history of executed timing states.
type Trace struct {
	entries []TraceEntry
}

// Record appends an entry.
func (tr *Trace) Record(entry TraceEntry) {
	if entry.Cell != nil {
		cell := *entry.Cell
		entry.Cell = &cell
	}
	tr.entries = append(tr.entries, entry)
}

// Clear drops all entries.
func (tr *Trace) Clear() {
	tr.entries = nil
}

// Len returns the number of entries.
func (tr *Trace) Len() int {
	return len(tr.entries)
}

// All iterates over the entries, oldest first.
func (tr *Trace) All() iter.Seq[TraceEntry] {
	return slices.Values(tr.entries)
}

// Entries returns a copy of the entries, oldest first.
func (tr *Trace) Entries() []TraceEntry {
	return slices.Clone(tr.entries)
}

// Last returns the most recent entry.
func (tr *Trace) Last() (entry TraceEntry, ok bool) {
	if len(tr.entries) == 0 {
		return
	}

	return tr.entries[len(tr.entries)-1], true
}

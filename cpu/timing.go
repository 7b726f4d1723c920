package cpu

// TimingState is the sequence counter value within an instruction cycle.
type TimingState int

//go:generate go tool stringer -linecomment -type=TimingState
const (
	T0 = TimingState(0) // T0
	T1 = TimingState(1) // T1
	T2 = TimingState(2) // T2
	T3 = TimingState(3) // T3
	T4 = TimingState(4) // T4
	T5 = TimingState(5) // T5
	T6 = TimingState(6) // T6
)

package emulator

import (
	"github.com/ezrec/mano/cpu"
	"github.com/ezrec/mano/translate"
)

var f = translate.From

// ErrRuntime locates a runtime error: the source line, the address of the
// instruction, and the timing state that failed.
type ErrRuntime struct {
	LineNo  int
	Address cpu.Address
	State   cpu.TimingState
	Err     error
}

func (err *ErrRuntime) Error() string {
	return f("line %d (%03X %v) %v", err.LineNo, uint16(err.Address), err.State, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

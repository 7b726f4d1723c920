package cpu

import (
	"errors"

	"github.com/ezrec/mano/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrNotAssembled = errors.New(f("no program assembled"))
	ErrStepLimit    = errors.New(f("step limit exceeded"))
	ErrDevice       = errors.New(f("device"))

	// Instruction set table errors
	ErrIsaDuplicate = errors.New(f("instruction duplicated"))
	ErrIsaPattern   = errors.New(f("instruction pattern invalid"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeIndirect     = errors.New(f("indirect not permitted"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrAddressRange       = errors.New(f("address out of range"))
	ErrAddressDuplicate   = errors.New(f("address already assembled"))
	ErrValueRange         = errors.New(f("value out of range"))
)

// ErrOutOfRange reports a memory access outside of the installed memory.
type ErrOutOfRange Address

func (eo ErrOutOfRange) Error() string {
	return f("address 0x%04x out of range", uint16(eo))
}

// Is matches any ErrOutOfRange, regardless of the address.
func (eo ErrOutOfRange) Is(err error) (ok bool) {
	_, ok = err.(ErrOutOfRange)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrSyntax reports the source line that failed to assemble.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

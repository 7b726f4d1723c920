// Package io provides the input/output devices of the Basic Computer.
//
// A device is polled by the CPU at the start of each instruction cycle: an
// available input character is latched into INPR and raises FGI, and the
// output device is ready (FGO) once the previous character was sent.
package io

import (
	"io"

	"github.com/ezrec/mano/cpu"
)

// Terminal provides character input and output over byte streams.
// Input should not block, as it is read while the CPU polls for input.
type Terminal struct {
	Input  io.Reader
	Output io.Writer

	eof bool // Set once Input has been exhausted.
}

var _ cpu.Device = (*Terminal)(nil)

// Rewind seeks the input back to the start, if possible.
func (tc *Terminal) Rewind() {
	tc.eof = false

	seeker, ok := tc.Input.(io.Seeker)
	if ok {
		_, err := seeker.Seek(0, io.SeekStart)
		if err != nil {
			tc.eof = true
		}
	}
}

// Receive returns the next character of the input stream.
func (tc *Terminal) Receive() (ch byte, ok bool) {
	if tc.Input == nil || tc.eof {
		return
	}

	var one [1]byte
	n, err := tc.Input.Read(one[:])
	if n == 1 {
		return one[0], true
	}
	if err != nil {
		tc.eof = true
	}

	return
}

// Send writes a character to the output stream. Without an output
// stream the character is discarded.
func (tc *Terminal) Send(ch byte) (err error) {
	if tc.Output == nil {
		return
	}

	n, err := tc.Output.Write([]byte{ch})
	if err == nil && n != 1 {
		err = io.ErrShortWrite
	}

	return
}

// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/mano/internal"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":       "0",
	"MEMORY_SIZE":  fmt.Sprintf("%d", MEMORY_SIZE),
	"WORD_MASK":    fmt.Sprintf("%#x", WORD_MASK),
	"ADDRESS_MASK": fmt.Sprintf("%#x", ADDRESS_MASK),
}

var (
	reLabel     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reCharacter = regexp.MustCompile(`'\\?[^']'`)
	reParen     = regexp.MustCompile(`\$\([^\$]*\)`)
)

// Assembler is a two pass assembler for the Basic Computer.
//
// Source lines have the form:
//
//	[LABEL, | LABEL:] MNEMONIC [OPERAND] [I]   ; comment
//
// where OPERAND is a number, a label, an equate, or a $(...) expression.
// A word starting with '/' also begins a comment.
type Assembler struct {
	Verbose bool            // If set, verbosely logs the assembler actions.
	Isa     *InstructionSet // Instruction set to encode with; nil for DefaultIsa.
	Opcode  []Opcode        // List of generated opcodes.

	predefine map[string]string  // Predefines
	Label     map[string]Address // Map of labels to addresses.
	Equate    map[string]string  // Map of equates.

	location int             // Location counter.
	used     map[Address]int // Map of assembled addresses to line numbers.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Symbols returns the system equates followed by the predefines.
func (asm *Assembler) Symbols() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(sysEquate), maps.All(asm.predefine))
}

func (asm *Assembler) isa() *InstructionSet {
	if asm.Isa == nil {
		return DefaultIsa
	}
	return asm.Isa
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber("~")
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word)
		return
	}
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = int64(^uint16(value))
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int64
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(int(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine expands a single line into words, and records labels and equates.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	// '/' comments
	for n, word := range words {
		if strings.HasPrefix(word, "/") {
			words = words[:n]
			break
		}
	}

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 || !reLabel.MatchString(words[1]) {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for len(words) > 0 && (strings.HasSuffix(words[0], ",") || strings.HasSuffix(words[0], ":")) {
		label := words[0][:len(words[0])-1]
		if !reLabel.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = Address(asm.location)
		words = words[1:]
	}

	return
}

// Assemble assembles a list of source lines.
func (asm *Assembler) Assemble(lines []string) (prog *Program, err error) {
	return asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
}

// Parse parses an input stream into a Program.
//
// The Program is only returned if the whole input assembles.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Opcode = asm.Opcode[:0]
	asm.Label = make(map[string]Address, 16)
	asm.used = make(map[Address]int)
	asm.location = 0
	asm.Equate = make(map[string]string, len(sysEquate)+len(asm.predefine))
	for attr, val := range asm.Symbols() {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		var end bool
		end, err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
		if end {
			break
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		addr, ok := asm.Label[op.LinkLabel]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(op.LinkLabel)
			return
		}
		op.Code = MakeCodeMemory(op.Code.Opcode(), addr, op.Code.Indirect())
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
		Labels:  maps.Clone(asm.Label),
	}

	return
}

// emit places a word at the location counter.
func (asm *Assembler) emit(words []string, lineno int, code Code, label string) (err error) {
	if asm.location > ADDRESS_MASK {
		err = ErrAddressRange
		return
	}

	addr := Address(asm.location)
	_, ok := asm.used[addr]
	if ok {
		err = ErrAddressDuplicate
		return
	}
	asm.used[addr] = lineno

	if asm.Verbose {
		log.Printf("%03X: %04X %v", uint16(addr), uint16(code), words)
	}

	asm.Opcode = append(asm.Opcode, Opcode{
		LineNo:    lineno,
		Address:   addr,
		Words:     words,
		Code:      code,
		LinkLabel: label,
	})
	asm.location++

	return
}

// parseWords evaluates the words in a line of assembly text.
// Returns end as true on the END pseudo-operation.
func (asm *Assembler) parseWords(words []string, lineno int) (end bool, err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	mnemonic := strings.ToUpper(words[0])
	args := words[1:]

	one := func() (arg string, err error) {
		switch {
		case len(args) == 0:
			err = ErrOpcodeValueMissing
		case len(args) > 1:
			err = ErrOpcodeExtraArgs
		default:
			arg = args[0]
		}
		return
	}

	switch mnemonic {
	case "ORG":
		var arg string
		var value int64
		arg, err = one()
		if err != nil {
			return
		}
		value, err = asm.valueOf(arg)
		if err != nil {
			return
		}
		if value < 0 || value > ADDRESS_MASK {
			err = ErrAddressRange
			return
		}
		asm.location = int(value)
	case "END":
		if len(args) != 0 {
			err = ErrOpcodeExtraArgs
			return
		}
		end = true
	case "DEC":
		var arg string
		var value int64
		arg, err = one()
		if err != nil {
			return
		}
		value, err = asm.valueOf(arg)
		if err != nil {
			return
		}
		if value < -0x8000 || value > WORD_MASK {
			err = ErrValueRange
			return
		}
		err = asm.emit(words, lineno, Code(uint16(value)), "")
	case "HEX":
		var arg string
		var value uint64
		arg, err = one()
		if err != nil {
			return
		}
		value, err = strconv.ParseUint(strings.TrimPrefix(strings.ToLower(arg), "0x"), 16, 16)
		if err != nil {
			err = ErrParseNumber(arg)
			return
		}
		err = asm.emit(words, lineno, Code(value), "")
	default:
		ins, ok := asm.isa().Lookup(mnemonic)
		if !ok {
			err = ErrInstructionInvalid
			return
		}

		indirect := false
		if len(args) > 0 && strings.EqualFold(args[len(args)-1], "I") {
			indirect = true
			args = args[:len(args)-1]
		}

		if ins.Class != CLASS_MEMORY {
			if indirect {
				err = ErrOpcodeIndirect
				return
			}
			if len(args) != 0 {
				err = ErrOpcodeExtraArgs
				return
			}
			var code Code
			code, err = asm.isa().Encode(mnemonic, 0, false)
			if err != nil {
				return
			}
			err = asm.emit(words, lineno, code, "")
			return
		}

		var arg string
		arg, err = one()
		if err != nil {
			return
		}

		var addr int64
		var label string
		if reLabel.MatchString(arg) {
			label = arg
		} else {
			addr, err = asm.valueOf(arg)
			if err != nil {
				return
			}
			if addr < 0 || addr > ADDRESS_MASK {
				err = ErrAddressRange
				return
			}
		}

		var code Code
		code, err = asm.isa().Encode(mnemonic, Address(addr), indirect)
		if err != nil {
			return
		}
		err = asm.emit(words, lineno, code, label)
	}

	return
}

// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/ezrec/mano/cpu"
	"github.com/ezrec/mano/emulator"
	"github.com/ezrec/mano/translate"
)

func main() {
	var compile string
	var maxSteps int
	var trace bool
	var listing bool
	var input string
	var output string
	var lang string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble and run")
	flag.IntVar(&maxSteps, "n", cpu.DEFAULT_STEP_LIMIT, "Maximum micro-steps to run")
	flag.BoolVar(&trace, "t", false, "Print the timing state trace")
	flag.BoolVar(&listing, "l", false, "Print the assembled listing, do not execute")
	flag.StringVar(&input, "i", "", "Terminal input")
	flag.StringVar(&output, "o", "-", "Terminal output")
	flag.StringVar(&lang, "lang", "", "Message language (BCP 47)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(lang) != 0 {
		translate.Use(lang)
	}

	if len(compile) == 0 {
		log.Fatalf("%v: no source given (-c)", os.Args[0])
	}

	inf, err := os.Open(compile)
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}
	var lines []string
	scanner := bufio.NewScanner(inf)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	inf.Close()
	if err = scanner.Err(); err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	prog, err := emu.Assemble(lines)
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	if listing {
		for _, op := range prog.Opcodes {
			fmt.Printf("%03X: %04X  %4d  %v\n", uint16(op.Address), uint16(op.Code), op.LineNo, strings.Join(op.Words, " "))
		}
		return
	}

	if len(input) != 0 {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Terminal.Input = inf
	}

	if output == "-" {
		emu.Terminal.Output = os.Stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Terminal.Output = ouf
	}

	emu.Reset()
	steps, err := emu.RunToHalt(maxSteps)

	if trace {
		for _, entry := range emu.Trace() {
			regs := entry.Registers
			fmt.Fprintf(os.Stderr, "%-48v IR=%04X AC=%04X DR=%04X PC=%03X AR=%03X E=%v\n",
				entry, uint16(regs.IR), uint16(regs.AC), uint16(regs.DR), uint16(regs.PC), uint16(regs.AR), regs.E)
		}
	}

	if verbose {
		pp.Fprintln(os.Stderr, emu.Registers())
		log.Printf("%v: %d micro-steps", compile, steps)
	}

	if err != nil {
		log.Fatal(err)
	}
}

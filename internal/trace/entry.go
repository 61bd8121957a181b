// Package trace reads, writes and compares per-instruction CPU traces in the
// format of the nestest reference log:
//
//	C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7
//
// Each line holds the state before the instruction at PC executes.
package trace

import (
	"fmt"
	"strings"

	"github.com/moriano/locones/internal/cpu"
)

// Entry is one trace line.
type Entry struct {
	// Line is the 1-based source line, zero for observed entries.
	Line int

	PC    uint16
	Bytes []uint8
	// Mnemonic is the bare three-letter name, e.g. "NOP" for "*NOP".
	Mnemonic   string
	Unofficial bool
	// Text is the full disassembly, e.g. "LDA ($80),Y = 0200 @ 0200 = 5A".
	Text string

	A, X, Y, P, SP uint8

	Scanline, Dot int
	HasPPU        bool

	Cycles    uint64
	HasCycles bool
}

// Observe records the state before exec ran. scanline and dot are the PPU
// position sampled before the step.
func Observe(exec cpu.Execution, scanline, dot int) Entry {
	return Entry{
		PC:         exec.PC,
		Bytes:      exec.Bytes(),
		Mnemonic:   exec.Instruction.Mnemonic.String(),
		Unofficial: exec.Instruction.Unofficial,
		Text:       exec.Instruction.Name(),
		A:          exec.Before.A,
		X:          exec.Before.X,
		Y:          exec.Before.Y,
		P:          exec.Before.P,
		SP:         exec.Before.SP,
		Scanline:   scanline,
		Dot:        dot,
		HasPPU:     true,
		Cycles:     exec.Before.Cycles,
		HasCycles:  true,
	}
}

// Format renders e with the bytes and operand text of a disassembly taken
// before the instruction executed.
func Format(e Entry, l cpu.Listing) string {
	e.Bytes = l.Bytes
	e.Text = l.Text()
	return e.String()
}

// String renders the entry as a nestest line.
func (e Entry) String() string {
	hex := make([]string, len(e.Bytes))
	for i, b := range e.Bytes {
		hex[i] = fmt.Sprintf("%02X", b)
	}

	// Official instructions keep a blank where unofficial ones print '*'.
	text := e.Text
	if text == "" {
		text = e.Mnemonic
		if e.Unofficial {
			text = "*" + text
		}
	}
	if !strings.HasPrefix(text, "*") {
		text = " " + text
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%04X  %-8s %-33sA:%02X X:%02X Y:%02X P:%02X SP:%02X",
		e.PC, strings.Join(hex, " "), text, e.A, e.X, e.Y, e.P, e.SP)
	if e.HasPPU {
		fmt.Fprintf(&sb, " PPU:%3d,%3d", e.Scanline, e.Dot)
	}
	if e.HasCycles {
		fmt.Fprintf(&sb, " CYC:%d", e.Cycles)
	}
	return sb.String()
}

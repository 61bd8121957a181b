package cpu

import (
	"fmt"
	"strings"
)

// Peeker reads memory without side effects, so a listing can show operand
// values without disturbing PPU or controller state.
type Peeker interface {
	Peek(address uint16) uint8
}

// Listing is the disassembly of the instruction at PC, annotated the way the
// nestest reference log prints it.
type Listing struct {
	PC          uint16
	Bytes       []uint8
	Instruction Instruction
	// Operand is the operand text, e.g. "($80),Y = 0200 @ 0205 = 5A".
	Operand string
}

// Hex returns the instruction bytes as space separated hex pairs.
func (l Listing) Hex() string {
	parts := make([]string, len(l.Bytes))
	for i, b := range l.Bytes {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// Text returns mnemonic and operand, e.g. "LDA #$10" or "*NOP $04 = 00".
func (l Listing) Text() string {
	if l.Operand == "" {
		return l.Instruction.Name()
	}
	return l.Instruction.Name() + " " + l.Operand
}

// Disassemble decodes the instruction at regs.PC using the register values in
// regs for the indexed annotations.
func Disassemble(mem Peeker, regs Registers) (Listing, error) {
	opcode := mem.Peek(regs.PC)
	inst := instructions[opcode]
	if inst == nil {
		return Listing{PC: regs.PC, Bytes: []uint8{opcode}}, &OpcodeError{Opcode: opcode, PC: regs.PC}
	}

	l := Listing{PC: regs.PC, Instruction: *inst}
	for i := uint16(0); i < uint16(inst.Bytes); i++ {
		l.Bytes = append(l.Bytes, mem.Peek(regs.PC+i))
	}
	var arg uint16
	if len(l.Bytes) > 1 {
		arg = uint16(l.Bytes[1])
	}
	if len(l.Bytes) > 2 {
		arg |= uint16(l.Bytes[2]) << 8
	}

	peekWord := func(lo, hi uint16) uint16 {
		return uint16(mem.Peek(hi))<<8 | uint16(mem.Peek(lo))
	}

	switch inst.Mode {
	case Implied:
	case Accumulator:
		l.Operand = "A"
	case Immediate:
		l.Operand = fmt.Sprintf("#$%02X", arg)
	case ZeroPage:
		l.Operand = fmt.Sprintf("$%02X = %02X", arg, mem.Peek(arg))
	case ZeroPageX, ZeroPageY:
		index, name := regs.X, "X"
		if inst.Mode == ZeroPageY {
			index, name = regs.Y, "Y"
		}
		address := (arg + uint16(index)) & zeroPageMask
		l.Operand = fmt.Sprintf("$%02X,%s @ %02X = %02X", arg, name, address, mem.Peek(address))
	case Relative:
		target := regs.PC + 2 + uint16(int16(int8(uint8(arg))))
		l.Operand = fmt.Sprintf("$%04X", target)
	case Absolute:
		if inst.Mnemonic == JMP || inst.Mnemonic == JSR {
			l.Operand = fmt.Sprintf("$%04X", arg)
		} else {
			l.Operand = fmt.Sprintf("$%04X = %02X", arg, mem.Peek(arg))
		}
	case AbsoluteX, AbsoluteY:
		index, name := regs.X, "X"
		if inst.Mode == AbsoluteY {
			index, name = regs.Y, "Y"
		}
		address := arg + uint16(index)
		l.Operand = fmt.Sprintf("$%04X,%s @ %04X = %02X", arg, name, address, mem.Peek(address))
	case Indirect:
		target := peekWord(arg, (arg&pageMask)|((arg+1)&zeroPageMask))
		l.Operand = fmt.Sprintf("($%04X) = %04X", arg, target)
	case IndexedIndirect:
		ptr := (arg + uint16(regs.X)) & zeroPageMask
		address := peekWord(ptr, (ptr+1)&zeroPageMask)
		l.Operand = fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", arg, ptr, address, mem.Peek(address))
	case IndirectIndexed:
		base := peekWord(arg, (arg+1)&zeroPageMask)
		address := base + uint16(regs.Y)
		l.Operand = fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", arg, base, address, mem.Peek(address))
	}
	return l, nil
}

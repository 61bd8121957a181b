package cpu

import "fmt"

// AddressingMode selects how an instruction's operand bytes become an
// effective address or value.
type AddressingMode uint8

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

var modeNames = [...]string{
	Implied:         "Implied",
	Accumulator:     "Accumulator",
	Immediate:       "Immediate",
	ZeroPage:        "ZeroPage",
	ZeroPageX:       "ZeroPageX",
	ZeroPageY:       "ZeroPageY",
	Relative:        "Relative",
	Absolute:        "Absolute",
	AbsoluteX:       "AbsoluteX",
	AbsoluteY:       "AbsoluteY",
	Indirect:        "Indirect",
	IndexedIndirect: "IndexedIndirect",
	IndirectIndexed: "IndirectIndexed",
}

func (m AddressingMode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("AddressingMode(%d)", uint8(m))
}

// Bytes is the instruction width for the mode, opcode included.
func (m AddressingMode) Bytes() uint8 {
	switch m {
	case Implied, Accumulator:
		return 1
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	default:
		return 2
	}
}

const (
	zeroPageMask = 0x00FF
	pageMask     = 0xFF00
)

// OperandKind tells the executor where an instruction's operand lives.
type OperandKind uint8

const (
	// NoOperand: implied instructions.
	NoOperand OperandKind = iota
	// AccumulatorOperand: the value is register A.
	AccumulatorOperand
	// ImmediateOperand: the value is carried in Operand.Value.
	ImmediateOperand
	// AddressOperand: the value lives on the bus at Operand.Address.
	AddressOperand
)

// Operand is the result of resolving an addressing mode. It is consumed by a
// single instruction and never stored.
type Operand struct {
	Kind        OperandKind
	Address     uint16
	Value       uint8
	PageCrossed bool
}

// Reader is the read half of the bus. Resolve only needs to read pointers.
type Reader interface {
	Read(address uint16) (uint8, error)
}

// Resolve computes the effective operand for mode. operand holds the raw
// instruction argument (little-endian for two-byte arguments) and regs must
// reflect the program counter already advanced past the instruction. Resolve
// never mutates CPU state; callers apply cycle penalties from PageCrossed.
func Resolve(mode AddressingMode, operand uint16, regs Registers, bus Reader) (Operand, error) {
	switch mode {
	case Implied:
		return Operand{Kind: NoOperand}, nil

	case Accumulator:
		return Operand{Kind: AccumulatorOperand, Value: regs.A}, nil

	case Immediate:
		return Operand{Kind: ImmediateOperand, Value: uint8(operand)}, nil

	case ZeroPage:
		return addressed(operand&zeroPageMask, false), nil

	case ZeroPageX:
		return addressed((operand+uint16(regs.X))&zeroPageMask, false), nil

	case ZeroPageY:
		return addressed((operand+uint16(regs.Y))&zeroPageMask, false), nil

	case Relative:
		target := regs.PC + uint16(int16(int8(uint8(operand))))
		return addressed(target, !samePage(regs.PC, target)), nil

	case Absolute:
		return addressed(operand, false), nil

	case AbsoluteX:
		address := operand + uint16(regs.X)
		return addressed(address, !samePage(operand, address)), nil

	case AbsoluteY:
		address := operand + uint16(regs.Y)
		return addressed(address, !samePage(operand, address)), nil

	case Indirect:
		// The high byte of the pointer never carries: a pointer at $xxFF
		// fetches its high byte from $xx00.
		hi := (operand & pageMask) | ((operand + 1) & zeroPageMask)
		address, err := readPointer(bus, operand, hi)
		if err != nil {
			return Operand{}, err
		}
		return addressed(address, false), nil

	case IndexedIndirect:
		ptr := (operand + uint16(regs.X)) & zeroPageMask
		address, err := readPointer(bus, ptr, (ptr+1)&zeroPageMask)
		if err != nil {
			return Operand{}, err
		}
		return addressed(address, false), nil

	case IndirectIndexed:
		ptr := operand & zeroPageMask
		base, err := readPointer(bus, ptr, (ptr+1)&zeroPageMask)
		if err != nil {
			return Operand{}, err
		}
		address := base + uint16(regs.Y)
		return addressed(address, !samePage(base, address)), nil
	}
	return Operand{}, fmt.Errorf("%w: %s", ErrAddressingMode, mode)
}

func addressed(address uint16, crossed bool) Operand {
	return Operand{Kind: AddressOperand, Address: address, PageCrossed: crossed}
}

func readPointer(bus Reader, lo, hi uint16) (uint16, error) {
	l, err := bus.Read(lo)
	if err != nil {
		return 0, err
	}
	h, err := bus.Read(hi)
	if err != nil {
		return 0, err
	}
	return uint16(h)<<8 | uint16(l), nil
}

func samePage(a, b uint16) bool {
	return a&pageMask == b&pageMask
}

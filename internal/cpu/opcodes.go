package cpu

import "fmt"

// Mnemonic identifies the operation an opcode performs.
type Mnemonic uint8

const (
	ADC Mnemonic = iota
	AND
	ASL
	BCC
	BCS
	BEQ
	BIT
	BMI
	BNE
	BPL
	BRK
	BVC
	BVS
	CLC
	CLD
	CLI
	CLV
	CMP
	CPX
	CPY
	DEC
	DEX
	DEY
	EOR
	INC
	INX
	INY
	JMP
	JSR
	LDA
	LDX
	LDY
	LSR
	NOP
	ORA
	PHA
	PHP
	PLA
	PLP
	ROL
	ROR
	RTI
	RTS
	SBC
	SEC
	SED
	SEI
	STA
	STX
	STY
	TAX
	TAY
	TSX
	TXA
	TXS
	TYA

	// Undocumented opcodes exercised by nestest.
	LAX
	SAX
	DCP
	ISB
	SLO
	RLA
	SRE
	RRA
)

var mnemonicNames = [...]string{
	ADC: "ADC", AND: "AND", ASL: "ASL", BCC: "BCC", BCS: "BCS", BEQ: "BEQ",
	BIT: "BIT", BMI: "BMI", BNE: "BNE", BPL: "BPL", BRK: "BRK", BVC: "BVC",
	BVS: "BVS", CLC: "CLC", CLD: "CLD", CLI: "CLI", CLV: "CLV", CMP: "CMP",
	CPX: "CPX", CPY: "CPY", DEC: "DEC", DEX: "DEX", DEY: "DEY", EOR: "EOR",
	INC: "INC", INX: "INX", INY: "INY", JMP: "JMP", JSR: "JSR", LDA: "LDA",
	LDX: "LDX", LDY: "LDY", LSR: "LSR", NOP: "NOP", ORA: "ORA", PHA: "PHA",
	PHP: "PHP", PLA: "PLA", PLP: "PLP", ROL: "ROL", ROR: "ROR", RTI: "RTI",
	RTS: "RTS", SBC: "SBC", SEC: "SEC", SED: "SED", SEI: "SEI", STA: "STA",
	STX: "STX", STY: "STY", TAX: "TAX", TAY: "TAY", TSX: "TSX", TXA: "TXA",
	TXS: "TXS", TYA: "TYA",
	LAX: "LAX", SAX: "SAX", DCP: "DCP", ISB: "ISB", SLO: "SLO", RLA: "RLA",
	SRE: "SRE", RRA: "RRA",
}

func (m Mnemonic) String() string {
	if int(m) < len(mnemonicNames) {
		return mnemonicNames[m]
	}
	return fmt.Sprintf("Mnemonic(%d)", uint8(m))
}

// Effect categorises an instruction by what it does with its operand. The
// category decides whether an indexed page crossing costs an extra cycle.
type Effect uint8

const (
	// Read instructions only consume their operand (loads, logic, compares,
	// arithmetic, register transfers).
	Read Effect = iota
	// Write instructions only store to their operand.
	Write
	// RMW instructions read, modify and write back the same cell.
	RMW
	// Flow instructions change the program counter (branches, JMP).
	Flow
	// Subroutine instructions are JSR and RTS.
	Subroutine
	// Interrupt instructions are BRK and RTI.
	Interrupt
	// Stack instructions push or pull a register.
	Stack
)

func (e Effect) String() string {
	switch e {
	case Read:
		return "Read"
	case Write:
		return "Write"
	case RMW:
		return "RMW"
	case Flow:
		return "Flow"
	case Subroutine:
		return "Subroutine"
	case Interrupt:
		return "Interrupt"
	case Stack:
		return "Stack"
	}
	return fmt.Sprintf("Effect(%d)", uint8(e))
}

// Instruction describes one entry of the opcode dispatch table.
type Instruction struct {
	Opcode     uint8
	Mnemonic   Mnemonic
	Mode       AddressingMode
	Bytes      uint8
	Cycles     uint8
	Effect     Effect
	Unofficial bool
}

// Name returns the mnemonic as nestest prints it: undocumented opcodes carry
// a leading star.
func (inst Instruction) Name() string {
	if inst.Unofficial {
		return "*" + inst.Mnemonic.String()
	}
	return inst.Mnemonic.String()
}

// PageSensitive reports whether an indexed page crossing adds a cycle.
func (inst Instruction) PageSensitive() bool {
	if inst.Effect != Read {
		return false
	}
	switch inst.Mode {
	case AbsoluteX, AbsoluteY, IndirectIndexed:
		return true
	}
	return false
}

func (inst Instruction) String() string {
	return fmt.Sprintf("%02X %s %s (%d bytes, %d cycles)", inst.Opcode, inst.Name(), inst.Mode, inst.Bytes, inst.Cycles)
}

// definition rows are {opcode, mnemonic, mode, cycles, effect}. The byte
// width follows from the addressing mode.
type definition struct {
	opcode   uint8
	mnemonic Mnemonic
	mode     AddressingMode
	cycles   uint8
	effect   Effect
}

var official = []definition{
	{0x69, ADC, Immediate, 2, Read}, {0x65, ADC, ZeroPage, 3, Read}, {0x75, ADC, ZeroPageX, 4, Read},
	{0x6D, ADC, Absolute, 4, Read}, {0x7D, ADC, AbsoluteX, 4, Read}, {0x79, ADC, AbsoluteY, 4, Read},
	{0x61, ADC, IndexedIndirect, 6, Read}, {0x71, ADC, IndirectIndexed, 5, Read},

	{0x29, AND, Immediate, 2, Read}, {0x25, AND, ZeroPage, 3, Read}, {0x35, AND, ZeroPageX, 4, Read},
	{0x2D, AND, Absolute, 4, Read}, {0x3D, AND, AbsoluteX, 4, Read}, {0x39, AND, AbsoluteY, 4, Read},
	{0x21, AND, IndexedIndirect, 6, Read}, {0x31, AND, IndirectIndexed, 5, Read},

	{0x0A, ASL, Accumulator, 2, RMW}, {0x06, ASL, ZeroPage, 5, RMW}, {0x16, ASL, ZeroPageX, 6, RMW},
	{0x0E, ASL, Absolute, 6, RMW}, {0x1E, ASL, AbsoluteX, 7, RMW},

	{0x90, BCC, Relative, 2, Flow}, {0xB0, BCS, Relative, 2, Flow}, {0xF0, BEQ, Relative, 2, Flow},
	{0x30, BMI, Relative, 2, Flow}, {0xD0, BNE, Relative, 2, Flow}, {0x10, BPL, Relative, 2, Flow},
	{0x50, BVC, Relative, 2, Flow}, {0x70, BVS, Relative, 2, Flow},

	{0x24, BIT, ZeroPage, 3, Read}, {0x2C, BIT, Absolute, 4, Read},

	{0x00, BRK, Implied, 7, Interrupt},

	{0x18, CLC, Implied, 2, Read}, {0xD8, CLD, Implied, 2, Read},
	{0x58, CLI, Implied, 2, Read}, {0xB8, CLV, Implied, 2, Read},

	{0xC9, CMP, Immediate, 2, Read}, {0xC5, CMP, ZeroPage, 3, Read}, {0xD5, CMP, ZeroPageX, 4, Read},
	{0xCD, CMP, Absolute, 4, Read}, {0xDD, CMP, AbsoluteX, 4, Read}, {0xD9, CMP, AbsoluteY, 4, Read},
	{0xC1, CMP, IndexedIndirect, 6, Read}, {0xD1, CMP, IndirectIndexed, 5, Read},

	{0xE0, CPX, Immediate, 2, Read}, {0xE4, CPX, ZeroPage, 3, Read}, {0xEC, CPX, Absolute, 4, Read},
	{0xC0, CPY, Immediate, 2, Read}, {0xC4, CPY, ZeroPage, 3, Read}, {0xCC, CPY, Absolute, 4, Read},

	{0xC6, DEC, ZeroPage, 5, RMW}, {0xD6, DEC, ZeroPageX, 6, RMW},
	{0xCE, DEC, Absolute, 6, RMW}, {0xDE, DEC, AbsoluteX, 7, RMW},
	{0xCA, DEX, Implied, 2, Read}, {0x88, DEY, Implied, 2, Read},

	{0x49, EOR, Immediate, 2, Read}, {0x45, EOR, ZeroPage, 3, Read}, {0x55, EOR, ZeroPageX, 4, Read},
	{0x4D, EOR, Absolute, 4, Read}, {0x5D, EOR, AbsoluteX, 4, Read}, {0x59, EOR, AbsoluteY, 4, Read},
	{0x41, EOR, IndexedIndirect, 6, Read}, {0x51, EOR, IndirectIndexed, 5, Read},

	{0xE6, INC, ZeroPage, 5, RMW}, {0xF6, INC, ZeroPageX, 6, RMW},
	{0xEE, INC, Absolute, 6, RMW}, {0xFE, INC, AbsoluteX, 7, RMW},
	{0xE8, INX, Implied, 2, Read}, {0xC8, INY, Implied, 2, Read},

	{0x4C, JMP, Absolute, 3, Flow}, {0x6C, JMP, Indirect, 5, Flow},
	{0x20, JSR, Absolute, 6, Subroutine},

	{0xA9, LDA, Immediate, 2, Read}, {0xA5, LDA, ZeroPage, 3, Read}, {0xB5, LDA, ZeroPageX, 4, Read},
	{0xAD, LDA, Absolute, 4, Read}, {0xBD, LDA, AbsoluteX, 4, Read}, {0xB9, LDA, AbsoluteY, 4, Read},
	{0xA1, LDA, IndexedIndirect, 6, Read}, {0xB1, LDA, IndirectIndexed, 5, Read},

	{0xA2, LDX, Immediate, 2, Read}, {0xA6, LDX, ZeroPage, 3, Read}, {0xB6, LDX, ZeroPageY, 4, Read},
	{0xAE, LDX, Absolute, 4, Read}, {0xBE, LDX, AbsoluteY, 4, Read},

	{0xA0, LDY, Immediate, 2, Read}, {0xA4, LDY, ZeroPage, 3, Read}, {0xB4, LDY, ZeroPageX, 4, Read},
	{0xAC, LDY, Absolute, 4, Read}, {0xBC, LDY, AbsoluteX, 4, Read},

	{0x4A, LSR, Accumulator, 2, RMW}, {0x46, LSR, ZeroPage, 5, RMW}, {0x56, LSR, ZeroPageX, 6, RMW},
	{0x4E, LSR, Absolute, 6, RMW}, {0x5E, LSR, AbsoluteX, 7, RMW},

	{0xEA, NOP, Implied, 2, Read},

	{0x09, ORA, Immediate, 2, Read}, {0x05, ORA, ZeroPage, 3, Read}, {0x15, ORA, ZeroPageX, 4, Read},
	{0x0D, ORA, Absolute, 4, Read}, {0x1D, ORA, AbsoluteX, 4, Read}, {0x19, ORA, AbsoluteY, 4, Read},
	{0x01, ORA, IndexedIndirect, 6, Read}, {0x11, ORA, IndirectIndexed, 5, Read},

	{0x48, PHA, Implied, 3, Stack}, {0x08, PHP, Implied, 3, Stack},
	{0x68, PLA, Implied, 4, Stack}, {0x28, PLP, Implied, 4, Stack},

	{0x2A, ROL, Accumulator, 2, RMW}, {0x26, ROL, ZeroPage, 5, RMW}, {0x36, ROL, ZeroPageX, 6, RMW},
	{0x2E, ROL, Absolute, 6, RMW}, {0x3E, ROL, AbsoluteX, 7, RMW},

	{0x6A, ROR, Accumulator, 2, RMW}, {0x66, ROR, ZeroPage, 5, RMW}, {0x76, ROR, ZeroPageX, 6, RMW},
	{0x6E, ROR, Absolute, 6, RMW}, {0x7E, ROR, AbsoluteX, 7, RMW},

	{0x40, RTI, Implied, 6, Interrupt}, {0x60, RTS, Implied, 6, Subroutine},

	{0xE9, SBC, Immediate, 2, Read}, {0xE5, SBC, ZeroPage, 3, Read}, {0xF5, SBC, ZeroPageX, 4, Read},
	{0xED, SBC, Absolute, 4, Read}, {0xFD, SBC, AbsoluteX, 4, Read}, {0xF9, SBC, AbsoluteY, 4, Read},
	{0xE1, SBC, IndexedIndirect, 6, Read}, {0xF1, SBC, IndirectIndexed, 5, Read},

	{0x38, SEC, Implied, 2, Read}, {0xF8, SED, Implied, 2, Read}, {0x78, SEI, Implied, 2, Read},

	{0x85, STA, ZeroPage, 3, Write}, {0x95, STA, ZeroPageX, 4, Write}, {0x8D, STA, Absolute, 4, Write},
	{0x9D, STA, AbsoluteX, 5, Write}, {0x99, STA, AbsoluteY, 5, Write},
	{0x81, STA, IndexedIndirect, 6, Write}, {0x91, STA, IndirectIndexed, 6, Write},

	{0x86, STX, ZeroPage, 3, Write}, {0x96, STX, ZeroPageY, 4, Write}, {0x8E, STX, Absolute, 4, Write},
	{0x84, STY, ZeroPage, 3, Write}, {0x94, STY, ZeroPageX, 4, Write}, {0x8C, STY, Absolute, 4, Write},

	{0xAA, TAX, Implied, 2, Read}, {0xA8, TAY, Implied, 2, Read}, {0xBA, TSX, Implied, 2, Read},
	{0x8A, TXA, Implied, 2, Read}, {0x9A, TXS, Implied, 2, Read}, {0x98, TYA, Implied, 2, Read},
}

// Cycle counts for the read-modify-write combinations follow the published
// undocumented opcode tables; none of them pays a page crossing penalty.
var unofficial = []definition{
	{0x1A, NOP, Implied, 2, Read}, {0x3A, NOP, Implied, 2, Read}, {0x5A, NOP, Implied, 2, Read},
	{0x7A, NOP, Implied, 2, Read}, {0xDA, NOP, Implied, 2, Read}, {0xFA, NOP, Implied, 2, Read},
	{0x80, NOP, Immediate, 2, Read}, {0x82, NOP, Immediate, 2, Read}, {0x89, NOP, Immediate, 2, Read},
	{0xC2, NOP, Immediate, 2, Read}, {0xE2, NOP, Immediate, 2, Read},
	{0x04, NOP, ZeroPage, 3, Read}, {0x44, NOP, ZeroPage, 3, Read}, {0x64, NOP, ZeroPage, 3, Read},
	{0x14, NOP, ZeroPageX, 4, Read}, {0x34, NOP, ZeroPageX, 4, Read}, {0x54, NOP, ZeroPageX, 4, Read},
	{0x74, NOP, ZeroPageX, 4, Read}, {0xD4, NOP, ZeroPageX, 4, Read}, {0xF4, NOP, ZeroPageX, 4, Read},
	{0x0C, NOP, Absolute, 4, Read},
	{0x1C, NOP, AbsoluteX, 4, Read}, {0x3C, NOP, AbsoluteX, 4, Read}, {0x5C, NOP, AbsoluteX, 4, Read},
	{0x7C, NOP, AbsoluteX, 4, Read}, {0xDC, NOP, AbsoluteX, 4, Read}, {0xFC, NOP, AbsoluteX, 4, Read},

	{0xA7, LAX, ZeroPage, 3, Read}, {0xB7, LAX, ZeroPageY, 4, Read}, {0xAF, LAX, Absolute, 4, Read},
	{0xBF, LAX, AbsoluteY, 4, Read}, {0xA3, LAX, IndexedIndirect, 6, Read}, {0xB3, LAX, IndirectIndexed, 5, Read},

	{0x87, SAX, ZeroPage, 3, Write}, {0x97, SAX, ZeroPageY, 4, Write},
	{0x8F, SAX, Absolute, 4, Write}, {0x83, SAX, IndexedIndirect, 6, Write},

	{0xEB, SBC, Immediate, 2, Read},

	{0xC7, DCP, ZeroPage, 5, RMW}, {0xD7, DCP, ZeroPageX, 6, RMW}, {0xCF, DCP, Absolute, 6, RMW},
	{0xDF, DCP, AbsoluteX, 7, RMW}, {0xDB, DCP, AbsoluteY, 7, RMW},
	{0xC3, DCP, IndexedIndirect, 8, RMW}, {0xD3, DCP, IndirectIndexed, 8, RMW},

	{0xE7, ISB, ZeroPage, 5, RMW}, {0xF7, ISB, ZeroPageX, 6, RMW}, {0xEF, ISB, Absolute, 6, RMW},
	{0xFF, ISB, AbsoluteX, 7, RMW}, {0xFB, ISB, AbsoluteY, 7, RMW},
	{0xE3, ISB, IndexedIndirect, 8, RMW}, {0xF3, ISB, IndirectIndexed, 8, RMW},

	{0x07, SLO, ZeroPage, 5, RMW}, {0x17, SLO, ZeroPageX, 6, RMW}, {0x0F, SLO, Absolute, 6, RMW},
	{0x1F, SLO, AbsoluteX, 7, RMW}, {0x1B, SLO, AbsoluteY, 7, RMW},
	{0x03, SLO, IndexedIndirect, 8, RMW}, {0x13, SLO, IndirectIndexed, 8, RMW},

	{0x27, RLA, ZeroPage, 5, RMW}, {0x37, RLA, ZeroPageX, 6, RMW}, {0x2F, RLA, Absolute, 6, RMW},
	{0x3F, RLA, AbsoluteX, 7, RMW}, {0x3B, RLA, AbsoluteY, 7, RMW},
	{0x23, RLA, IndexedIndirect, 8, RMW}, {0x33, RLA, IndirectIndexed, 8, RMW},

	{0x47, SRE, ZeroPage, 5, RMW}, {0x57, SRE, ZeroPageX, 6, RMW}, {0x4F, SRE, Absolute, 6, RMW},
	{0x5F, SRE, AbsoluteX, 7, RMW}, {0x5B, SRE, AbsoluteY, 7, RMW},
	{0x43, SRE, IndexedIndirect, 8, RMW}, {0x53, SRE, IndirectIndexed, 8, RMW},

	{0x67, RRA, ZeroPage, 5, RMW}, {0x77, RRA, ZeroPageX, 6, RMW}, {0x6F, RRA, Absolute, 6, RMW},
	{0x7F, RRA, AbsoluteX, 7, RMW}, {0x7B, RRA, AbsoluteY, 7, RMW},
	{0x63, RRA, IndexedIndirect, 8, RMW}, {0x73, RRA, IndirectIndexed, 8, RMW},
}

// instructions is indexed by opcode. A nil entry is an opcode the core does
// not emulate (KIL, ANC, ALR, ARR, XAA, AHX, TAS, SHX, SHY, LAS, AXS and the
// unstable LAX #imm).
var instructions = buildTable()

func buildTable() [256]*Instruction {
	var table [256]*Instruction
	add := func(defs []definition, undocumented bool) {
		for _, d := range defs {
			if table[d.opcode] != nil {
				panic(fmt.Sprintf("cpu: opcode %02X defined twice", d.opcode))
			}
			table[d.opcode] = &Instruction{
				Opcode:     d.opcode,
				Mnemonic:   d.mnemonic,
				Mode:       d.mode,
				Bytes:      d.mode.Bytes(),
				Cycles:     d.cycles,
				Effect:     d.effect,
				Unofficial: undocumented,
			}
		}
	}
	add(official, false)
	add(unofficial, true)
	return table
}

// Lookup returns the table entry for opcode.
func Lookup(opcode uint8) (Instruction, bool) {
	inst := instructions[opcode]
	if inst == nil {
		return Instruction{}, false
	}
	return *inst, true
}

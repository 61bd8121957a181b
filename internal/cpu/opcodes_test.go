package cpu

import (
	"fmt"
	"testing"
)

func TestOpcodeTableCoverage(t *testing.T) {
	var documented, undocumented int
	for op := 0; op < 256; op++ {
		inst, ok := Lookup(uint8(op))
		if !ok {
			continue
		}
		if inst.Opcode != uint8(op) {
			t.Errorf("Entry %02X reports opcode %02X", op, inst.Opcode)
		}
		if inst.Bytes != inst.Mode.Bytes() {
			t.Errorf("%s: width %d does not match mode", inst, inst.Bytes)
		}
		if inst.Unofficial {
			undocumented++
		} else {
			documented++
		}
	}
	if documented != 151 {
		t.Errorf("Expected 151 documented opcodes, got %d", documented)
	}
	if undocumented != 80 {
		t.Errorf("Expected 80 undocumented opcodes, got %d", undocumented)
	}
}

func TestInstructionName(t *testing.T) {
	tests := map[uint8]string{
		0xA9: "LDA",
		0xEB: "*SBC",
		0xE9: "SBC",
		0x04: "*NOP",
		0xEA: "NOP",
		0xC7: "*DCP",
		0xE7: "*ISB",
	}
	for op, want := range tests {
		inst, ok := Lookup(op)
		if !ok {
			t.Fatalf("Opcode %02X missing", op)
		}
		if got := inst.Name(); got != want {
			t.Errorf("Opcode %02X: Name() = %q, want %q", op, got, want)
		}
	}
}

func TestPageSensitive(t *testing.T) {
	tests := []struct {
		opcode uint8
		want   bool
	}{
		{0xBD, true},  // LDA abs,X
		{0xB1, true},  // LDA (zp),Y
		{0xBF, true},  // LAX abs,Y
		{0x1C, true},  // NOP abs,X
		{0xB5, false}, // LDA zp,X
		{0x9D, false}, // STA abs,X
		{0x91, false}, // STA (zp),Y
		{0x1E, false}, // ASL abs,X
		{0xDF, false}, // DCP abs,X
		{0xD3, false}, // DCP (zp),Y
	}
	for _, test := range tests {
		inst, _ := Lookup(test.opcode)
		if got := inst.PageSensitive(); got != test.want {
			t.Errorf("%s: PageSensitive() = %v, want %v", inst, got, test.want)
		}
	}
}

func TestCycleTiming(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		x, y    uint8
		setup   func(m *MockMemory)
		cycles  uint64
	}{
		{"LDA abs,X no cross", []uint8{0xBD, 0x00, 0x02}, 0x10, 0, nil, 4},
		{"LDA abs,X cross", []uint8{0xBD, 0xF8, 0x02}, 0x10, 0, nil, 5},
		{"LDA abs,Y cross", []uint8{0xB9, 0xF8, 0x02}, 0, 0x10, nil, 5},
		{"LDA (zp),Y no cross", []uint8{0xB1, 0x10}, 0, 0x01, func(m *MockMemory) { m.SetBytes(0x10, 0x00, 0x02) }, 5},
		{"LDA (zp),Y cross", []uint8{0xB1, 0x10}, 0, 0x10, func(m *MockMemory) { m.SetBytes(0x10, 0xF8, 0x02) }, 6},
		{"STA abs,X cross", []uint8{0x9D, 0xF8, 0x02}, 0x10, 0, nil, 5},
		{"STA (zp),Y cross", []uint8{0x91, 0x10}, 0, 0x10, func(m *MockMemory) { m.SetBytes(0x10, 0xF8, 0x02) }, 6},
		{"INC abs,X cross", []uint8{0xFE, 0xF8, 0x02}, 0x10, 0, nil, 7},
		{"NOP abs,X cross", []uint8{0x1C, 0xF8, 0x02}, 0x10, 0, nil, 5},
		{"LAX (zp),Y cross", []uint8{0xB3, 0x10}, 0, 0x10, func(m *MockMemory) { m.SetBytes(0x10, 0xF8, 0x02) }, 6},
		{"SLO (zp,X)", []uint8{0x03, 0x10}, 0, 0, func(m *MockMemory) { m.SetBytes(0x10, 0x00, 0x02) }, 8},
		{"RRA abs,Y cross", []uint8{0x7B, 0xF8, 0x02}, 0, 0x10, nil, 7},
		{"PHA", []uint8{0x48}, 0, 0, nil, 3},
		{"PLP", []uint8{0x28}, 0, 0, nil, 4},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := NewCPUTestHelper(t)
			h.LoadProgram(test.program...)
			h.CPU.X, h.CPU.Y = test.x, test.y
			if test.setup != nil {
				test.setup(h.Memory)
			}

			exec := h.MustStep(t)

			if exec.Cycles != test.cycles {
				t.Errorf("Expected %d cycles, got %d", test.cycles, exec.Cycles)
			}
			if h.CPU.Cycles() != 7+test.cycles {
				t.Errorf("Expected total %d cycles, got %d", 7+test.cycles, h.CPU.Cycles())
			}
		})
	}
}

// opcodeMatrix is the published 6502 opcode matrix, row by high nibble.
// Each cell is "name mode cycles"; "-" marks an opcode the core rejects.
var opcodeMatrix = [16][16]string{
	{"BRK imp 7", "ORA izx 6", "-", "*SLO izx 8", "*NOP zp 3", "ORA zp 3", "ASL zp 5", "*SLO zp 5", "PHP imp 3", "ORA imm 2", "ASL acc 2", "-", "*NOP abs 4", "ORA abs 4", "ASL abs 6", "*SLO abs 6"},
	{"BPL rel 2", "ORA izy 5", "-", "*SLO izy 8", "*NOP zpx 4", "ORA zpx 4", "ASL zpx 6", "*SLO zpx 6", "CLC imp 2", "ORA aby 4", "*NOP imp 2", "*SLO aby 7", "*NOP abx 4", "ORA abx 4", "ASL abx 7", "*SLO abx 7"},
	{"JSR abs 6", "AND izx 6", "-", "*RLA izx 8", "BIT zp 3", "AND zp 3", "ROL zp 5", "*RLA zp 5", "PLP imp 4", "AND imm 2", "ROL acc 2", "-", "BIT abs 4", "AND abs 4", "ROL abs 6", "*RLA abs 6"},
	{"BMI rel 2", "AND izy 5", "-", "*RLA izy 8", "*NOP zpx 4", "AND zpx 4", "ROL zpx 6", "*RLA zpx 6", "SEC imp 2", "AND aby 4", "*NOP imp 2", "*RLA aby 7", "*NOP abx 4", "AND abx 4", "ROL abx 7", "*RLA abx 7"},
	{"RTI imp 6", "EOR izx 6", "-", "*SRE izx 8", "*NOP zp 3", "EOR zp 3", "LSR zp 5", "*SRE zp 5", "PHA imp 3", "EOR imm 2", "LSR acc 2", "-", "JMP abs 3", "EOR abs 4", "LSR abs 6", "*SRE abs 6"},
	{"BVC rel 2", "EOR izy 5", "-", "*SRE izy 8", "*NOP zpx 4", "EOR zpx 4", "LSR zpx 6", "*SRE zpx 6", "CLI imp 2", "EOR aby 4", "*NOP imp 2", "*SRE aby 7", "*NOP abx 4", "EOR abx 4", "LSR abx 7", "*SRE abx 7"},
	{"RTS imp 6", "ADC izx 6", "-", "*RRA izx 8", "*NOP zp 3", "ADC zp 3", "ROR zp 5", "*RRA zp 5", "PLA imp 4", "ADC imm 2", "ROR acc 2", "-", "JMP ind 5", "ADC abs 4", "ROR abs 6", "*RRA abs 6"},
	{"BVS rel 2", "ADC izy 5", "-", "*RRA izy 8", "*NOP zpx 4", "ADC zpx 4", "ROR zpx 6", "*RRA zpx 6", "SEI imp 2", "ADC aby 4", "*NOP imp 2", "*RRA aby 7", "*NOP abx 4", "ADC abx 4", "ROR abx 7", "*RRA abx 7"},
	{"*NOP imm 2", "STA izx 6", "*NOP imm 2", "*SAX izx 6", "STY zp 3", "STA zp 3", "STX zp 3", "*SAX zp 3", "DEY imp 2", "*NOP imm 2", "TXA imp 2", "-", "STY abs 4", "STA abs 4", "STX abs 4", "*SAX abs 4"},
	{"BCC rel 2", "STA izy 6", "-", "-", "STY zpx 4", "STA zpx 4", "STX zpy 4", "*SAX zpy 4", "TYA imp 2", "STA aby 5", "TXS imp 2", "-", "-", "STA abx 5", "-", "-"},
	{"LDY imm 2", "LDA izx 6", "LDX imm 2", "*LAX izx 6", "LDY zp 3", "LDA zp 3", "LDX zp 3", "*LAX zp 3", "TAY imp 2", "LDA imm 2", "TAX imp 2", "-", "LDY abs 4", "LDA abs 4", "LDX abs 4", "*LAX abs 4"},
	{"BCS rel 2", "LDA izy 5", "-", "*LAX izy 5", "LDY zpx 4", "LDA zpx 4", "LDX zpy 4", "*LAX zpy 4", "CLV imp 2", "LDA aby 4", "TSX imp 2", "-", "LDY abx 4", "LDA abx 4", "LDX aby 4", "*LAX aby 4"},
	{"CPY imm 2", "CMP izx 6", "*NOP imm 2", "*DCP izx 8", "CPY zp 3", "CMP zp 3", "DEC zp 5", "*DCP zp 5", "INY imp 2", "CMP imm 2", "DEX imp 2", "-", "CPY abs 4", "CMP abs 4", "DEC abs 6", "*DCP abs 6"},
	{"BNE rel 2", "CMP izy 5", "-", "*DCP izy 8", "*NOP zpx 4", "CMP zpx 4", "DEC zpx 6", "*DCP zpx 6", "CLD imp 2", "CMP aby 4", "*NOP imp 2", "*DCP aby 7", "*NOP abx 4", "CMP abx 4", "DEC abx 7", "*DCP abx 7"},
	{"CPX imm 2", "SBC izx 6", "*NOP imm 2", "*ISB izx 8", "CPX zp 3", "SBC zp 3", "INC zp 5", "*ISB zp 5", "INX imp 2", "SBC imm 2", "NOP imp 2", "*SBC imm 2", "CPX abs 4", "SBC abs 4", "INC abs 6", "*ISB abs 6"},
	{"BEQ rel 2", "SBC izy 5", "-", "*ISB izy 8", "*NOP zpx 4", "SBC zpx 4", "INC zpx 6", "*ISB zpx 6", "SED imp 2", "SBC aby 4", "*NOP imp 2", "*ISB aby 7", "*NOP abx 4", "SBC abx 4", "INC abx 7", "*ISB abx 7"},
}

var matrixModes = map[string]struct {
	mode  AddressingMode
	bytes uint8
}{
	"imp": {Implied, 1},
	"acc": {Accumulator, 1},
	"imm": {Immediate, 2},
	"zp":  {ZeroPage, 2},
	"zpx": {ZeroPageX, 2},
	"zpy": {ZeroPageY, 2},
	"rel": {Relative, 2},
	"abs": {Absolute, 3},
	"abx": {AbsoluteX, 3},
	"aby": {AbsoluteY, 3},
	"ind": {Indirect, 3},
	"izx": {IndexedIndirect, 2},
	"izy": {IndirectIndexed, 2},
}

func TestOpcodeMatrix(t *testing.T) {
	for hi := 0; hi < 16; hi++ {
		for lo := 0; lo < 16; lo++ {
			opcode := uint8(hi<<4 | lo)
			cell := opcodeMatrix[hi][lo]
			inst, ok := Lookup(opcode)

			if cell == "-" {
				if ok {
					t.Errorf("Opcode %02X: expected no entry, got %s", opcode, inst)
				}
				continue
			}
			if !ok {
				t.Errorf("Opcode %02X: missing, want %s", opcode, cell)
				continue
			}

			var name, mode string
			var cycles uint8
			if _, err := fmt.Sscanf(cell, "%s %s %d", &name, &mode, &cycles); err != nil {
				t.Fatalf("Bad matrix cell %q: %v", cell, err)
			}
			want, found := matrixModes[mode]
			if !found {
				t.Fatalf("Bad matrix mode %q", mode)
			}

			if inst.Name() != name {
				t.Errorf("Opcode %02X: name %q, want %q", opcode, inst.Name(), name)
			}
			if inst.Mode != want.mode {
				t.Errorf("Opcode %02X: mode %s, want %s", opcode, inst.Mode, want.mode)
			}
			if inst.Bytes != want.bytes {
				t.Errorf("Opcode %02X: %d bytes, want %d", opcode, inst.Bytes, want.bytes)
			}
			if inst.Cycles != cycles {
				t.Errorf("Opcode %02X: %d cycles, want %d", opcode, inst.Cycles, cycles)
			}
		}
	}
}

package trace

import (
	"fmt"
	"strings"
)

// CompareOptions selects the optional fields of a comparison.
type CompareOptions struct {
	// CheckPPU compares scanline and dot when the expected entry has them.
	CheckPPU bool
}

// FieldDiff is one differing field, rendered in trace notation.
type FieldDiff struct {
	Field    string
	Expected string
	Actual   string
}

func (d FieldDiff) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", d.Field, d.Expected, d.Actual)
}

// Mismatch is a conformance failure: every field that differs between a
// reference entry and the observed one.
type Mismatch struct {
	Expected Entry
	Actual   Entry
	Fields   []FieldDiff
}

func (m *Mismatch) Error() string {
	diffs := make([]string, len(m.Fields))
	for i, d := range m.Fields {
		diffs[i] = d.String()
	}
	return fmt.Sprintf("trace: line %d at $%04X: %s", m.Expected.Line, m.Expected.PC, strings.Join(diffs, "; "))
}

// Has reports whether field is among the differences.
func (m *Mismatch) Has(field string) bool {
	for _, d := range m.Fields {
		if d.Field == field {
			return true
		}
	}
	return false
}

// Compare diffs actual against expected. It returns nil when they agree.
// Mnemonics are compared without the unofficial marker, cycles only when
// the reference carries them.
func Compare(expected, actual Entry, opts CompareOptions) *Mismatch {
	m := &Mismatch{Expected: expected, Actual: actual}
	hex16 := func(field string, e, a uint16) {
		if e != a {
			m.Fields = append(m.Fields, FieldDiff{field, fmt.Sprintf("%04X", e), fmt.Sprintf("%04X", a)})
		}
	}
	hex8 := func(field string, e, a uint8) {
		if e != a {
			m.Fields = append(m.Fields, FieldDiff{field, fmt.Sprintf("%02X", e), fmt.Sprintf("%02X", a)})
		}
	}

	hex16("PC", expected.PC, actual.PC)
	if !strings.EqualFold(expected.Mnemonic, actual.Mnemonic) {
		m.Fields = append(m.Fields, FieldDiff{"Instruction", expected.Mnemonic, actual.Mnemonic})
	}
	hex8("A", expected.A, actual.A)
	hex8("X", expected.X, actual.X)
	hex8("Y", expected.Y, actual.Y)
	hex8("P", expected.P, actual.P)
	hex8("SP", expected.SP, actual.SP)
	if expected.HasCycles && expected.Cycles != actual.Cycles {
		m.Fields = append(m.Fields, FieldDiff{"CYC", fmt.Sprint(expected.Cycles), fmt.Sprint(actual.Cycles)})
	}
	if opts.CheckPPU && expected.HasPPU &&
		(expected.Scanline != actual.Scanline || expected.Dot != actual.Dot) {
		m.Fields = append(m.Fields, FieldDiff{"PPU",
			fmt.Sprintf("%3d,%3d", expected.Scanline, expected.Dot),
			fmt.Sprintf("%3d,%3d", actual.Scanline, actual.Dot)})
	}

	if len(m.Fields) == 0 {
		return nil
	}
	return m
}

package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedLine is wrapped by every ParseError.
var ErrMalformedLine = errors.New("malformed trace line")

// ParseError reports a line that could not be decoded.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace: line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrMalformedLine }

// The register block. Older logs print "CYC:ddd SL:sss" where CYC is the PPU
// dot; newer ones print "PPU:sss,ddd CYC:n" (or "CPUC:n") with CPU cycles.
var registerPattern = regexp.MustCompile(
	`^A:([0-9A-Fa-f]{2}) X:([0-9A-Fa-f]{2}) Y:([0-9A-Fa-f]{2}) P:([0-9A-Fa-f]{2}) SP:([0-9A-Fa-f]{2})` +
		`(?:\s+PPU:\s*(\d+),\s*(\d+))?` +
		`(?:\s+(CYC|CPUC):\s*(\d+))?` +
		`(?:\s+SL:\s*(-?\d+))?\s*$`)

// ParseLine decodes one trace line. line is only used in errors and Entry.Line.
func ParseLine(text string, line int) (Entry, error) {
	text = strings.TrimRight(text, "\r\n")
	fail := func(format string, args ...any) (Entry, error) {
		return Entry{}, &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
	}

	if len(text) < 4 {
		return fail("too short")
	}
	pc, err := strconv.ParseUint(text[:4], 16, 16)
	if err != nil {
		return fail("bad address %q", text[:4])
	}

	regs := strings.LastIndex(text, " A:")
	if regs < 0 {
		return fail("missing register block")
	}
	m := registerPattern.FindStringSubmatch(text[regs+1:])
	if m == nil {
		return fail("bad register block %q", strings.TrimSpace(text[regs+1:]))
	}

	e := Entry{Line: line, PC: uint16(pc)}
	for i, dst := range []*uint8{&e.A, &e.X, &e.Y, &e.P, &e.SP} {
		v, _ := strconv.ParseUint(m[i+1], 16, 8)
		*dst = uint8(v)
	}

	switch {
	case m[10] != "":
		// Old format: CYC is the dot and SL the scanline, no CPU cycles.
		e.HasPPU = true
		e.Scanline, _ = strconv.Atoi(m[10])
		if m[9] != "" {
			e.Dot, _ = strconv.Atoi(m[9])
		}
	default:
		if m[6] != "" {
			e.HasPPU = true
			e.Scanline, _ = strconv.Atoi(m[6])
			e.Dot, _ = strconv.Atoi(m[7])
		}
		if m[9] != "" {
			e.HasCycles = true
			e.Cycles, _ = strconv.ParseUint(m[9], 10, 64)
		}
	}

	if err := e.parseInstruction(text[4:regs]); err != nil {
		return fail("%v", err)
	}
	return e, nil
}

// parseInstruction decodes "  4C F5 C5  JMP $C5F5   ".
func (e *Entry) parseInstruction(s string) error {
	fields := strings.Fields(s)
	for len(fields) > 0 && len(e.Bytes) < 3 && isHexByte(fields[0]) {
		v, _ := strconv.ParseUint(fields[0], 16, 8)
		e.Bytes = append(e.Bytes, uint8(v))
		fields = fields[1:]
	}
	if len(e.Bytes) == 0 {
		return errors.New("missing instruction bytes")
	}
	if len(fields) == 0 {
		return errors.New("missing mnemonic")
	}

	e.Text = strings.Join(fields, " ")
	name := fields[0]
	if strings.HasPrefix(name, "*") {
		e.Unofficial = true
		name = name[1:]
	}
	if len(name) != 3 {
		return fmt.Errorf("bad mnemonic %q", fields[0])
	}
	e.Mnemonic = strings.ToUpper(name)
	return nil
}

func isHexByte(s string) bool {
	if len(s) != 2 {
		return false
	}
	_, err := strconv.ParseUint(s, 16, 8)
	return err == nil
}

// Reader yields the entries of a trace, skipping blank lines and the
// indented bus-operation annotations some logs interleave.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next entry, or io.EOF when the trace is exhausted.
func (r *Reader) Next() (Entry, error) {
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		if strings.TrimSpace(text) == "" || text[0] == ' ' || text[0] == '\t' {
			continue
		}
		return ParseLine(text, r.line)
	}
	if err := r.scanner.Err(); err != nil {
		return Entry{}, fmt.Errorf("trace: reading line %d: %w", r.line+1, err)
	}
	return Entry{}, io.EOF
}

// ReadAll parses every remaining entry.
func (r *Reader) ReadAll() ([]Entry, error) {
	var entries []Entry
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}

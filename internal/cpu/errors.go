package cpu

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOpcode is returned by Step for opcodes missing from the
	// dispatch table.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrAddressingMode is returned when an instruction is paired with an
	// addressing mode it cannot use, such as a store without an address.
	ErrAddressingMode = errors.New("unsupported addressing mode")
)

// OpcodeError reports where an unknown opcode was fetched.
type OpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("%v $%02X at $%04X", ErrUnknownOpcode, e.Opcode, e.PC)
}

func (e *OpcodeError) Unwrap() error { return ErrUnknownOpcode }

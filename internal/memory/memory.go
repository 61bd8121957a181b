// Package memory implements the NES CPU memory map.
package memory

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
)

const (
	ramSize   = 0x0800
	ramMask   = 0x07FF
	ppuMask   = 0x0007
	ppuBase   = 0x2000
	apuBase   = 0x4000
	apuEnd    = 0x4017
	prgBase   = 0x8000
	upperBank = 0xC000
	bankSize  = 0x4000
)

var (
	// ErrUnmapped is returned for accesses to ranges the system does not
	// model ($4018-$7FFF: APU test registers, expansion ROM and SRAM).
	ErrUnmapped = errors.New("unmapped address")

	// ErrNoCartridge is returned for PRG-ROM reads with no cartridge inserted.
	ErrNoCartridge = errors.New("no cartridge inserted")

	// ErrReadOnly is returned for writes to PRG-ROM.
	ErrReadOnly = errors.New("write to read-only PRG-ROM")
)

// AddressError describes a failed bus access.
type AddressError struct {
	Op      string // "read" or "write"
	Address uint16
	Err     error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("memory: %s $%04X: %v", e.Op, e.Address, e.Err)
}

func (e *AddressError) Unwrap() error { return e.Err }

// PPUInterface is the 8-register surface mirrored through $2000-$3FFF.
// Registers are numbered 0-7.
type PPUInterface interface {
	ReadRegister(register uint8) uint8
	WriteRegister(register uint8, value uint8)
	// PeekRegister reads without side effects such as clearing vblank.
	PeekRegister(register uint8) uint8
}

// APUInterface is the register block at $4000-$4017, indexed from 0.
type APUInterface interface {
	ReadRegister(register uint8) uint8
	WriteRegister(register uint8, value uint8)
}

// CartridgeInterface exposes PRG-ROM by logical offset.
type CartridgeInterface interface {
	ReadPRG(offset int) uint8
	PRGSize() int
}

// Memory represents the NES CPU address space.
type Memory struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [ramSize]uint8

	ppu       PPUInterface
	apu       APUInterface
	cartridge CartridgeInterface
}

// New creates a new Memory instance. The cartridge may be nil and inserted
// later.
func New(ppu PPUInterface, apu APUInterface, cart CartridgeInterface) *Memory {
	mem := &Memory{
		ppu:       ppu,
		apu:       apu,
		cartridge: cart,
	}
	mem.Reset()
	return mem
}

// InsertCartridge replaces the cartridge.
func (m *Memory) InsertCartridge(cart CartridgeInterface) {
	m.cartridge = cart
}

// Reset restores the power-up RAM contents: $FF everywhere except a few
// zero-page cells observed on RP2A03G consoles.
func (m *Memory) Reset() {
	for i := range m.ram {
		m.ram[i] = 0xFF
	}
	m.ram[0x0008] = 0xF7
	m.ram[0x0009] = 0xEF
	m.ram[0x000A] = 0xDF
	m.ram[0x000F] = 0xBF
}

// Read reads a byte from the given address
func (m *Memory) Read(address uint16) (uint8, error) {
	switch {
	case address < ppuBase:
		return m.ram[address&ramMask], nil

	case address < apuBase:
		return m.ppu.ReadRegister(uint8(address & ppuMask)), nil

	case address <= apuEnd:
		return m.apu.ReadRegister(uint8(address - apuBase)), nil

	case address < prgBase:
		return 0, &AddressError{Op: "read", Address: address, Err: ErrUnmapped}
	}

	offset, err := m.prgOffset(address)
	if err != nil {
		return 0, &AddressError{Op: "read", Address: address, Err: err}
	}
	return m.cartridge.ReadPRG(offset), nil
}

// Write writes a byte to the given address. PRG-ROM has no mapper registers
// behind it, so writes there fail.
func (m *Memory) Write(address uint16, value uint8) error {
	switch {
	case address < ppuBase:
		m.ram[address&ramMask] = value

	case address < apuBase:
		m.ppu.WriteRegister(uint8(address&ppuMask), value)

	case address <= apuEnd:
		m.apu.WriteRegister(uint8(address-apuBase), value)

	case address < prgBase:
		return &AddressError{Op: "write", Address: address, Err: ErrUnmapped}

	default:
		if m.cartridge == nil {
			return &AddressError{Op: "write", Address: address, Err: ErrNoCartridge}
		}
		glog.V(2).Infof("memory: rejected write $%02X to PRG-ROM $%04X", value, address)
		return &AddressError{Op: "write", Address: address, Err: ErrReadOnly}
	}
	return nil
}

// Peek reads without side effects. Unmapped addresses read as zero.
func (m *Memory) Peek(address uint16) uint8 {
	switch {
	case address < ppuBase:
		return m.ram[address&ramMask]
	case address < apuBase:
		return m.ppu.PeekRegister(uint8(address & ppuMask))
	case address <= apuEnd:
		return m.apu.ReadRegister(uint8(address - apuBase))
	case address < prgBase:
		return 0
	}
	offset, err := m.prgOffset(address)
	if err != nil {
		return 0
	}
	return m.cartridge.ReadPRG(offset)
}

// prgOffset maps $8000-$FFFF onto PRG-ROM. $8000-$BFFF is the first 16KB
// bank and $C000-$FFFF the last one, so a 16KB image is mirrored and a 32KB
// image is addressed linearly.
func (m *Memory) prgOffset(address uint16) (int, error) {
	if m.cartridge == nil {
		return 0, ErrNoCartridge
	}
	size := m.cartridge.PRGSize()
	if size < bankSize {
		return 0, fmt.Errorf("PRG-ROM of %d bytes is smaller than one bank", size)
	}
	if address < upperBank {
		return int(address - prgBase), nil
	}
	return int(address-upperBank) + size - bankSize, nil
}

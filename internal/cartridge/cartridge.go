// Package cartridge implements ROM loading and parsing for NES cartridges.
package cartridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
)

const (
	headerSize  = 16
	trainerSize = 512
	// PRGBankSize and CHRBankSize are the iNES size units.
	PRGBankSize = 0x4000
	CHRBankSize = 0x2000
)

var (
	ErrInvalidHeader     = errors.New("invalid iNES header")
	ErrUnsupportedMapper = errors.New("unsupported mapper")
	ErrTruncated         = errors.New("truncated ROM image")
)

// Mirroring is the nametable arrangement wired on the board.
type Mirroring uint8

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorFourScreen
)

func (m Mirroring) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorFourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("Mirroring(%d)", uint8(m))
}

// TVSystem is the video standard flagged in byte 9.
type TVSystem uint8

const (
	NTSC TVSystem = iota
	PAL
)

func (s TVSystem) String() string {
	if s == PAL {
		return "PAL"
	}
	return "NTSC"
}

// Header is the decoded iNES header.
type Header struct {
	PRGBanks     int // 16KB units
	CHRBanks     int // 8KB units, 0 means CHR-RAM
	MapperNumber uint8
	Mirroring    Mirroring
	HasTrainer   bool
	HasBattery   bool
	PRGRAMBanks  int // 8KB units
	TVSystem     TVSystem
}

// PRGSize is the PRG-ROM size in bytes.
func (h Header) PRGSize() int { return h.PRGBanks * PRGBankSize }

// CHRSize is the CHR-ROM size in bytes.
func (h Header) CHRSize() int { return h.CHRBanks * CHRBankSize }

// iNES header structure
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // in 16KB units
	CHRROMSize uint8 // in 8KB units
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8
	Flags9     uint8
	Flags10    uint8
	Padding    [5]uint8
}

const magic = "NES\x1A"

func (raw iNESHeader) decode() (Header, error) {
	if string(raw.Magic[:]) != magic {
		return Header{}, fmt.Errorf("%w: bad magic % X", ErrInvalidHeader, raw.Magic)
	}
	if raw.PRGROMSize == 0 {
		return Header{}, fmt.Errorf("%w: PRG-ROM size is zero", ErrInvalidHeader)
	}

	h := Header{
		PRGBanks:    int(raw.PRGROMSize),
		CHRBanks:    int(raw.CHRROMSize),
		HasTrainer:  raw.Flags6&0x04 != 0,
		HasBattery:  raw.Flags6&0x02 != 0,
		PRGRAMBanks: int(raw.PRGRAMSize),
	}

	upper := raw.Flags7 & 0xF0
	// Old dumping tools scribbled a signature over bytes 7-15; their upper
	// mapper nibble is garbage.
	if raw.Padding[1] != 0 || raw.Padding[2] != 0 || raw.Padding[3] != 0 || raw.Padding[4] != 0 {
		upper = 0
	}
	h.MapperNumber = raw.Flags6>>4 | upper

	switch {
	case raw.Flags6&0x08 != 0:
		h.Mirroring = MirrorFourScreen
	case raw.Flags6&0x01 != 0:
		h.Mirroring = MirrorVertical
	default:
		h.Mirroring = MirrorHorizontal
	}
	if raw.Flags9&0x01 != 0 {
		h.TVSystem = PAL
	}
	if h.PRGRAMBanks == 0 {
		// Zero means one bank for compatibility.
		h.PRGRAMBanks = 1
	}
	return h, nil
}

func (h Header) encode() iNESHeader {
	raw := iNESHeader{
		PRGROMSize: uint8(h.PRGBanks),
		CHRROMSize: uint8(h.CHRBanks),
		Flags6:     h.MapperNumber << 4,
		Flags7:     h.MapperNumber & 0xF0,
		PRGRAMSize: uint8(h.PRGRAMBanks),
	}
	copy(raw.Magic[:], magic)
	switch h.Mirroring {
	case MirrorVertical:
		raw.Flags6 |= 0x01
	case MirrorFourScreen:
		raw.Flags6 |= 0x08
	}
	if h.HasBattery {
		raw.Flags6 |= 0x02
	}
	if h.HasTrainer {
		raw.Flags6 |= 0x04
	}
	if h.TVSystem == PAL {
		raw.Flags9 |= 0x01
	}
	return raw
}

// Cartridge represents a NES cartridge
type Cartridge struct {
	Header Header

	prgROM  []uint8
	chrROM  []uint8
	trainer []uint8
	// CHR-RAM boards have no CHR-ROM; an 8KB zeroed block stands in.
	hasCHRRAM bool
}

// LoadFromFile loads a cartridge from an iNES file
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open ROM: %w", err)
	}
	defer file.Close()

	cart, err := LoadFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	glog.Infof("cartridge: loaded %s (mapper %d, PRG %dKB, CHR %dKB, %s mirroring, %s)",
		filename, cart.Header.MapperNumber, cart.Header.PRGSize()/1024, cart.Header.CHRSize()/1024,
		cart.Header.Mirroring, cart.Header.TVSystem)
	return cart, nil
}

// LoadFromReader loads a cartridge from an io.Reader
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var raw iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}
	header, err := raw.decode()
	if err != nil {
		return nil, err
	}

	var trainer []uint8
	if header.HasTrainer {
		trainer = make([]uint8, trainerSize)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, fmt.Errorf("%w: reading trainer: %v", ErrTruncated, err)
		}
	}

	prg := make([]uint8, header.PRGSize())
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, fmt.Errorf("%w: reading %d bytes of PRG-ROM: %v", ErrTruncated, len(prg), err)
	}

	chr := make([]uint8, header.CHRSize())
	if _, err := io.ReadFull(r, chr); err != nil {
		return nil, fmt.Errorf("%w: reading %d bytes of CHR-ROM: %v", ErrTruncated, len(chr), err)
	}

	cart, err := New(header, prg, chr)
	if err != nil {
		return nil, err
	}
	cart.trainer = trainer
	return cart, nil
}

// New builds a cartridge from already decoded parts. prg and chr must match
// the sizes in header.
func New(header Header, prg, chr []uint8) (*Cartridge, error) {
	if header.PRGBanks == 0 {
		return nil, fmt.Errorf("%w: PRG-ROM size is zero", ErrInvalidHeader)
	}
	if len(prg) != header.PRGSize() {
		return nil, fmt.Errorf("%w: PRG-ROM is %d bytes, header says %d", ErrInvalidHeader, len(prg), header.PRGSize())
	}
	if len(chr) != header.CHRSize() {
		return nil, fmt.Errorf("%w: CHR-ROM is %d bytes, header says %d", ErrInvalidHeader, len(chr), header.CHRSize())
	}
	if err := validateMapper(header); err != nil {
		return nil, err
	}

	cart := &Cartridge{Header: header, prgROM: prg, chrROM: chr}
	if header.CHRBanks == 0 {
		cart.chrROM = make([]uint8, CHRBankSize)
		cart.hasCHRRAM = true
	}
	return cart, nil
}

// ReadPRG returns the PRG-ROM byte at offset. Offsets past the end wrap.
func (c *Cartridge) ReadPRG(offset int) uint8 {
	return c.prgROM[offset%len(c.prgROM)]
}

// PRGSize is the PRG-ROM size in bytes.
func (c *Cartridge) PRGSize() int {
	return len(c.prgROM)
}

// ReadCHR reads the pattern tables ($0000-$1FFF of the PPU bus).
func (c *Cartridge) ReadCHR(address uint16) uint8 {
	return c.chrROM[int(address)%len(c.chrROM)]
}

// CHR returns the CHR-ROM contents.
func (c *Cartridge) CHR() []uint8 {
	return c.chrROM
}

// HasCHRRAM reports a board without CHR-ROM.
func (c *Cartridge) HasCHRRAM() bool {
	return c.hasCHRRAM
}

// Trainer returns the 512-byte trainer, or nil.
func (c *Cartridge) Trainer() []uint8 {
	return c.trainer
}

// MarshalBinary encodes the cartridge as an iNES image.
func (c *Cartridge) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, c.Header.encode()); err != nil {
		return nil, err
	}
	if c.Header.HasTrainer {
		trainer := c.trainer
		if trainer == nil {
			trainer = make([]uint8, trainerSize)
		}
		buf.Write(trainer)
	}
	buf.Write(c.prgROM)
	if !c.hasCHRRAM {
		buf.Write(c.chrROM)
	}
	return buf.Bytes(), nil
}

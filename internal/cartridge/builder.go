package cartridge

import "fmt"

// ROMBuilder assembles NROM images in memory. Addresses are CPU addresses
// ($8000-$FFFF); with one PRG bank $C000-$FFFF aliases $8000-$BFFF.
type ROMBuilder struct {
	header Header
	prg    []uint8
	chr    []uint8
}

// NewROMBuilder starts a 16KB PRG / 8KB CHR image with horizontal mirroring.
func NewROMBuilder() *ROMBuilder {
	b := &ROMBuilder{}
	return b.WithPRGBanks(1).WithCHRBanks(1)
}

// WithPRGBanks sets the PRG-ROM size in 16KB banks, clearing its contents.
func (b *ROMBuilder) WithPRGBanks(banks int) *ROMBuilder {
	b.header.PRGBanks = banks
	b.prg = make([]uint8, banks*PRGBankSize)
	return b
}

// WithCHRBanks sets the CHR-ROM size in 8KB banks; 0 selects CHR-RAM.
func (b *ROMBuilder) WithCHRBanks(banks int) *ROMBuilder {
	b.header.CHRBanks = banks
	b.chr = make([]uint8, banks*CHRBankSize)
	return b
}

func (b *ROMBuilder) WithMapper(mapper uint8) *ROMBuilder {
	b.header.MapperNumber = mapper
	return b
}

func (b *ROMBuilder) WithMirroring(m Mirroring) *ROMBuilder {
	b.header.Mirroring = m
	return b
}

// WithProgram copies code into PRG-ROM at the CPU address.
func (b *ROMBuilder) WithProgram(address uint16, code ...uint8) *ROMBuilder {
	for i, v := range code {
		b.prg[b.offset(address+uint16(i))] = v
	}
	return b
}

// WithVectors sets the NMI, reset and IRQ/BRK vectors.
func (b *ROMBuilder) WithVectors(nmi, reset, irq uint16) *ROMBuilder {
	b.WithProgram(0xFFFA, uint8(nmi), uint8(nmi>>8))
	b.WithProgram(0xFFFC, uint8(reset), uint8(reset>>8))
	return b.WithProgram(0xFFFE, uint8(irq), uint8(irq>>8))
}

// WithResetVector sets only the reset vector.
func (b *ROMBuilder) WithResetVector(reset uint16) *ROMBuilder {
	return b.WithProgram(0xFFFC, uint8(reset), uint8(reset>>8))
}

// WithCHR copies pattern data starting at offset.
func (b *ROMBuilder) WithCHR(offset int, data ...uint8) *ROMBuilder {
	copy(b.chr[offset:], data)
	return b
}

func (b *ROMBuilder) offset(address uint16) int {
	if address < 0x8000 {
		panic(fmt.Sprintf("cartridge: $%04X is outside PRG-ROM", address))
	}
	if address >= 0xC000 {
		return int(address-0xC000) + len(b.prg) - PRGBankSize
	}
	return int(address - 0x8000)
}

// Cartridge builds the cartridge.
func (b *ROMBuilder) Cartridge() (*Cartridge, error) {
	prg := append([]uint8(nil), b.prg...)
	chr := append([]uint8(nil), b.chr...)
	return New(b.header, prg, chr)
}

// Build encodes the iNES image.
func (b *ROMBuilder) Build() ([]byte, error) {
	cart, err := b.Cartridge()
	if err != nil {
		return nil, err
	}
	return cart.MarshalBinary()
}

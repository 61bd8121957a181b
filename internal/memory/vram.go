package memory

// MirrorMode represents nametable mirroring mode
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorFourScreen
)

func (m MirrorMode) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorFourScreen:
		return "four-screen"
	}
	return "unknown"
}

// CHRReader exposes the cartridge's pattern tables.
type CHRReader interface {
	ReadCHR(address uint16) uint8
}

// VRAM is the PPU address space ($0000-$3FFF) behind PPUADDR/PPUDATA:
// pattern tables from the cartridge, nametables and palette RAM. Pattern
// tables are read-only.
type VRAM struct {
	nametables [0x1000]uint8
	palette    [32]uint8
	chr        CHRReader
	mirroring  MirrorMode
}

// NewVRAM creates the PPU address space. chr may be nil.
func NewVRAM(chr CHRReader, mirroring MirrorMode) *VRAM {
	return &VRAM{chr: chr, mirroring: mirroring}
}

// Attach swaps the cartridge side of the PPU bus.
func (v *VRAM) Attach(chr CHRReader, mirroring MirrorMode) {
	v.chr = chr
	v.mirroring = mirroring
}

// Reset clears nametables and palette.
func (v *VRAM) Reset() {
	v.nametables = [0x1000]uint8{}
	v.palette = [32]uint8{}
}

func (v *VRAM) Read(address uint16) uint8 {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		if v.chr == nil {
			return 0
		}
		return v.chr.ReadCHR(address)
	case address < 0x3F00:
		return v.nametables[v.nametableIndex(address)]
	default:
		return v.palette[paletteIndex(address)]
	}
}

func (v *VRAM) Write(address uint16, value uint8) {
	address &= 0x3FFF
	switch {
	case address < 0x2000:
		// CHR-ROM
	case address < 0x3F00:
		v.nametables[v.nametableIndex(address)] = value
	default:
		v.palette[paletteIndex(address)] = value
	}
}

// nametableIndex folds $2000-$3EFF onto the physical nametable memory.
func (v *VRAM) nametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	table := address >> 10
	offset := address & 0x03FF

	switch v.mirroring {
	case MirrorHorizontal:
		// $2000/$2400 share the first table, $2800/$2C00 the second.
		return (table>>1)*0x400 + offset
	case MirrorVertical:
		// $2000/$2800 share the first table, $2400/$2C00 the second.
		return (table&1)*0x400 + offset
	default:
		return table*0x400 + offset
	}
}

// Entries $10/$14/$18/$1C mirror the background entries below them.
func paletteIndex(address uint16) uint16 {
	index := address & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return index
}

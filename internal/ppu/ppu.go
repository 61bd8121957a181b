// Package ppu implements the CPU-facing side of the NES Picture Processing
// Unit: the eight memory-mapped registers, VRAM access through PPUADDR and
// PPUDATA, vblank timing and the NMI line. Pixels are not generated.
package ppu

import (
	"github.com/golang/glog"

	"github.com/moriano/locones/internal/memory"
)

const (
	// DotsPerScanline and ScanlinesPerFrame describe NTSC 2C02 timing.
	DotsPerScanline   = 341
	ScanlinesPerFrame = 262
	// DotsPerCPUCycle is the fixed PPU to CPU clock ratio.
	DotsPerCPUCycle = 3

	vblankScanline    = 241
	preRenderScanline = 261
)

// Register numbers, relative to $2000.
const (
	PPUCTRL   = 0
	PPUMASK   = 1
	PPUSTATUS = 2
	OAMADDR   = 3
	OAMDATA   = 4
	PPUSCROLL = 5
	PPUADDR   = 6
	PPUDATA   = 7
)

const (
	statusVBlank     = 0x80
	statusSprite0Hit = 0x40
	statusOverflow   = 0x20
	ctrlNMI          = 0x80
	ctrlIncrement32  = 0x04
	maskRendering    = 0x18
)

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	ctrl    uint8
	mask    uint8
	status  uint8
	oamAddr uint8
	oam     [256]uint8

	v uint16 // Current VRAM address (15 bits)
	t uint16 // Temporary VRAM address (15 bits)
	x uint8  // Fine X scroll (3 bits)
	w bool   // Write latch (toggles between first/second write)

	readBuffer uint8 // PPUDATA read buffer
	latch      uint8 // last value driven on the register bus

	vram *memory.VRAM

	scanline int
	dot      int
	frame    uint64

	nmiCallback func()
}

// New creates a PPU positioned at scanline 0, dot 0. vram may be nil, in
// which case PPUDATA reads as zero.
func New(vram *memory.VRAM) *PPU {
	p := &PPU{vram: vram}
	p.Reset()
	return p
}

// Reset returns the PPU to its power-up state.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.oamAddr = 0
	p.oam = [256]uint8{}
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.readBuffer = 0
	p.latch = 0
	p.scanline = 0
	p.dot = 0
	p.frame = 0
}

// SetNMICallback sets the function called when the PPU raises NMI.
func (p *PPU) SetNMICallback(callback func()) {
	p.nmiCallback = callback
}

// Tick advances the PPU by the dots matching cpuCycles CPU cycles.
func (p *PPU) Tick(cpuCycles uint64) {
	for i := uint64(0); i < cpuCycles*DotsPerCPUCycle; i++ {
		p.Step()
	}
}

// Step advances the PPU by one dot.
func (p *PPU) Step() {
	p.dot++
	if p.dot == DotsPerScanline {
		p.dot = 0
		p.scanline++
		if p.scanline == ScanlinesPerFrame {
			p.scanline = 0
			p.frame++
		}
	}

	if p.dot != 1 {
		return
	}
	switch p.scanline {
	case vblankScanline:
		p.status |= statusVBlank
		glog.V(3).Infof("ppu: vblank start, frame %d", p.frame)
		if p.ctrl&ctrlNMI != 0 {
			p.raiseNMI()
		}
	case preRenderScanline:
		p.status &^= statusVBlank | statusSprite0Hit | statusOverflow
	}
}

// Scanline returns the current scanline (0-261, 241 starts vblank).
func (p *PPU) Scanline() int { return p.scanline }

// Dot returns the current dot within the scanline (0-340).
func (p *PPU) Dot() int { return p.dot }

// Frame returns the number of completed frames.
func (p *PPU) Frame() uint64 { return p.frame }

// InVBlank reports the vblank flag.
func (p *PPU) InVBlank() bool { return p.status&statusVBlank != 0 }

// NMIEnabled reports PPUCTRL bit 7.
func (p *PPU) NMIEnabled() bool { return p.ctrl&ctrlNMI != 0 }

// RenderingEnabled reports whether PPUMASK shows background or sprites.
func (p *PPU) RenderingEnabled() bool { return p.mask&maskRendering != 0 }

// ReadRegister reads one of the eight registers, with side effects.
func (p *PPU) ReadRegister(register uint8) uint8 {
	switch register & 7 {
	case PPUSTATUS:
		value := p.status | p.latch&0x1F
		p.status &^= statusVBlank
		p.w = false
		p.latch = value
		return value
	case OAMDATA:
		p.latch = p.oam[p.oamAddr]
		return p.latch
	case PPUDATA:
		p.latch = p.readData()
		return p.latch
	}
	// Write-only registers return the bus latch.
	return p.latch
}

// PeekRegister reads a register without clearing flags, toggling the write
// latch or advancing the VRAM address.
func (p *PPU) PeekRegister(register uint8) uint8 {
	switch register & 7 {
	case PPUSTATUS:
		return p.status | p.latch&0x1F
	case OAMDATA:
		return p.oam[p.oamAddr]
	case PPUDATA:
		return p.readBuffer
	}
	return p.latch
}

// WriteRegister writes one of the eight registers.
func (p *PPU) WriteRegister(register uint8, value uint8) {
	p.latch = value
	switch register & 7 {
	case PPUCTRL:
		enabling := p.ctrl&ctrlNMI == 0 && value&ctrlNMI != 0
		p.ctrl = value
		p.t = (p.t & 0xF3FF) | (uint16(value)&0x03)<<10
		// Enabling NMI during vblank raises it immediately.
		if enabling && p.status&statusVBlank != 0 {
			p.raiseNMI()
		}
	case PPUMASK:
		p.mask = value
	case PPUSTATUS:
		// read only
	case OAMADDR:
		p.oamAddr = value
	case OAMDATA:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case PPUSCROLL:
		p.writeScroll(value)
	case PPUADDR:
		p.writeAddr(value)
	case PPUDATA:
		if p.vram != nil {
			p.vram.Write(p.v, value)
		}
		p.incrementAddr()
	}
}

// VRAMAddress returns the current VRAM address register.
func (p *PPU) VRAMAddress() uint16 { return p.v }

func (p *PPU) raiseNMI() {
	if p.nmiCallback != nil {
		p.nmiCallback()
	}
}

func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | uint16(value)>>3
		p.x = value & 0x07
	} else {
		p.t = (p.t & 0x8FFF) | (uint16(value)&0x07)<<12
		p.t = (p.t & 0xFC1F) | (uint16(value)&0xF8)<<2
	}
	p.w = !p.w
}

func (p *PPU) writeAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | (uint16(value)&0x3F)<<8
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
	}
	p.w = !p.w
}

// readData returns buffered VRAM contents; palette reads bypass the buffer
// and refill it from the nametable underneath.
func (p *PPU) readData() uint8 {
	var data uint8
	if p.vram != nil {
		address := p.v & 0x3FFF
		if address >= 0x3F00 {
			data = p.vram.Read(address)
			p.readBuffer = p.vram.Read(address & 0x2FFF)
		} else {
			data = p.readBuffer
			p.readBuffer = p.vram.Read(address)
		}
	}
	p.incrementAddr()
	return data
}

func (p *PPU) incrementAddr() {
	if p.ctrl&ctrlIncrement32 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x3FFF
}

package ppu

import (
	"testing"

	"github.com/moriano/locones/internal/memory"
)

func TestTickAdvancesThreeDotsPerCycle(t *testing.T) {
	p := New(nil)

	p.Tick(7)

	if p.Scanline() != 0 || p.Dot() != 21 {
		t.Errorf("Expected position 0,21, got %d,%d", p.Scanline(), p.Dot())
	}
}

func TestScanlineAndFrameWrap(t *testing.T) {
	p := New(nil)

	for i := 0; i < DotsPerScanline; i++ {
		p.Step()
	}
	if p.Scanline() != 1 || p.Dot() != 0 {
		t.Errorf("Expected 1,0, got %d,%d", p.Scanline(), p.Dot())
	}

	for i := DotsPerScanline; i < DotsPerScanline*ScanlinesPerFrame; i++ {
		p.Step()
	}
	if p.Scanline() != 0 || p.Dot() != 0 || p.Frame() != 1 {
		t.Errorf("Expected frame 1 at 0,0, got frame %d at %d,%d", p.Frame(), p.Scanline(), p.Dot())
	}
}

func stepTo(p *PPU, scanline, dot int) {
	for p.Scanline() != scanline || p.Dot() != dot {
		p.Step()
	}
}

func TestVBlankAndNMI(t *testing.T) {
	p := New(nil)
	nmis := 0
	p.SetNMICallback(func() { nmis++ })
	p.WriteRegister(PPUCTRL, 0x80)

	stepTo(p, 241, 0)
	if p.InVBlank() || nmis != 0 {
		t.Fatal("vblank set too early")
	}
	p.Step()
	if !p.InVBlank() || nmis != 1 {
		t.Fatalf("Expected vblank and one NMI at 241,1, got vblank=%v nmis=%d", p.InVBlank(), nmis)
	}

	stepTo(p, 261, 1)
	if p.InVBlank() {
		t.Error("vblank should clear at 261,1")
	}
}

func TestNoNMIWhenDisabled(t *testing.T) {
	p := New(nil)
	nmis := 0
	p.SetNMICallback(func() { nmis++ })

	stepTo(p, 241, 2)
	if nmis != 0 {
		t.Errorf("Expected no NMI with PPUCTRL bit 7 clear, got %d", nmis)
	}

	// Enabling NMI while in vblank fires at once.
	p.WriteRegister(PPUCTRL, 0x80)
	if nmis != 1 {
		t.Errorf("Expected NMI on enable during vblank, got %d", nmis)
	}
}

func TestStatusReadClearsVBlankAndLatch(t *testing.T) {
	p := New(nil)
	stepTo(p, 241, 2)
	p.WriteRegister(PPUADDR, 0x21) // first write sets the latch

	if got := p.PeekRegister(PPUSTATUS); got&0x80 == 0 {
		t.Fatalf("Peek should see vblank, got %02X", got)
	}
	if !p.InVBlank() {
		t.Fatal("Peek cleared vblank")
	}

	if got := p.ReadRegister(PPUSTATUS); got&0x80 == 0 {
		t.Errorf("Expected vblank in status, got %02X", got)
	}
	if p.InVBlank() {
		t.Error("Status read should clear vblank")
	}

	// Latch was reset, so this is a first write again.
	p.WriteRegister(PPUADDR, 0x3F)
	p.WriteRegister(PPUADDR, 0x00)
	if p.VRAMAddress() != 0x3F00 {
		t.Errorf("Expected VRAM address 3F00, got %04X", p.VRAMAddress())
	}
}

func TestPPUDATA(t *testing.T) {
	vram := memory.NewVRAM(nil, memory.MirrorVertical)
	p := New(vram)

	p.WriteRegister(PPUADDR, 0x20)
	p.WriteRegister(PPUADDR, 0x00)
	p.WriteRegister(PPUDATA, 0x11)
	p.WriteRegister(PPUDATA, 0x22)

	p.WriteRegister(PPUADDR, 0x20)
	p.WriteRegister(PPUADDR, 0x00)
	if got := p.ReadRegister(PPUDATA); got != 0x00 {
		t.Errorf("First read returns the stale buffer, got %02X", got)
	}
	if got := p.ReadRegister(PPUDATA); got != 0x11 {
		t.Errorf("Expected 11, got %02X", got)
	}
	if got := p.ReadRegister(PPUDATA); got != 0x22 {
		t.Errorf("Expected 22, got %02X", got)
	}

	// Palette reads are not buffered.
	p.WriteRegister(PPUADDR, 0x3F)
	p.WriteRegister(PPUADDR, 0x01)
	p.WriteRegister(PPUDATA, 0x2C)
	p.WriteRegister(PPUADDR, 0x3F)
	p.WriteRegister(PPUADDR, 0x01)
	if got := p.ReadRegister(PPUDATA); got != 0x2C {
		t.Errorf("Expected unbuffered palette read 2C, got %02X", got)
	}
}

func TestPPUDATAIncrement32(t *testing.T) {
	vram := memory.NewVRAM(nil, memory.MirrorHorizontal)
	p := New(vram)
	p.WriteRegister(PPUCTRL, 0x04)

	p.WriteRegister(PPUADDR, 0x20)
	p.WriteRegister(PPUADDR, 0x00)
	p.WriteRegister(PPUDATA, 0x01)

	if p.VRAMAddress() != 0x2020 {
		t.Errorf("Expected VRAM address 2020, got %04X", p.VRAMAddress())
	}
}

func TestOAMAccess(t *testing.T) {
	p := New(nil)

	p.WriteRegister(OAMADDR, 0x10)
	p.WriteRegister(OAMDATA, 0xAB)
	p.WriteRegister(OAMADDR, 0x10)

	if got := p.ReadRegister(OAMDATA); got != 0xAB {
		t.Errorf("Expected AB, got %02X", got)
	}
}

func TestWriteOnlyRegistersReturnLatch(t *testing.T) {
	p := New(nil)
	p.WriteRegister(PPUMASK, 0x1E)

	if got := p.ReadRegister(PPUCTRL); got != 0x1E {
		t.Errorf("Expected latch value 1E, got %02X", got)
	}
}

func TestControlAndMaskState(t *testing.T) {
	p := New(nil)
	if p.NMIEnabled() || p.RenderingEnabled() {
		t.Fatal("Expected NMI and rendering off after reset")
	}

	p.WriteRegister(PPUCTRL, 0x80)
	p.WriteRegister(PPUMASK, 0x08)
	if !p.NMIEnabled() || !p.RenderingEnabled() {
		t.Error("Expected NMI and background rendering on")
	}

	p.WriteRegister(PPUMASK, 0x06)
	if p.RenderingEnabled() {
		t.Error("Left-column bits alone do not enable rendering")
	}
}

// Package bus wires the NES components together and drives them in lock
// step: one CPU instruction, then three PPU dots per CPU cycle.
package bus

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/moriano/locones/internal/apu"
	"github.com/moriano/locones/internal/cartridge"
	"github.com/moriano/locones/internal/cpu"
	"github.com/moriano/locones/internal/memory"
	"github.com/moriano/locones/internal/ppu"
	"github.com/moriano/locones/internal/trace"
)

// ErrHalted is returned by Step after a fatal CPU error until Reset.
var ErrHalted = errors.New("bus: CPU halted")

// Bus connects all NES components together
type Bus struct {
	// Core components
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Memory *memory.Memory
	VRAM   *memory.VRAM

	// halt is the error that stopped the CPU, if any.
	halt  error
	steps uint64

	// Recent instructions, oldest first, for failure reports.
	history      []trace.Entry
	historyLimit int
}

// New creates a new system bus with all components and no cartridge.
func New() *Bus {
	b := &Bus{
		APU:  apu.New(),
		VRAM: memory.NewVRAM(nil, memory.MirrorHorizontal),
	}
	b.PPU = ppu.New(b.VRAM)
	b.Memory = memory.New(b.PPU, b.APU, nil)
	b.CPU = cpu.New(b.Memory)
	b.PPU.SetNMICallback(b.triggerNMI)
	return b
}

// triggerNMI is called by the PPU when an NMI should be triggered. The CPU
// is looked up on every call because Reset replaces it.
func (b *Bus) triggerNMI() {
	b.CPU.TriggerNMI()
}

// LoadCartridge inserts cart and resets the system.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) error {
	b.Memory.InsertCartridge(cart)
	b.VRAM.Attach(cart, mirrorMode(cart.Header.Mirroring))
	glog.V(1).Infof("bus: cartridge inserted (%s mirroring)", cart.Header.Mirroring)
	return b.Reset()
}

func mirrorMode(m cartridge.Mirroring) memory.MirrorMode {
	switch m {
	case cartridge.MirrorVertical:
		return memory.MirrorVertical
	case cartridge.MirrorFourScreen:
		return memory.MirrorFourScreen
	}
	return memory.MirrorHorizontal
}

// Reset power-cycles the console: RAM gets its power-up pattern, the CPU
// its power-on registers, then the reset sequence runs and the PPU is
// advanced by the cycles it took.
func (b *Bus) Reset() error {
	b.Memory.Reset()
	b.VRAM.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.CPU = cpu.New(b.Memory)
	b.halt = nil
	b.steps = 0
	b.history = b.history[:0]

	cycles, err := b.CPU.Reset()
	if err != nil {
		b.halt = err
		return fmt.Errorf("bus: reset: %w", err)
	}
	b.PPU.Tick(cycles)
	glog.V(1).Infof("bus: reset, PC=$%04X", b.CPU.PC)
	return nil
}

// SetPC overrides the program counter, e.g. to start nestest in automation
// mode at $C000.
func (b *Bus) SetPC(pc uint16) {
	b.CPU.SetPC(pc)
}

// SetHistory keeps the last n executed instructions for History. Zero
// disables it.
func (b *Bus) SetHistory(n int) {
	b.historyLimit = n
	if len(b.history) > n {
		b.history = b.history[len(b.history)-n:]
	}
}

// History returns the most recent instructions, oldest first.
func (b *Bus) History() []trace.Entry {
	return append([]trace.Entry(nil), b.history...)
}

// Step executes one CPU instruction and advances the PPU accordingly.
func (b *Bus) Step() (cpu.Execution, error) {
	if b.halt != nil {
		return cpu.Execution{}, fmt.Errorf("%w: %v", ErrHalted, b.halt)
	}

	scanline, dot := b.PPU.Scanline(), b.PPU.Dot()
	var listing cpu.Listing
	tracing := bool(glog.V(3))
	if tracing {
		// Operand values must be peeked before the instruction changes them.
		listing, _ = cpu.Disassemble(b.Memory, b.CPU.Registers())
	}

	exec, err := b.CPU.Step()
	if err != nil {
		b.halt = err
		return exec, err
	}
	b.steps++

	// PPU runs at exactly 3x CPU speed
	b.PPU.Tick(exec.Cycles)

	if tracing || b.historyLimit > 0 {
		entry := trace.Observe(exec, scanline, dot)
		if tracing {
			glog.Info(trace.Format(entry, listing))
		}
		b.record(entry)
	}
	return exec, nil
}

func (b *Bus) record(e trace.Entry) {
	if b.historyLimit == 0 {
		return
	}
	if len(b.history) == b.historyLimit {
		copy(b.history, b.history[1:])
		b.history = b.history[:len(b.history)-1]
	}
	b.history = append(b.history, e)
}

// Run executes n instructions, stopping at the first error.
func (b *Bus) Run(n int) error {
	for i := 0; i < n; i++ {
		if _, err := b.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunCycles runs whole instructions until at least cycles CPU cycles have
// elapsed.
func (b *Bus) RunCycles(cycles uint64) error {
	target := b.CPU.Cycles() + cycles
	for b.CPU.Cycles() < target {
		if _, err := b.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Steps returns the number of instructions executed since Reset.
func (b *Bus) Steps() uint64 {
	return b.steps
}

// GetCPUState returns the current CPU state for testing
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		PC:     b.CPU.PC,
		A:      b.CPU.A,
		X:      b.CPU.X,
		Y:      b.CPU.Y,
		SP:     b.CPU.SP,
		P:      b.CPU.Status(),
		Cycles: b.CPU.Cycles(),
		Flags: CPUFlags{
			N: b.CPU.N,
			V: b.CPU.V,
			D: b.CPU.D,
			I: b.CPU.I,
			Z: b.CPU.Z,
			C: b.CPU.C,
		},
	}
}

// CPUState represents CPU state snapshot for testing
type CPUState struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	P       uint8
	Cycles  uint64
	Flags   CPUFlags
}

// CPUFlags represents CPU status flags for testing
type CPUFlags struct {
	N, V, D, I, Z, C bool
}

// GetPPUState returns the current PPU state for testing
func (b *Bus) GetPPUState() PPUState {
	return PPUState{
		Scanline:    b.PPU.Scanline(),
		Cycle:       b.PPU.Dot(),
		FrameCount:  b.PPU.Frame(),
		VBlankFlag:  b.PPU.InVBlank(),
		RenderingOn: b.PPU.RenderingEnabled(),
		NMIEnabled:  b.PPU.NMIEnabled(),
	}
}

// PPUState represents PPU state snapshot for testing
type PPUState struct {
	Scanline    int
	Cycle       int
	FrameCount  uint64
	VBlankFlag  bool
	RenderingOn bool
	NMIEnabled  bool
}

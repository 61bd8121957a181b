// Package cpu implements the 6502 CPU (2A03 without decimal arithmetic) used
// in the NES.
package cpu

import (
	"fmt"

	"github.com/golang/glog"
)

const (
	stackBase = 0x0100

	// Status register bit masks
	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	// Interrupt vectors
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	// PowerOnSP and PowerOnStatus are the register values after power-up.
	PowerOnSP     = 0xFD
	PowerOnStatus = unusedMask | iFlagMask

	// ResetCycles is the length of the reset and interrupt sequences.
	ResetCycles = 7
)

// Memory is the bus the CPU runs against. Any error is fatal to the run.
type Memory interface {
	Read(address uint16) (uint8, error)
	Write(address uint16, value uint8) error
}

// Registers is a snapshot of the programmer-visible state.
type Registers struct {
	PC     uint16
	A      uint8
	X      uint8
	Y      uint8
	P      uint8
	SP     uint8
	Cycles uint64
}

func (r Registers) String() string {
	return fmt.Sprintf("PC:%04X A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d", r.PC, r.A, r.X, r.Y, r.P, r.SP, r.Cycles)
}

// Execution describes one completed Step.
type Execution struct {
	// PC is the address the opcode was fetched from.
	PC          uint16
	Instruction Instruction
	// Operand holds the raw argument bytes; only Instruction.Bytes-1 are used.
	Operand [2]uint8
	Before  Registers
	After   Registers
	// Cycles is the cost of the instruction including page penalties and
	// any interrupt serviced after it.
	Cycles uint64
	// Interrupted is set when an NMI or IRQ was taken after the instruction.
	Interrupted bool
}

// Bytes returns the instruction bytes as they appear in memory.
func (e Execution) Bytes() []uint8 {
	b := []uint8{e.Instruction.Opcode}
	for i := 1; i < int(e.Instruction.Bytes); i++ {
		b = append(b, e.Operand[i-1])
	}
	return b
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16

	// Status flags. Bits 4 and 5 only exist in the pushed status byte.
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode, stored but without effect on the 2A03
	V bool // Overflow
	N bool // Negative

	memory Memory
	cycles uint64

	nmiPending bool
	irqLine    bool
}

// New creates a CPU in its power-on state. The program counter stays at zero
// until Reset loads it from the vector at $FFFC, or SetPC points it at an
// entry such as nestest's $C000.
func New(memory Memory) *CPU {
	cpu := &CPU{memory: memory}
	cpu.powerOn()
	return cpu
}

func (cpu *CPU) powerOn() {
	cpu.A, cpu.X, cpu.Y = 0, 0, 0
	cpu.SP = PowerOnSP
	cpu.PC = 0
	cpu.SetStatus(PowerOnStatus)
	cpu.cycles = 0
	cpu.nmiPending = false
	cpu.irqLine = false
}

// Reset loads the program counter from the reset vector, sets the interrupt
// disable flag and credits the 7 cycles the sequence takes. It returns the
// cycles consumed.
func (cpu *CPU) Reset() (uint64, error) {
	pc, err := cpu.readVector(resetVector)
	if err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}
	cpu.PC = pc
	cpu.SP = PowerOnSP
	cpu.I = true
	cpu.nmiPending = false
	cpu.cycles += ResetCycles
	glog.V(1).Infof("cpu: reset, PC=$%04X", pc)
	return ResetCycles, nil
}

// SetPC overrides the program counter, e.g. to start nestest in automation
// mode at $C000.
func (cpu *CPU) SetPC(pc uint16) {
	cpu.PC = pc
}

// Cycles returns the total elapsed CPU cycles.
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// Registers returns a snapshot of the current state.
func (cpu *CPU) Registers() Registers {
	return Registers{
		PC:     cpu.PC,
		A:      cpu.A,
		X:      cpu.X,
		Y:      cpu.Y,
		P:      cpu.Status(),
		SP:     cpu.SP,
		Cycles: cpu.cycles,
	}
}

// Step executes one full instruction. Errors leave the CPU in an undefined
// state and end the run.
func (cpu *CPU) Step() (Execution, error) {
	exec := Execution{PC: cpu.PC, Before: cpu.Registers()}

	opcode, err := cpu.memory.Read(cpu.PC)
	if err != nil {
		return exec, fmt.Errorf("fetch at $%04X: %w", cpu.PC, err)
	}
	inst := instructions[opcode]
	if inst == nil {
		return exec, &OpcodeError{Opcode: opcode, PC: cpu.PC}
	}
	exec.Instruction = *inst

	var arg uint16
	for i := uint16(1); i < uint16(inst.Bytes); i++ {
		b, err := cpu.memory.Read(cpu.PC + i)
		if err != nil {
			return exec, fmt.Errorf("fetch operand at $%04X: %w", cpu.PC+i, err)
		}
		exec.Operand[i-1] = b
		arg |= uint16(b) << (8 * (i - 1))
	}
	cpu.PC += uint16(inst.Bytes)

	op, err := Resolve(inst.Mode, arg, cpu.Registers(), cpu.memory)
	if err != nil {
		return exec, fmt.Errorf("%s at $%04X: %w", inst.Name(), exec.PC, err)
	}

	extra, err := cpu.execute(inst, op)
	if err != nil {
		return exec, fmt.Errorf("%s at $%04X: %w", inst.Name(), exec.PC, err)
	}
	if op.PageCrossed && inst.PageSensitive() {
		extra++
	}
	exec.Cycles = uint64(inst.Cycles) + extra
	cpu.cycles += exec.Cycles

	taken, err := cpu.serviceInterrupts()
	if err != nil {
		return exec, err
	}
	if taken > 0 {
		exec.Interrupted = true
		exec.Cycles += taken
	}

	exec.After = cpu.Registers()
	return exec, nil
}

// Status packs the flags into the P register. Bit 5 always reads as 1 and
// bit 4 as 0; the break bit only appears in copies pushed by PHP and BRK.
func (cpu *CPU) Status() uint8 {
	status := uint8(unusedMask)
	if cpu.N {
		status |= nFlagMask
	}
	if cpu.V {
		status |= vFlagMask
	}
	if cpu.D {
		status |= dFlagMask
	}
	if cpu.I {
		status |= iFlagMask
	}
	if cpu.Z {
		status |= zFlagMask
	}
	if cpu.C {
		status |= cFlagMask
	}
	return status
}

// SetStatus unpacks a P register value. Bits 4 and 5 are ignored.
func (cpu *CPU) SetStatus(status uint8) {
	cpu.N = status&nFlagMask != 0
	cpu.V = status&vFlagMask != 0
	cpu.D = status&dFlagMask != 0
	cpu.I = status&iFlagMask != 0
	cpu.Z = status&zFlagMask != 0
	cpu.C = status&cFlagMask != 0
}

// TriggerNMI latches a non-maskable interrupt, serviced after the current
// instruction.
func (cpu *CPU) TriggerNMI() {
	cpu.nmiPending = true
}

// SetIRQ drives the level-sensitive IRQ line.
func (cpu *CPU) SetIRQ(asserted bool) {
	cpu.irqLine = asserted
}

func (cpu *CPU) serviceInterrupts() (uint64, error) {
	var vector uint16
	switch {
	case cpu.nmiPending:
		cpu.nmiPending = false
		vector = nmiVector
		glog.V(2).Infof("cpu: NMI at $%04X", cpu.PC)
	case cpu.irqLine && !cpu.I:
		vector = irqVector
		glog.V(2).Infof("cpu: IRQ at $%04X", cpu.PC)
	default:
		return 0, nil
	}
	if err := cpu.interrupt(vector, false); err != nil {
		return 0, fmt.Errorf("interrupt $%04X: %w", vector, err)
	}
	cpu.cycles += ResetCycles
	return ResetCycles, nil
}

// interrupt pushes PC and status and jumps through vector. brk selects the
// break bit in the pushed status.
func (cpu *CPU) interrupt(vector uint16, brk bool) error {
	if err := cpu.pushWord(cpu.PC); err != nil {
		return err
	}
	status := cpu.Status()
	if brk {
		status |= bFlagMask
	}
	if err := cpu.push(status); err != nil {
		return err
	}
	cpu.I = true
	pc, err := cpu.readVector(vector)
	if err != nil {
		return err
	}
	cpu.PC = pc
	return nil
}

func (cpu *CPU) readVector(vector uint16) (uint16, error) {
	return readPointer(cpu.memory, vector, vector+1)
}

// The stack lives in page 1 and wraps silently.
func (cpu *CPU) push(value uint8) error {
	err := cpu.memory.Write(stackBase|uint16(cpu.SP), value)
	cpu.SP--
	return err
}

func (cpu *CPU) pull() (uint8, error) {
	cpu.SP++
	return cpu.memory.Read(stackBase | uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) error {
	if err := cpu.push(uint8(value >> 8)); err != nil {
		return err
	}
	return cpu.push(uint8(value))
}

func (cpu *CPU) pullWord() (uint16, error) {
	lo, err := cpu.pull()
	if err != nil {
		return 0, err
	}
	hi, err := cpu.pull()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = value&nFlagMask != 0
}

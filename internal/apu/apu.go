// Package apu holds the NES APU and I/O register block ($4000-$4017). No
// sound is generated: writes are stored and reads return the stored value.
package apu

// RegisterCount is the number of registers from $4000 to $4017.
const RegisterCount = 0x18

// Register numbers, relative to $4000, for the registers with a name the
// rest of the system cares about.
const (
	OAMDMA       = 0x14
	Status       = 0x15
	Joypad1      = 0x16
	FrameCounter = 0x17
)

// APU represents the NES Audio Processing Unit register block
type APU struct {
	registers [RegisterCount]uint8
}

// New creates a new APU with all registers cleared.
func New() *APU {
	return &APU{}
}

// Reset clears every register.
func (apu *APU) Reset() {
	apu.registers = [RegisterCount]uint8{}
}

// ReadRegister returns the last value written to register.
func (apu *APU) ReadRegister(register uint8) uint8 {
	if int(register) >= RegisterCount {
		return 0
	}
	return apu.registers[register]
}

// WriteRegister stores value. Registers past $4017 are ignored.
func (apu *APU) WriteRegister(register uint8, value uint8) {
	if int(register) >= RegisterCount {
		return
	}
	apu.registers[register] = value
}

package apu

import "testing"

func TestRegisterStorage(t *testing.T) {
	apu := New()

	for register := uint8(0); register < RegisterCount; register++ {
		apu.WriteRegister(register, register+0x40)
	}
	for register := uint8(0); register < RegisterCount; register++ {
		if got := apu.ReadRegister(register); got != register+0x40 {
			t.Errorf("register %02X = %02X, want %02X", register, got, register+0x40)
		}
	}
}

func TestReadHasNoSideEffects(t *testing.T) {
	apu := New()
	apu.WriteRegister(Status, 0x1F)

	if apu.ReadRegister(Status) != 0x1F || apu.ReadRegister(Status) != 0x1F {
		t.Error("Status read changed the register")
	}
}

func TestOutOfRange(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x18, 0xFF)

	if got := apu.ReadRegister(0x18); got != 0 {
		t.Errorf("Expected 0 for register 18, got %02X", got)
	}
	if got := apu.ReadRegister(0x17); got != 0 {
		t.Errorf("Out of range write leaked into register 17: %02X", got)
	}
}

func TestReset(t *testing.T) {
	apu := New()
	apu.WriteRegister(FrameCounter, 0x40)
	apu.Reset()

	if apu.ReadRegister(FrameCounter) != 0 {
		t.Error("Reset did not clear the register block")
	}
}

package cpu

import "fmt"

// execute applies inst to the resolved operand and returns cycles owed beyond
// the table cost (branch penalties). Page-crossing penalties for reads are
// added by Step.
func (cpu *CPU) execute(inst *Instruction, op Operand) (uint64, error) {
	switch inst.Effect {
	case Read:
		return 0, cpu.read(inst.Mnemonic, op)
	case Write:
		return 0, cpu.write(inst.Mnemonic, op)
	case RMW:
		return 0, cpu.modify(inst.Mnemonic, op)
	case Flow:
		return cpu.flow(inst.Mnemonic, op)
	case Stack:
		return 0, cpu.stack(inst.Mnemonic)
	case Subroutine, Interrupt:
		return 0, cpu.control(inst.Mnemonic, op)
	}
	return 0, fmt.Errorf("%w: effect %s", ErrAddressingMode, inst.Effect)
}

// load fetches the operand value. Address operands are read from the bus
// exactly once.
func (cpu *CPU) load(op Operand) (uint8, error) {
	switch op.Kind {
	case AccumulatorOperand:
		return cpu.A, nil
	case ImmediateOperand:
		return op.Value, nil
	case AddressOperand:
		return cpu.memory.Read(op.Address)
	}
	return 0, fmt.Errorf("%w: no operand to read", ErrAddressingMode)
}

func (cpu *CPU) store(op Operand, value uint8) error {
	switch op.Kind {
	case AccumulatorOperand:
		cpu.A = value
		return nil
	case AddressOperand:
		return cpu.memory.Write(op.Address, value)
	}
	return fmt.Errorf("%w: no operand to write", ErrAddressingMode)
}

func (cpu *CPU) read(m Mnemonic, op Operand) error {
	if op.Kind == NoOperand {
		return cpu.implied(m)
	}
	value, err := cpu.load(op)
	if err != nil {
		return err
	}

	switch m {
	case LDA:
		cpu.A = value
		cpu.setZN(cpu.A)
	case LDX:
		cpu.X = value
		cpu.setZN(cpu.X)
	case LDY:
		cpu.Y = value
		cpu.setZN(cpu.Y)
	case LAX:
		cpu.A = value
		cpu.X = value
		cpu.setZN(value)
	case AND:
		cpu.A &= value
		cpu.setZN(cpu.A)
	case ORA:
		cpu.A |= value
		cpu.setZN(cpu.A)
	case EOR:
		cpu.A ^= value
		cpu.setZN(cpu.A)
	case ADC:
		cpu.adc(value)
	case SBC:
		cpu.sbc(value)
	case CMP:
		cpu.compare(cpu.A, value)
	case CPX:
		cpu.compare(cpu.X, value)
	case CPY:
		cpu.compare(cpu.Y, value)
	case BIT:
		cpu.Z = cpu.A&value == 0
		cpu.V = value&vFlagMask != 0
		cpu.N = value&nFlagMask != 0
	case NOP:
		// The dummy read above is the whole effect.
	default:
		return fmt.Errorf("%w: %s with an operand", ErrAddressingMode, m)
	}
	return nil
}

func (cpu *CPU) implied(m Mnemonic) error {
	switch m {
	case CLC:
		cpu.C = false
	case CLD:
		cpu.D = false
	case CLI:
		cpu.I = false
	case CLV:
		cpu.V = false
	case SEC:
		cpu.C = true
	case SED:
		cpu.D = true
	case SEI:
		cpu.I = true
	case DEX:
		cpu.X--
		cpu.setZN(cpu.X)
	case DEY:
		cpu.Y--
		cpu.setZN(cpu.Y)
	case INX:
		cpu.X++
		cpu.setZN(cpu.X)
	case INY:
		cpu.Y++
		cpu.setZN(cpu.Y)
	case TAX:
		cpu.X = cpu.A
		cpu.setZN(cpu.X)
	case TAY:
		cpu.Y = cpu.A
		cpu.setZN(cpu.Y)
	case TSX:
		cpu.X = cpu.SP
		cpu.setZN(cpu.X)
	case TXA:
		cpu.A = cpu.X
		cpu.setZN(cpu.A)
	case TXS:
		cpu.SP = cpu.X
	case TYA:
		cpu.A = cpu.Y
		cpu.setZN(cpu.A)
	case NOP:
	default:
		return fmt.Errorf("%w: %s without an operand", ErrAddressingMode, m)
	}
	return nil
}

func (cpu *CPU) write(m Mnemonic, op Operand) error {
	if op.Kind != AddressOperand {
		return fmt.Errorf("%w: %s needs an address", ErrAddressingMode, m)
	}
	var value uint8
	switch m {
	case STA:
		value = cpu.A
	case STX:
		value = cpu.X
	case STY:
		value = cpu.Y
	case SAX:
		value = cpu.A & cpu.X
	default:
		return fmt.Errorf("%w: %s is not a store", ErrAddressingMode, m)
	}
	return cpu.memory.Write(op.Address, value)
}

// modify runs the read-modify-write group. The undocumented combinations
// feed the already modified value into their second half.
func (cpu *CPU) modify(m Mnemonic, op Operand) error {
	value, err := cpu.load(op)
	if err != nil {
		return err
	}

	var result uint8
	switch m {
	case ASL, SLO:
		result = cpu.asl(value)
	case LSR, SRE:
		result = cpu.lsr(value)
	case ROL, RLA:
		result = cpu.rol(value)
	case ROR, RRA:
		result = cpu.ror(value)
	case INC, ISB:
		result = value + 1
		cpu.setZN(result)
	case DEC, DCP:
		result = value - 1
		cpu.setZN(result)
	default:
		return fmt.Errorf("%w: %s is not read-modify-write", ErrAddressingMode, m)
	}

	if err := cpu.store(op, result); err != nil {
		return err
	}

	switch m {
	case SLO:
		cpu.A |= result
		cpu.setZN(cpu.A)
	case SRE:
		cpu.A ^= result
		cpu.setZN(cpu.A)
	case RLA:
		cpu.A &= result
		cpu.setZN(cpu.A)
	case RRA:
		cpu.adc(result)
	case ISB:
		cpu.sbc(result)
	case DCP:
		cpu.compare(cpu.A, result)
	}
	return nil
}

// flow handles JMP and the branches. A taken branch costs one cycle, two when
// the target is on another page than the next instruction.
func (cpu *CPU) flow(m Mnemonic, op Operand) (uint64, error) {
	if op.Kind != AddressOperand {
		return 0, fmt.Errorf("%w: %s needs an address", ErrAddressingMode, m)
	}

	var taken bool
	switch m {
	case JMP:
		cpu.PC = op.Address
		return 0, nil
	case BCC:
		taken = !cpu.C
	case BCS:
		taken = cpu.C
	case BNE:
		taken = !cpu.Z
	case BEQ:
		taken = cpu.Z
	case BPL:
		taken = !cpu.N
	case BMI:
		taken = cpu.N
	case BVC:
		taken = !cpu.V
	case BVS:
		taken = cpu.V
	default:
		return 0, fmt.Errorf("%w: %s is not a branch", ErrAddressingMode, m)
	}

	if !taken {
		return 0, nil
	}
	extra := uint64(1)
	if !samePage(cpu.PC, op.Address) {
		extra++
	}
	cpu.PC = op.Address
	return extra, nil
}

func (cpu *CPU) stack(m Mnemonic) error {
	switch m {
	case PHA:
		return cpu.push(cpu.A)
	case PHP:
		return cpu.push(cpu.Status() | bFlagMask)
	case PLA:
		value, err := cpu.pull()
		if err != nil {
			return err
		}
		cpu.A = value
		cpu.setZN(cpu.A)
	case PLP:
		value, err := cpu.pull()
		if err != nil {
			return err
		}
		cpu.SetStatus(value)
	default:
		return fmt.Errorf("%w: %s is not a stack operation", ErrAddressingMode, m)
	}
	return nil
}

func (cpu *CPU) control(m Mnemonic, op Operand) error {
	switch m {
	case JSR:
		// PC already points past the operand; the pushed address is the
		// last byte of the JSR.
		if err := cpu.pushWord(cpu.PC - 1); err != nil {
			return err
		}
		cpu.PC = op.Address
	case RTS:
		pc, err := cpu.pullWord()
		if err != nil {
			return err
		}
		cpu.PC = pc + 1
	case BRK:
		// BRK skips a padding byte.
		cpu.PC++
		return cpu.interrupt(irqVector, true)
	case RTI:
		status, err := cpu.pull()
		if err != nil {
			return err
		}
		cpu.SetStatus(status)
		pc, err := cpu.pullWord()
		if err != nil {
			return err
		}
		cpu.PC = pc
	default:
		return fmt.Errorf("%w: %s is not a control transfer", ErrAddressingMode, m)
	}
	return nil
}

func (cpu *CPU) adc(value uint8) {
	var carry uint16
	if cpu.C {
		carry = 1
	}
	sum := uint16(cpu.A) + uint16(value) + carry
	result := uint8(sum)
	cpu.V = (cpu.A^result)&(value^result)&0x80 != 0
	cpu.C = sum > 0xFF
	cpu.A = result
	cpu.setZN(cpu.A)
}

func (cpu *CPU) sbc(value uint8) {
	borrow := 1
	if cpu.C {
		borrow = 0
	}
	diff := int(cpu.A) - int(value) - borrow
	result := uint8(diff)
	cpu.V = (cpu.A^value)&0x80 != 0 && (cpu.A^result)&0x80 != 0
	cpu.C = diff >= 0
	cpu.A = result
	cpu.setZN(cpu.A)
}

func (cpu *CPU) compare(register, value uint8) {
	cpu.C = register >= value
	cpu.Z = register == value
	cpu.N = (register-value)&0x80 != 0
}

func (cpu *CPU) asl(value uint8) uint8 {
	cpu.C = value&0x80 != 0
	result := value << 1
	cpu.setZN(result)
	return result
}

func (cpu *CPU) lsr(value uint8) uint8 {
	cpu.C = value&0x01 != 0
	result := value >> 1
	cpu.setZN(result)
	return result
}

func (cpu *CPU) rol(value uint8) uint8 {
	result := value << 1
	if cpu.C {
		result |= 0x01
	}
	cpu.C = value&0x80 != 0
	cpu.setZN(result)
	return result
}

func (cpu *CPU) ror(value uint8) uint8 {
	result := value >> 1
	if cpu.C {
		result |= 0x80
	}
	cpu.C = value&0x01 != 0
	cpu.setZN(result)
	return result
}

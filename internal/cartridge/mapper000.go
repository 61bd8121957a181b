package cartridge

import "fmt"

// NROM (mapper 0) is the only board supported: 16KB or 32KB of PRG-ROM
// addressed linearly and at most 8KB of CHR. 16KB images are mirrored into
// $C000-$FFFF by the CPU memory map.
const (
	nromMapper     = 0
	nromMaxPRGBank = 2
	nromMaxCHRBank = 1
)

func validateMapper(h Header) error {
	if h.MapperNumber != nromMapper {
		return fmt.Errorf("%w: %d (only NROM is emulated)", ErrUnsupportedMapper, h.MapperNumber)
	}
	if h.PRGBanks > nromMaxPRGBank {
		return fmt.Errorf("%w: NROM with %d PRG banks", ErrInvalidHeader, h.PRGBanks)
	}
	if h.CHRBanks > nromMaxCHRBank {
		return fmt.Errorf("%w: NROM with %d CHR banks", ErrInvalidHeader, h.CHRBanks)
	}
	return nil
}

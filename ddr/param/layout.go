// Package param defines the records that flow through the DDR configuration
// pipeline, from decoded SPD data to controller register images.
package param

// A list of memory size units.
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
)

// ChipSelectsPerController is the number of chip selects each memory
// controller drives. Chip select i belongs to DIMM slot i/2.
const ChipSelectsPerController = 4

// Layout describes how many controllers and slots a platform has. It is read
// once at startup and stays fixed for the whole run.
type Layout struct {
	NumControllers         int
	DimmSlotsPerController int

	// PhysAddr64Bit tells if the platform physical address type can express
	// 4GB or more of DDR.
	PhysAddr64Bit bool
}

// DefaultLayout returns the common two-controller, two-slot layout.
func DefaultLayout() Layout {
	return Layout{
		NumControllers:         2,
		DimmSlotsPerController: 2,
	}
}

// MustBeValid panics if the layout cannot describe a platform.
func (l Layout) MustBeValid() {
	if l.NumControllers <= 0 {
		panic("number of controllers must be positive")
	}

	if l.DimmSlotsPerController <= 0 {
		panic("number of DIMM slots per controller must be positive")
	}

	if l.DimmSlotsPerController*2 > ChipSelectsPerController {
		panic("too many DIMM slots for the chip selects of a controller")
	}
}

// SlotOfChipSelect returns the DIMM slot that a chip select belongs to.
func SlotOfChipSelect(cs int) int {
	return cs / 2
}

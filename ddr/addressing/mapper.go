package addressing

import (
	"github.com/sarchlab/ddrconfig/ddr/param"
)

// Target is the chip select that serves an address.
type Target struct {
	Controller int
	ChipSelect int
}

type window struct {
	target     Target
	start, end uint64
}

// ChipSelectMapper finds the controller and chip select that hold a physical
// address, using the CSn_BNDS windows of computed register images.
type ChipSelectMapper struct {
	// InterleavingSize is the granularity at which consecutive addresses
	// move to the next controller. It is only used when the controllers are
	// interleaved.
	InterleavingSize   uint64
	MemctlInterleaving bool

	numControllers int
	windows        [][]window
}

// NewChipSelectMapper creates a mapper from the register images of all the
// controllers.
func NewChipSelectMapper(
	regs []param.ConfigRegs,
	memctlInterleaving bool,
	interleavingSize uint64,
) *ChipSelectMapper {
	m := &ChipSelectMapper{
		InterleavingSize:   interleavingSize,
		MemctlInterleaving: memctlInterleaving,
		numControllers:     len(regs),
		windows:            make([][]window, len(regs)),
	}

	if memctlInterleaving && interleavingSize == 0 {
		panic("interleaving size cannot be 0")
	}

	for i := range regs {
		for cs := 0; cs < param.ChipSelectsPerController; cs++ {
			if !regs[i].Valid(cs) || regs[i].CS[cs].Bnds == 0 {
				continue
			}

			m.windows[i] = append(m.windows[i], window{
				target: Target{Controller: i, ChipSelect: cs},
				start:  uint64(regs[i].StartField(cs)) << param.BndsUnitShift,
				end: uint64(regs[i].EndField(cs))<<param.BndsUnitShift |
					(1<<param.BndsUnitShift - 1),
			})
		}
	}

	return m
}

// Find returns the chip select that holds the address. It returns false if no
// chip select window covers the address.
func (m *ChipSelectMapper) Find(address uint64) (Target, bool) {
	if m.MemctlInterleaving {
		number := address / m.InterleavingSize % uint64(m.numControllers)
		return m.findIn(int(number), address)
	}

	for i := 0; i < m.numControllers; i++ {
		t, ok := m.findIn(i, address)
		if ok {
			return t, true
		}
	}

	return Target{}, false
}

func (m *ChipSelectMapper) findIn(ctrl int, address uint64) (Target, bool) {
	for _, w := range m.windows[ctrl] {
		if address >= w.start && address <= w.end {
			return w.target, true
		}
	}

	return Target{}, false
}

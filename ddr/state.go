// Package ddr computes the configuration of the DDR memory controllers of a
// platform, from the SPD EEPROMs of the DIMMs to the register images.
package ddr

import (
	"github.com/rs/xid"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// State holds everything the pipeline computes. Every step reads the results
// of the steps before it from the state, so the pipeline can be re-entered at
// a later step after some results are edited.
type State struct {
	Layout param.Layout
	RunID  string

	// SPD, Dimms, and Common are indexed by controller, and SPD and Dimms
	// then by slot.
	SPD    [][][]byte
	Dimms  [][]param.DimmParams
	Common []param.CommonTimingParams
	Opts   []param.MemCtlOptions
	Regs   []param.ConfigRegs

	CapAdjust            []uint
	Narrowing            []param.NarrowingStatus
	MemctlInterleaving   bool
	InterleavingMode     param.InterleavingMode
	RankInterleaving     bool
	RankInterleavingMode param.BaIntlvCtl

	// AssignedMem is the total reported by address assignment.
	AssignedMem uint64
}

// NewState creates an empty state sized for a layout.
func NewState(layout param.Layout) *State {
	layout.MustBeValid()

	n := layout.NumControllers
	s := &State{
		Layout:    layout,
		RunID:     xid.New().String(),
		SPD:       make([][][]byte, n),
		Dimms:     make([][]param.DimmParams, n),
		Common:    make([]param.CommonTimingParams, n),
		Opts:      make([]param.MemCtlOptions, n),
		Regs:      make([]param.ConfigRegs, n),
		CapAdjust: make([]uint, n),
		Narrowing: make([]param.NarrowingStatus, n),
	}

	for i := 0; i < n; i++ {
		s.SPD[i] = make([][]byte, layout.DimmSlotsPerController)
		s.Dimms[i] = make([]param.DimmParams, layout.DimmSlotsPerController)
	}

	return s
}

// NumDimmsPresent counts the DIMMs on all controllers.
func (s *State) NumDimmsPresent() int {
	n := 0

	for i := range s.Dimms {
		for j := range s.Dimms[i] {
			if s.Dimms[i][j].Present() {
				n++
			}
		}
	}

	return n
}

func (s *State) mustMatchLayout(layout param.Layout) {
	if s.Layout.NumControllers != layout.NumControllers ||
		s.Layout.DimmSlotsPerController != layout.DimmSlotsPerController {
		panic("state is not sized for the pipeline layout")
	}
}

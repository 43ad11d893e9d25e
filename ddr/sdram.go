package ddr

import (
	"fmt"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// A Programmer writes computed configurations to the hardware.
type Programmer interface {
	WriteRegisters(regs *param.ConfigRegs, ctrl int) error
	SetLawBar(common *param.CommonTimingParams, interleaved bool, ctrl int) error
}

// Sdram brings up the DDR memory of a platform.
type Sdram struct {
	pipeline   *Pipeline
	programmer Programmer
	state      *State
}

// NewSdram creates an Sdram that programs the result of a pipeline.
func NewSdram(pipeline *Pipeline, programmer Programmer) *Sdram {
	return &Sdram{
		pipeline:   pipeline,
		programmer: programmer,
	}
}

// State returns the state of the last Init or Reprogram. It is nil before
// either ran.
func (s *Sdram) State() *State {
	return s.state
}

// Init computes the configuration of all controllers, programs it, and
// returns the total memory.
func (s *Sdram) Init() (uint64, error) {
	return s.Reprogram(NewState(s.pipeline.Layout()), StepGetSPD)
}

// Reprogram runs the pipeline on an existing state from the start step, then
// programs the result like Init does. It lets callers edit the state of an
// earlier run, such as the options of a controller, before programming.
func (s *Sdram) Reprogram(state *State, start Step) (uint64, error) {
	s.state = state

	total, err := s.pipeline.Compute(state, start)
	if err != nil {
		return 0, err
	}

	numCtrl := s.pipeline.Layout().NumControllers
	interleaved := 0
	for i := range state.Opts {
		if state.Opts[i].MemctlInterleaving {
			interleaved++
		}
	}

	if interleaved > 0 && interleaved != numCtrl {
		return 0, fmt.Errorf("%w: %d of %d controllers",
			ErrInconsistentInterleaving, interleaved, numCtrl)
	}

	for i := range state.Regs {
		if state.Common[i].NDimmsPresent == 0 {
			continue
		}

		err = s.programmer.WriteRegisters(&state.Regs[i], i)
		if err != nil {
			return 0, fmt.Errorf("memctl=%d: %w", i, err)
		}
	}

	err = s.setLawBars(interleaved > 0)
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (s *Sdram) setLawBars(interleaved bool) error {
	if interleaved {
		return s.programmer.SetLawBar(&s.state.Common[0], true, 0)
	}

	for i := range s.state.Common {
		err := s.programmer.SetLawBar(&s.state.Common[i], false, i)
		if err != nil {
			return fmt.Errorf("memctl=%d: %w", i, err)
		}
	}

	return nil
}

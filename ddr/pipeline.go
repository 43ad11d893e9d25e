package ddr

import (
	"fmt"
	"log"

	"github.com/sarchlab/ddrconfig/ddr/addressing"
	"github.com/sarchlab/ddrconfig/ddr/commontiming"
	"github.com/sarchlab/ddrconfig/ddr/hooking"
	"github.com/sarchlab/ddrconfig/ddr/option"
	"github.com/sarchlab/ddrconfig/ddr/param"
	"github.com/sarchlab/ddrconfig/ddr/regs"
	"github.com/sarchlab/ddrconfig/ddr/spd"
)

// maxEnd32Bit is the largest CSn_BNDS end field that a 32-bit physical
// address space can hold.
const maxEnd32Bit = 0xff

// Pipeline computes the configuration of all the memory controllers of a
// platform.
type Pipeline struct {
	hooking.HookableBase

	layout    param.Layout
	reader    spd.Reader
	decoder   spd.Decoder
	reducer   commontiming.Reducer
	populator option.Populator
	encoder   regs.Encoder
	engine    addressing.Engine
	logger    *log.Logger
}

// Layout returns the controller and slot layout of the platform.
func (p *Pipeline) Layout() param.Layout {
	return p.layout
}

// Compute runs the pipeline from the start step to the end and returns the
// total memory. The state must come from NewState with the same layout.
func (p *Pipeline) Compute(state *State, start Step) (uint64, error) {
	if !start.Valid() {
		panic(fmt.Sprintf("invalid start step %d", int(start)))
	}

	state.mustMatchLayout(p.layout)

	for step := start; step <= StepComputeRegs; step++ {
		p.invokeStage(hooking.HookPosStageStart, state, step)

		err := p.runStep(state, step)
		if err != nil {
			return 0, err
		}

		p.invokeStage(hooking.HookPosStageEnd, state, step)
	}

	return p.totalMemory(state)
}

func (p *Pipeline) runStep(state *State, step Step) error {
	switch step {
	case StepGetSPD:
		p.getSPD(state)
	case StepComputeDimmParms:
		return p.computeDimmParms(state)
	case StepComputeCommonParms:
		p.computeCommonParms(state)
	case StepGatherOpts:
		p.gatherOpts(state)
	case StepAssignAddresses:
		p.assignAddresses(state)
	case StepComputeRegs:
		p.computeRegs(state)
	}

	return nil
}

func (p *Pipeline) getSPD(state *State) {
	for i := range state.SPD {
		for j := range state.SPD[i] {
			raw, err := p.reader.Read(i, j)
			if err != nil {
				p.warn(state, StepGetSPD, i, j, err.Error())
				raw = nil
			}

			state.SPD[i][j] = raw
		}
	}
}

func (p *Pipeline) computeDimmParms(state *State) error {
	for i := range state.Dimms {
		for j := range state.Dimms[i] {
			params, status, err := p.decoder.Decode(state.SPD[i][j], i)
			if status != spd.StatusOK && err == nil {
				err = fmt.Errorf("%w: decoder reported %s", ErrUnexplainedSPD,
					status)
			}

			switch status {
			case spd.StatusFatal:
				err = fmt.Errorf("memctl=%d dimm=%d: %w: %w",
					i, j, ErrFatalSPD, err)
				p.abort(state, StepComputeDimmParms, i, j, err)

				return err
			case spd.StatusWarning:
				if len(state.SPD[i][j]) > 0 {
					p.warn(state, StepComputeDimmParms, i, j, err.Error())
				}
			}

			state.Dimms[i][j] = params

			p.InvokeHook(hooking.HookCtx{
				Domain: p,
				Pos:    hooking.HookPosDimmDecoded,
				Item: hooking.DimmEvent{
					RunID:      state.RunID,
					Controller: i,
					Slot:       j,
					Params:     params,
				},
			})
		}
	}

	return nil
}

func (p *Pipeline) computeCommonParms(state *State) {
	for i := range state.Common {
		common, err := p.reducer.Reduce(state.Dimms[i])
		if err != nil {
			p.warn(state, StepComputeCommonParms, i, -1, err.Error())
		}

		state.Common[i] = common
	}
}

func (p *Pipeline) gatherOpts(state *State) {
	for i := range state.Opts {
		state.Opts[i] = p.populator.Populate(&state.Common[i], i, state.Dimms[i])
	}
}

func (p *Pipeline) assignAddresses(state *State) {
	a := p.engine.Assign(state.Opts, state.Dimms, state.Common)

	state.CapAdjust = a.CapacityAdjust
	state.Narrowing = a.Narrowing
	state.MemctlInterleaving = a.MemctlInterleaving
	state.InterleavingMode = a.InterleavingMode
	state.RankInterleaving = a.RankInterleaving
	state.RankInterleavingMode = a.RankInterleavingMode
	state.AssignedMem = a.TotalMem

	for i := range state.Dimms {
		for j := range state.Dimms[i] {
			if !state.Dimms[i][j].Present() {
				continue
			}

			p.InvokeHook(hooking.HookCtx{
				Domain: p,
				Pos:    hooking.HookPosAddressAssigned,
				Item: hooking.DimmEvent{
					RunID:      state.RunID,
					Controller: i,
					Slot:       j,
					Params:     state.Dimms[i][j],
					CapAdjust:  a.CapacityAdjust[i],
				},
			})
		}
	}
}

func (p *Pipeline) computeRegs(state *State) {
	for i := range state.Regs {
		if state.Common[i].NDimmsPresent == 0 {
			state.Regs[i].Zero()
			continue
		}

		r, err := p.encoder.Encode(&state.Opts[i], &state.Common[i],
			state.Dimms[i], state.CapAdjust[i])
		if err != nil {
			p.warn(state, StepComputeRegs, i, -1, err.Error())
		}

		state.Regs[i] = r

		p.InvokeHook(hooking.HookCtx{
			Domain: p,
			Pos:    hooking.HookPosRegsComputed,
			Item: hooking.RegsEvent{
				RunID:      state.RunID,
				Controller: i,
				Regs:       r,
			},
		})
	}
}

func (p *Pipeline) totalMemory(state *State) (uint64, error) {
	if !state.MemctlInterleaving && state.RankInterleaving {
		return p.bankInterleavedTotal(state)
	}

	maxEnd := uint32(0)
	for i := range state.Regs {
		for cs := 0; cs < param.ChipSelectsPerController; cs++ {
			if state.Regs[i].Valid(cs) {
				maxEnd = max(maxEnd, state.Regs[i].EndField(cs))
			}
		}
	}

	if !p.layout.PhysAddr64Bit && maxEnd >= maxEnd32Bit {
		return 0, fmt.Errorf("%w: highest chip select ends at 0x%03x",
			ErrAddressSpaceOverflow, maxEnd)
	}

	return 1 + (uint64(maxEnd)<<param.BndsUnitShift | 0xFFFFFF), nil
}

func (p *Pipeline) bankInterleavedTotal(state *State) (uint64, error) {
	total := uint64(0)
	for i := range state.Common {
		total += state.Common[i].TotalMem
	}

	if !p.layout.PhysAddr64Bit && total >= 4*param.GB {
		return 0, fmt.Errorf("%w: 0x%x bytes", ErrAddressSpaceOverflow, total)
	}

	return total, nil
}

func (p *Pipeline) invokeStage(pos *hooking.HookPos, state *State, step Step) {
	p.InvokeHook(hooking.HookCtx{
		Domain: p,
		Pos:    pos,
		Item: hooking.Stage{
			RunID: state.RunID,
			Name:  step.String(),
			Index: int(step),
		},
	})
}

func (p *Pipeline) warn(state *State, step Step, ctrl, slot int, msg string) {
	p.logger.Printf("Warning: %s (step %s, memctl=%d dimm=%d)",
		msg, step, ctrl, slot)

	p.InvokeHook(hooking.HookCtx{
		Domain: p,
		Pos:    hooking.HookPosWarning,
		Item: hooking.Warning{
			RunID:      state.RunID,
			Stage:      step.String(),
			Controller: ctrl,
			Slot:       slot,
			Message:    msg,
		},
	})
}

func (p *Pipeline) abort(state *State, step Step, ctrl, slot int, err error) {
	p.InvokeHook(hooking.HookCtx{
		Domain: p,
		Pos:    hooking.HookPosAbort,
		Item: hooking.Warning{
			RunID:      state.RunID,
			Stage:      step.String(),
			Controller: ctrl,
			Slot:       slot,
			Message:    err.Error(),
		},
	})
}

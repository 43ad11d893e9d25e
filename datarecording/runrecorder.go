package datarecording

import (
	"github.com/sarchlab/ddrconfig/ddr/hooking"
)

// A list of the tables that a RunRecorder writes.
const (
	StageTable      = "ddr_stage"
	DimmTable       = "ddr_dimm"
	ChipSelectTable = "ddr_chip_select"
	WarningTable    = "ddr_warning"
)

// StageRow records the start or end of a pipeline step.
type StageRow struct {
	RunID     string
	Step      string
	StepIndex int
	Event     string
}

// DimmRow records a decoded DIMM or its assigned address.
type DimmRow struct {
	RunID       string
	Event       string
	Controller  int
	Slot        int
	Type        string
	Ranks       uint
	DataWidth   uint
	Capacity    uint64
	BaseAddress uint64
	CapAdjust   uint
}

// ChipSelectRow records the bounds and config of one chip select.
type ChipSelectRow struct {
	RunID      string
	Controller int
	ChipSelect int
	Bnds       uint32
	Config     uint32
	Valid      bool
}

// WarningRow records a warning or the error that aborted a run.
type WarningRow struct {
	RunID      string
	Stage      string
	Controller int
	Slot       int
	Message    string
	Fatal      bool
}

// RunRecorder is a hook that records pipeline runs.
type RunRecorder struct {
	recorder DataRecorder
}

// NewRunRecorder creates the tables of the run recorder.
func NewRunRecorder(recorder DataRecorder) *RunRecorder {
	recorder.CreateTable(StageTable, StageRow{})
	recorder.CreateTable(DimmTable, DimmRow{})
	recorder.CreateTable(ChipSelectTable, ChipSelectRow{})
	recorder.CreateTable(WarningTable, WarningRow{})

	return &RunRecorder{recorder: recorder}
}

// Func records the item carried by the hook context.
func (r *RunRecorder) Func(ctx hooking.HookCtx) {
	switch item := ctx.Item.(type) {
	case hooking.Stage:
		r.recordStage(ctx.Pos, item)
	case hooking.DimmEvent:
		r.recordDimm(ctx.Pos, item)
	case hooking.RegsEvent:
		r.recordRegs(item)
	case hooking.Warning:
		r.recorder.InsertData(WarningTable, WarningRow{
			RunID:      item.RunID,
			Stage:      item.Stage,
			Controller: item.Controller,
			Slot:       item.Slot,
			Message:    item.Message,
			Fatal:      ctx.Pos == hooking.HookPosAbort,
		})
	}
}

func (r *RunRecorder) recordStage(pos *hooking.HookPos, s hooking.Stage) {
	event := "start"
	if pos == hooking.HookPosStageEnd {
		event = "end"
	}

	r.recorder.InsertData(StageTable, StageRow{
		RunID:     s.RunID,
		Step:      s.Name,
		StepIndex: s.Index,
		Event:     event,
	})
}

func (r *RunRecorder) recordDimm(pos *hooking.HookPos, e hooking.DimmEvent) {
	event := "decoded"
	if pos == hooking.HookPosAddressAssigned {
		event = "assigned"
	}

	r.recorder.InsertData(DimmTable, DimmRow{
		RunID:       e.RunID,
		Event:       event,
		Controller:  e.Controller,
		Slot:        e.Slot,
		Type:        e.Params.Type.String(),
		Ranks:       e.Params.NRanks,
		DataWidth:   e.Params.DataWidth,
		Capacity:    e.Params.Capacity,
		BaseAddress: e.Params.BaseAddress,
		CapAdjust:   e.CapAdjust,
	})
}

func (r *RunRecorder) recordRegs(e hooking.RegsEvent) {
	for i := range e.Regs.CS {
		r.recorder.InsertData(ChipSelectTable, ChipSelectRow{
			RunID:      e.RunID,
			Controller: e.Controller,
			ChipSelect: i,
			Bnds:       e.Regs.CS[i].Bnds,
			Config:     e.Regs.CS[i].Config,
			Valid:      e.Regs.Valid(i),
		})
	}
}

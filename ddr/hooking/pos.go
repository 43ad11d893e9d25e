package hooking

import "github.com/sarchlab/ddrconfig/ddr/param"

// A list of hook poses that the pipeline triggers.
var (
	HookPosStageStart      = &HookPos{Name: "HookPosStageStart"}
	HookPosStageEnd        = &HookPos{Name: "HookPosStageEnd"}
	HookPosDimmDecoded     = &HookPos{Name: "HookPosDimmDecoded"}
	HookPosAddressAssigned = &HookPos{Name: "HookPosAddressAssigned"}
	HookPosRegsComputed    = &HookPos{Name: "HookPosRegsComputed"}
	HookPosWarning         = &HookPos{Name: "HookPosWarning"}
	HookPosAbort           = &HookPos{Name: "HookPosAbort"}
)

// Stage is passed to the hook when a stage starts or ends.
type Stage struct {
	RunID string
	Name  string
	Index int
}

// DimmEvent is passed to the hook when a DIMM is decoded or gets its base
// address.
type DimmEvent struct {
	RunID      string
	Controller int
	Slot       int
	Params     param.DimmParams
	CapAdjust  uint
}

// RegsEvent is passed to the hook when the registers of a controller are
// computed.
type RegsEvent struct {
	RunID      string
	Controller int
	Regs       param.ConfigRegs
}

// Warning is passed to the hook when the pipeline logs a problem. Controller
// and Slot are -1 when the problem is not tied to one of them.
type Warning struct {
	RunID      string
	Stage      string
	Controller int
	Slot       int
	Message    string
}

package hooking

import (
	"log"
)

// LogHook prints the progress of the pipeline. It is what the debug prints of
// a bootloader look like.
type LogHook struct {
	*log.Logger
}

// NewLogHook creates a LogHook that writes to the given logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func prints the item carried by the hook context.
func (h *LogHook) Func(ctx HookCtx) {
	switch item := ctx.Item.(type) {
	case Stage:
		if ctx.Pos == HookPosStageStart {
			h.Printf("starting step %d (%s)", item.Index, item.Name)
		}
	case DimmEvent:
		h.logDimm(ctx.Pos, item)
	case RegsEvent:
		for i := range item.Regs.CS {
			h.Printf("FSLDDR: ctrl %d cs[%d]_bnds = 0x%08x cs[%d]_config = 0x%08x",
				item.Controller, i, item.Regs.CS[i].Bnds,
				i, item.Regs.CS[i].Config)
		}
		h.Printf("FSLDDR: ctrl %d ddr_sdram_cfg = 0x%08x",
			item.Controller, item.Regs.SdramCfg)
	case Warning:
		// Plain warnings already go to the pipeline logger.
		if ctx.Pos != HookPosAbort {
			return
		}
		h.Printf("Error: %s (step %s, memctl=%d dimm=%d)",
			item.Message, item.Stage, item.Controller, item.Slot)
	}
}

func (h *LogHook) logDimm(pos *HookPos, e DimmEvent) {
	switch pos {
	case HookPosDimmDecoded:
		if !e.Params.Present() {
			return
		}
		h.Printf("memctl=%d dimm=%d: %s, %d rank(s), %d-bit, capacity 0x%x",
			e.Controller, e.Slot, e.Params.Type, e.Params.NRanks,
			e.Params.DataWidth, e.Params.Capacity)
	case HookPosAddressAssigned:
		h.Printf("memctl=%d dimm=%d: base address 0x%09x, size 0x%x",
			e.Controller, e.Slot, e.Params.BaseAddress,
			e.Params.AdjustedCapacity(e.CapAdjust))
	}
}

// Package addressing assigns physical addresses to the DIMMs and chip selects
// of all the memory controllers.
package addressing

import (
	"log"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// hardwiredInterleavedControllers is the controller count that the
// interleaving detection compares against. It is not the configured number of
// controllers, so 1- and 3-controller platforms never see controller or rank
// interleaving as uniformly enabled unless exactly two controllers ask for it.
const hardwiredInterleavedControllers = 2

// Assignment is the result of assigning addresses.
type Assignment struct {
	// CapacityAdjust is the right shift applied to every capacity of a
	// controller.
	CapacityAdjust []uint
	Narrowing      []param.NarrowingStatus

	MemctlInterleaving   bool
	InterleavingMode     param.InterleavingMode
	RankInterleaving     bool
	RankInterleavingMode param.BaIntlvCtl

	// TotalMem is controller 0's total when the controllers are interleaved,
	// and the end of the flat address space otherwise.
	TotalMem uint64
}

// An Engine assigns addresses. The zero value logs to the standard logger.
type Engine struct {
	Logger *log.Logger
}

// Assign fills in the base addresses of every DIMM and the base address and
// total memory of every controller. The slices are indexed by controller, and
// dimms[i] by slot.
func (e Engine) Assign(
	opts []param.MemCtlOptions,
	dimms [][]param.DimmParams,
	common []param.CommonTimingParams,
) Assignment {
	numCtrl := len(opts)
	mustHaveSameControllerCount(numCtrl, dimms, common)

	a := Assignment{
		CapacityAdjust: make([]uint, numCtrl),
		Narrowing:      make([]param.NarrowingStatus, numCtrl),
	}

	e.adjustForDataBusWidth(opts, dimms, &a)
	e.detectMemctlInterleaving(opts, &a)
	e.detectRankInterleaving(opts, &a)

	if a.MemctlInterleaving {
		e.assignInterleaved(dimms, common, &a)
	} else {
		e.assignLinear(dimms, common, &a)
	}

	return a
}

func mustHaveSameControllerCount(
	n int,
	dimms [][]param.DimmParams,
	common []param.CommonTimingParams,
) {
	if len(dimms) != n || len(common) != n {
		panic("options, DIMM params, and timing params disagree on the " +
			"number of controllers")
	}
}

func (e Engine) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}

	return e.Logger
}

// adjustForDataBusWidth halves the capacities of a controller if a reduced
// data width is requested but the SPD reports a physically wider device.
func (e Engine) adjustForDataBusWidth(
	opts []param.MemCtlOptions,
	dimms [][]param.DimmParams,
	a *Assignment,
) {
	for i := range opts {
		switch opts[i].DataBusWidth {
		case param.DataBusWidth16:
			e.logger().Printf("memctl=%d: can't handle 16-bit mode yet", i)
			a.Narrowing[i] = param.NarrowingNotImplemented
		case param.DataBusWidth32:
			if hasWideDimm(dimms[i]) {
				a.CapacityAdjust[i] = 1
				a.Narrowing[i] = param.NarrowingHalved
			}
		case param.DataBusWidth64:
		default:
			e.logger().Printf(
				"memctl=%d: unexpected data bus width %s specified",
				i, opts[i].DataBusWidth)
		}
	}
}

func hasWideDimm(dimms []param.DimmParams) bool {
	for j := range dimms {
		if !dimms[j].Present() {
			continue
		}

		if dimms[j].DataWidth == 64 || dimms[j].DataWidth == 72 {
			return true
		}
	}

	return false
}

func (e Engine) detectMemctlInterleaving(
	opts []param.MemCtlOptions,
	a *Assignment,
) {
	count := 0
	for i := range opts {
		if opts[i].MemctlInterleaving {
			count++
		}
	}

	if count != hardwiredInterleavedControllers {
		return
	}

	a.MemctlInterleaving = true
	a.InterleavingMode = opts[0].MemctlInterleavingMode
	e.logger().Printf("memory controller interleaving enabled: %s",
		a.InterleavingMode)
}

func (e Engine) detectRankInterleaving(
	opts []param.MemCtlOptions,
	a *Assignment,
) {
	count := 0
	for i := range opts {
		if opts[i].BaIntlvCtl != param.BaIntlvNone {
			count++
		}
	}

	if count != hardwiredInterleavedControllers {
		return
	}

	a.RankInterleaving = true
	a.RankInterleavingMode = opts[0].BaIntlvCtl.Pattern()
	e.logger().Printf("bank (chip select) interleaving enabled: %s",
		a.RankInterleavingMode)
}

// assignInterleaved starts every controller at address 0. The interleaving
// hardware resolves the overlap on the bus.
func (e Engine) assignInterleaved(
	dimms [][]param.DimmParams,
	common []param.CommonTimingParams,
	a *Assignment,
) {
	for i := range dimms {
		addr := uint64(0)
		common[i].BaseAddress = 0

		for j := range dimms[i] {
			dimms[i][j].BaseAddress = addr
			addr += dimms[i][j].AdjustedCapacity(a.CapacityAdjust[i])
		}

		common[i].TotalMem = addr
	}

	if len(common) > 0 {
		a.TotalMem = common[0].TotalMem
	}
}

// assignLinear lays the controllers out back to back in one flat address
// space.
func (e Engine) assignLinear(
	dimms [][]param.DimmParams,
	common []param.CommonTimingParams,
	a *Assignment,
) {
	cursor := uint64(0)

	for i := range dimms {
		ctrlTotal := uint64(0)
		common[i].BaseAddress = cursor

		for j := range dimms[i] {
			size := dimms[i][j].AdjustedCapacity(a.CapacityAdjust[i])
			dimms[i][j].BaseAddress = cursor
			cursor += size
			ctrlTotal += size
		}

		common[i].TotalMem = ctrlTotal
	}

	a.TotalMem = cursor
}

package option

import (
	"log"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// A Populator produces the options of one controller. The result replaces
// whatever the controller had before.
type Populator interface {
	Populate(
		common *param.CommonTimingParams,
		ctrl int,
		dimms []param.DimmParams,
	) param.MemCtlOptions
}

// BoardPopulator applies a board policy, turning off the features that the
// plugged-in DIMMs cannot support.
type BoardPopulator struct {
	Policy         Policy
	NumControllers int
	Logger         *log.Logger
}

// Populate produces the options of one controller.
func (b BoardPopulator) Populate(
	common *param.CommonTimingParams,
	ctrl int,
	dimms []param.DimmParams,
) param.MemCtlOptions {
	p := b.Policy

	opts := param.MemCtlOptions{
		DataBusWidth:             p.DataBusWidth,
		MemctlInterleavingMode:   p.MemctlInterleavingMode,
		RegisteredDIMMEn:         common.AllDIMMsRegistered,
		ECCMode:                  p.ECC && common.AllDIMMsECCCapable,
		TwoTEn:                   p.TwoT && !common.AllDIMMsRegistered,
		ThreeTEn:                 p.ThreeT,
		BurstLength:              p.BurstLength,
		SelfRefreshInSleep:       p.SelfRefreshInSleep,
		DynamicPower:             p.DynamicPower,
		HalfStrengthDriverEnable: p.HalfStrengthDriver,
		Bstopre:                  p.Bstopre,
		ZQEn:                     p.ZQ,
		WrlvlEn:                  p.WriteLeveling,
	}

	if p.CASLatencyOverride != nil {
		opts.CASLatencyOverride = true
		opts.CASLatencyOverrideValue = *p.CASLatencyOverride
	}

	if p.AdditiveLatencyOverride != nil {
		opts.AdditiveLatencyOverride = true
		opts.AdditiveLatencyOverrideValue = *p.AdditiveLatencyOverride
	}

	opts.MemctlInterleaving = b.memctlInterleaving(ctrl, dimms)
	opts.BaIntlvCtl = b.bankInterleaving(ctrl, dimms)

	return opts
}

func (b BoardPopulator) logger() *log.Logger {
	if b.Logger == nil {
		return log.Default()
	}

	return b.Logger
}

func (b BoardPopulator) memctlInterleaving(
	ctrl int,
	dimms []param.DimmParams,
) bool {
	if !b.Policy.MemctlInterleaving {
		return false
	}

	if b.NumControllers < 2 {
		b.logger().Printf("memctl=%d: not enough controllers for "+
			"controller interleaving", ctrl)
		return false
	}

	if len(dimms) == 0 || !dimms[0].Present() {
		b.logger().Printf("memctl=%d: controller interleaving needs a DIMM "+
			"in slot 0", ctrl)
		return false
	}

	return true
}

func (b BoardPopulator) bankInterleaving(
	ctrl int,
	dimms []param.DimmParams,
) param.BaIntlvCtl {
	pattern := b.Policy.BaIntlvCtl.Pattern()
	if pattern == param.BaIntlvNone {
		return param.BaIntlvNone
	}

	slot0 := dualRankSlot(dimms, 0)
	slot1 := dualRankSlot(dimms, 1)

	ok := false
	switch pattern {
	case param.BaIntlvCS0CS1:
		ok = slot0
	case param.BaIntlvCS2CS3:
		ok = slot1
	case param.BaIntlvCS0CS1AndCS2CS3:
		ok = slot0 && slot1
	case param.BaIntlvCS0CS1CS2CS3:
		ok = slot0 && slot1 && dimms[0].Capacity == dimms[1].Capacity
	}

	if !ok {
		b.logger().Printf("memctl=%d: DIMMs do not support %s bank "+
			"interleaving, disabled", ctrl, pattern)
		return param.BaIntlvNone
	}

	return pattern
}

func dualRankSlot(dimms []param.DimmParams, slot int) bool {
	return slot < len(dimms) && dimms[slot].NRanks == 2
}

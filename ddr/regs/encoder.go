// Package regs turns an address-assigned controller configuration into the
// register image of a Freescale-style DDR memory controller.
package regs

import (
	"errors"
	"fmt"
	"log"
	"math/bits"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// ErrRegisteredWith2T is returned when DDR_SDRAM_CFG[RD_EN] and
// DDR_SDRAM_CFG[2T_EN] are set at the same time.
var ErrRegisteredWith2T = errors.New(
	"DDR_SDRAM_CFG[RD_EN] and DDR_SDRAM_CFG[2T_EN] should not be set " +
		"at the same time")

// An Encoder computes the register image of one controller generation.
type Encoder interface {
	Encode(
		opts *param.MemCtlOptions,
		common *param.CommonTimingParams,
		dimms []param.DimmParams,
		capAdjust uint,
	) (param.ConfigRegs, error)
}

// Generation is the DDR_SDRAM_CFG[SDRAM_TYPE] encoding of a controller.
type Generation uint32

// A list of supported controller generations.
const (
	GenerationDDR2 Generation = 3
	GenerationDDR3 Generation = 7
)

func (g Generation) String() string {
	switch g {
	case GenerationDDR2:
		return "DDR2"
	case GenerationDDR3:
		return "DDR3"
	default:
		return fmt.Sprintf("Generation(%d)", uint32(g))
	}
}

// FSLEncoder encodes the registers of the Freescale 85xx/86xx DDR
// controllers.
type FSLEncoder struct {
	Generation Generation

	// ClockPeriodPs is the memory clock period. If it is 0, the encoder runs
	// the memory at the slowest tCKmin of the DIMMs.
	ClockPeriodPs uint

	Logger *log.Logger
}

// NewDDR2Encoder creates an encoder for DDR2 controllers.
func NewDDR2Encoder(clockPeriodPs uint) *FSLEncoder {
	return &FSLEncoder{
		Generation:    GenerationDDR2,
		ClockPeriodPs: clockPeriodPs,
	}
}

// NewDDR3Encoder creates an encoder for DDR3 controllers.
func NewDDR3Encoder(clockPeriodPs uint) *FSLEncoder {
	return &FSLEncoder{
		Generation:    GenerationDDR3,
		ClockPeriodPs: clockPeriodPs,
	}
}

// Encode computes the register image. The returned error comes from Check
// and does not invalidate the image.
func (e *FSLEncoder) Encode(
	opts *param.MemCtlOptions,
	common *param.CommonTimingParams,
	dimms []param.DimmParams,
	capAdjust uint,
) (param.ConfigRegs, error) {
	regs := param.ConfigRegs{}

	for i := 0; i < param.ChipSelectsPerController; i++ {
		d := dimmOfChipSelect(dimms, i)
		if !d.Present() {
			e.debugf("skipping setup of CS%d because n_ranks on DIMM %d is 0",
				i, param.SlotOfChipSelect(i))
			continue
		}

		sa, ea := chipSelectBounds(i, opts, common, dimms, capAdjust)
		sa >>= param.BndsUnitShift
		ea >>= param.BndsUnitShift

		regs.CS[i].Bnds = uint32(sa&0xFFF)<<16 | uint32(ea&0xFFF)
		regs.CS[i].Config = csConfig(i, opts, d)
		regs.CS[i].Config2 = 0
	}

	casLatency := common.LowestCommonCASLatency
	if opts.CASLatencyOverride {
		casLatency = opts.CASLatencyOverrideValue
	}

	regs.SdramCfg = e.sdramCfg(opts, common)
	regs.SdramCfg2 = e.sdramCfg2(opts)
	regs.SdramInterval = e.sdramInterval(opts, common)
	regs.TimingCfg3 = e.timingCfg3(common, casLatency)

	return regs, Check(&regs)
}

func (e *FSLEncoder) debugf(format string, v ...interface{}) {
	if e.Logger != nil {
		e.Logger.Printf(format, v...)
	}
}

func dimmOfChipSelect(dimms []param.DimmParams, cs int) param.DimmParams {
	slot := param.SlotOfChipSelect(cs)
	if slot >= len(dimms) {
		return param.DimmParams{}
	}

	return dimms[slot]
}

// chipSelectBounds returns the start and end byte addresses programmed into
// CSn_BNDS. A chip select that takes part in rank interleaving without being
// the first of its group returns zero bounds.
func chipSelectBounds(
	i int,
	opts *param.MemCtlOptions,
	common *param.CommonTimingParams,
	dimms []param.DimmParams,
	capAdjust uint,
) (sa, ea uint64) {
	d := dimmOfChipSelect(dimms, i)
	rankDensity := d.RankDensity >> capAdjust
	bankIntlv := opts.BaIntlvCtl.Pattern()

	switch {
	case opts.MemctlInterleaving && bankIntlv != param.BaIntlvNone:
		// Two identical controllers interleaved with each other and rank
		// interleaved within. Each controller covers twice its own memory.
		if i == 0 && dimms[0].Capacity>>capAdjust > 0 {
			ea = 2*(dimms[0].Capacity>>capAdjust) - 1
		}
	case opts.MemctlInterleaving:
		// Only CS0 of each controller is used. It covers the CS0 ranks of
		// both controllers.
		if i == 0 && dimms[0].RankDensity>>capAdjust > 0 {
			ea = 2*(dimms[0].RankDensity>>capAdjust) - 1
		}
	case bankIntlv != param.BaIntlvNone:
		sa, ea = rankInterleavedBounds(i, bankIntlv, common, d, capAdjust)
	default:
		sa, ea = linearBounds(i, d, rankDensity)
	}

	return sa, ea
}

func rankInterleavedBounds(
	i int,
	pattern param.BaIntlvCtl,
	common *param.CommonTimingParams,
	d param.DimmParams,
	capAdjust uint,
) (sa, ea uint64) {
	rankDensity := d.RankDensity >> capAdjust

	switch pattern {
	case param.BaIntlvCS0CS1CS2CS3:
		if i == 0 {
			sa = common.BaseAddress
			ea = sa + 4*rankDensity - 1
		}
	case param.BaIntlvCS0CS1AndCS2CS3:
		if i%2 == 0 {
			sa = d.BaseAddress
			ea = sa + 2*rankDensity - 1
		}
	case param.BaIntlvCS0CS1:
		switch i {
		case 0:
			sa = common.BaseAddress
			ea = sa + 2*rankDensity - 1
		case 1:
		default:
			sa, ea = linearBounds(i, d, rankDensity)
		}
	case param.BaIntlvCS2CS3:
		switch i {
		case 2:
			sa = d.BaseAddress
			ea = sa + 2*rankDensity - 1
		case 3:
		default:
			sa, ea = linearBounds(i, d, rankDensity)
		}
	}

	return sa, ea
}

// linearBounds places the ranks of a DIMM one after another, starting at the
// base address of the DIMM.
func linearBounds(
	i int,
	d param.DimmParams,
	rankDensity uint64,
) (sa, ea uint64) {
	if rankDensity == 0 {
		return 0, 0
	}

	sa = d.BaseAddress
	ea = sa + rankDensity - 1

	if i%2 == 1 {
		if d.NRanks == 1 {
			return 0, 0
		}

		sa += rankDensity
		ea += rankDensity
	}

	return sa, ea
}

// csConfig builds CSn_CONFIG. Only chip selects backed by an existing rank
// are enabled.
func csConfig(i int, opts *param.MemCtlOptions, d param.DimmParams) uint32 {
	if !(i%2 == 0 && d.NRanks == 1) && d.NRanks < 2 {
		return 0
	}

	var intlvEn, intlvCtl uint32
	if i == 0 {
		if opts.MemctlInterleaving {
			intlvEn = 1
		}
		intlvCtl = uint32(opts.MemctlInterleavingMode)
	}

	baBits := uint32(0)
	if d.NBanksPerSdramDevice >= 4 {
		baBits = uint32(bits.Len(d.NBanksPerSdramDevice)-1) - 2
	}

	rowBits := uint32(0)
	if d.NRowAddr >= 12 {
		rowBits = uint32(d.NRowAddr - 12)
	}

	colBits := uint32(0)
	if d.NColAddr >= 8 {
		colBits = uint32(d.NColAddr - 8)
	}

	return 1<<31 |
		(intlvEn&0x3)<<29 |
		(intlvCtl&0xF)<<24 |
		(baBits&0x3)<<14 |
		(rowBits&0x7)<<8 |
		(colBits&0x7)<<0
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}

	return 0
}

func (e *FSLEncoder) sdramCfg(
	opts *param.MemCtlOptions,
	common *param.CommonTimingParams,
) uint32 {
	memEn := uint32(1)
	sren := boolBit(opts.SelfRefreshInSleep)
	eccEn := boolBit(common.AllDIMMsECCCapable && opts.ECCMode)
	rdEn := boolBit(common.AllDIMMsRegistered && !common.AllDIMMsUnbuffered)
	sdramType := uint32(e.Generation)
	dynPwr := boolBit(opts.DynamicPower)
	dbw := uint32(opts.DataBusWidth)

	eightBE := uint32(0)
	if e.Generation == GenerationDDR3 {
		if opts.BurstLength == param.BurstLength8 {
			eightBE = 1
		}

		if opts.BurstLength == param.BurstLengthOTF {
			eightBE = 0
		}

		if opts.DataBusWidth == param.DataBusWidth32 {
			eightBE = 1
		}
	}

	threeTEn := boolBit(opts.ThreeTEn)
	twoTEn := boolBit(opts.TwoTEn)
	baIntlvCtl := uint32(opts.BaIntlvCtl)
	hse := boolBit(opts.HalfStrengthDriverEnable)

	return (memEn&0x1)<<31 |
		(sren&0x1)<<30 |
		(eccEn&0x1)<<29 |
		(rdEn&0x1)<<28 |
		(sdramType&0x7)<<24 |
		(dynPwr&0x1)<<21 |
		(dbw&0x3)<<19 |
		(eightBE&0x1)<<18 |
		(threeTEn&0x1)<<16 |
		(twoTEn&0x1)<<15 |
		(baIntlvCtl&0x7F)<<8 |
		(hse&0x1)<<3
}

func (e *FSLEncoder) sdramCfg2(opts *param.MemCtlOptions) uint32 {
	dllRstDis := uint32(1)
	numPR := uint32(1)

	obcCfg := uint32(0)
	if e.Generation == GenerationDDR3 &&
		opts.BurstLength == param.BurstLengthOTF {
		obcCfg = 1
	}

	dInit := boolBit(opts.ECCMode)

	return (dllRstDis&0x1)<<29 |
		(numPR&0xF)<<12 |
		(obcCfg&0x1)<<6 |
		(dInit&0x1)<<4
}

func (e *FSLEncoder) clockPeriodPs(common *param.CommonTimingParams) uint {
	if e.ClockPeriodPs != 0 {
		return e.ClockPeriodPs
	}

	return common.TCKMinPs
}

// picosToMclk converts a duration into memory clocks, rounding up.
func (e *FSLEncoder) picosToMclk(
	common *param.CommonTimingParams,
	picos uint,
) uint32 {
	period := e.clockPeriodPs(common)
	if period == 0 {
		return 0
	}

	return uint32((picos + period - 1) / period)
}

func (e *FSLEncoder) sdramInterval(
	opts *param.MemCtlOptions,
	common *param.CommonTimingParams,
) uint32 {
	refint := e.picosToMclk(common, common.RefreshRatePs)
	bstopre := uint32(opts.Bstopre)

	return (refint&0xFFFF)<<16 | (bstopre&0x3FFF)<<0
}

func (e *FSLEncoder) timingCfg3(
	common *param.CommonTimingParams,
	casLatency uint,
) uint32 {
	extActToPre := uint32(0)
	if e.picosToMclk(common, common.TRASPs) > 0x13 {
		extActToPre = 1
	}

	extRefRec := uint32(0)
	if rfc := e.picosToMclk(common, common.TRFCPs); rfc > 8 {
		extRefRec = (rfc - 8) >> 4
	}

	extCasLat := uint32(0)
	if casLatency > 8 {
		extCasLat = 1
	}

	return (extActToPre&0x1)<<24 |
		(extRefRec&0xF)<<16 |
		(extCasLat&0x1)<<12
}

// Check reports register combinations that the controller does not allow.
func Check(regs *param.ConfigRegs) error {
	if regs.SdramCfg&0x10000000 != 0 && regs.SdramCfg&0x00008000 != 0 {
		return ErrRegisteredWith2T
	}

	return nil
}

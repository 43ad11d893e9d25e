package param

import "fmt"

// DataBusWidth is the width of the bus between a controller and its DIMMs.
type DataBusWidth uint

// A list of the supported data bus widths. The values are the encodings of
// the DDR_SDRAM_CFG[DBW] field.
const (
	DataBusWidth64 DataBusWidth = 0
	DataBusWidth32 DataBusWidth = 1
	DataBusWidth16 DataBusWidth = 2
)

func (w DataBusWidth) String() string {
	switch w {
	case DataBusWidth64:
		return "64-bit"
	case DataBusWidth32:
		return "32-bit"
	case DataBusWidth16:
		return "16-bit"
	default:
		return fmt.Sprintf("DataBusWidth(%d)", uint(w))
	}
}

// InterleavingMode defines how addresses are spread across two controllers.
type InterleavingMode uint

// A list of controller interleaving modes.
const (
	CacheLineInterleaving InterleavingMode = 0
	PageInterleaving      InterleavingMode = 1
	BankInterleaving      InterleavingMode = 2
	SuperbankInterleaving InterleavingMode = 3
)

func (m InterleavingMode) String() string {
	switch m {
	case CacheLineInterleaving:
		return "cache line"
	case PageInterleaving:
		return "page"
	case BankInterleaving:
		return "bank"
	case SuperbankInterleaving:
		return "super-bank"
	default:
		return fmt.Sprintf("InterleavingMode(%d)", uint(m))
	}
}

// BaIntlvCtl tells which chip selects of a controller are rank interleaved.
type BaIntlvCtl uint

// A list of chip-select interleaving patterns. The values are the encodings
// of the DDR_SDRAM_CFG[BA_INTLV_CTL] field.
const (
	BaIntlvNone            BaIntlvCtl = 0
	BaIntlvCS0CS1          BaIntlvCtl = 0x40
	BaIntlvCS2CS3          BaIntlvCtl = 0x20
	BaIntlvCS0CS1AndCS2CS3 BaIntlvCtl = BaIntlvCS0CS1 | BaIntlvCS2CS3
	BaIntlvCS0CS1CS2CS3    BaIntlvCtl = BaIntlvCS0CS1AndCS2CS3 | 0x04
)

// Pattern strips bits that are not part of the chip-select pattern.
func (c BaIntlvCtl) Pattern() BaIntlvCtl {
	return c & BaIntlvCS0CS1CS2CS3
}

func (c BaIntlvCtl) String() string {
	switch c {
	case BaIntlvNone:
		return "none"
	case BaIntlvCS0CS1:
		return "CS0+CS1"
	case BaIntlvCS2CS3:
		return "CS2+CS3"
	case BaIntlvCS0CS1AndCS2CS3:
		return "CS0+CS1 and CS2+CS3"
	case BaIntlvCS0CS1CS2CS3:
		return "CS0+CS1+CS2+CS3"
	default:
		return fmt.Sprintf("BaIntlvCtl(%#x)", uint(c))
	}
}

// BurstLength selects the DDR3 burst mode.
type BurstLength uint

// A list of burst length settings.
const (
	BurstLength4   BurstLength = 4
	BurstLengthOTF BurstLength = 6
	BurstLength8   BurstLength = 8
)

// MemCtlOptions is the per-controller configuration derived from the common
// timing profile and the board policy.
type MemCtlOptions struct {
	DataBusWidth           DataBusWidth
	MemctlInterleaving     bool
	MemctlInterleavingMode InterleavingMode
	BaIntlvCtl             BaIntlvCtl

	RegisteredDIMMEn         bool
	ECCMode                  bool
	TwoTEn                   bool
	ThreeTEn                 bool
	BurstLength              BurstLength
	SelfRefreshInSleep       bool
	DynamicPower             bool
	HalfStrengthDriverEnable bool

	CASLatencyOverride           bool
	CASLatencyOverrideValue      uint
	AdditiveLatencyOverride      bool
	AdditiveLatencyOverrideValue uint

	Bstopre uint
	ZQEn    bool
	WrlvlEn bool
}

// NarrowingStatus reports what the data bus width capacity adjustment did on
// one controller.
type NarrowingStatus int

// A list of narrowing results.
const (
	NarrowingNone NarrowingStatus = iota
	NarrowingHalved
	NarrowingNotImplemented
)

func (s NarrowingStatus) String() string {
	switch s {
	case NarrowingNone:
		return "none"
	case NarrowingHalved:
		return "halved"
	case NarrowingNotImplemented:
		return "not implemented"
	default:
		return fmt.Sprintf("NarrowingStatus(%d)", int(s))
	}
}

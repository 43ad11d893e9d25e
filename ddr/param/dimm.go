package param

// SDRAMType is the DRAM generation reported by the SPD.
type SDRAMType int

// A list of SDRAM types that the decoder recognizes.
const (
	SDRAMTypeUnknown SDRAMType = iota
	SDRAMTypeDDR2
	SDRAMTypeDDR3
)

func (t SDRAMType) String() string {
	switch t {
	case SDRAMTypeDDR2:
		return "DDR2"
	case SDRAMTypeDDR3:
		return "DDR3"
	default:
		return "unknown"
	}
}

// DimmParams holds the parameters of the DIMM plugged into one slot of one
// controller. Everything except BaseAddress is produced by the SPD decoder.
// BaseAddress is filled in by address assignment.
type DimmParams struct {
	Type SDRAMType

	Capacity    uint64
	RankDensity uint64
	NRanks      uint

	// DataWidth is the primary bus width in bits, including ECC bits (64 or
	// 72).
	DataWidth   uint
	DeviceWidth uint
	ECCCapable  bool
	Registered  bool

	NRowAddr             uint
	NColAddr             uint
	NBanksPerSdramDevice uint

	TCKMinPs      uint
	CASLatencies  uint32
	TRCDPs        uint
	TRPPs         uint
	TRASPs        uint
	TWRPs         uint
	TRFCPs        uint
	RefreshRatePs uint

	BaseAddress uint64
}

// Present tells if a DIMM is plugged into the slot.
func (d *DimmParams) Present() bool {
	return d.NRanks > 0
}

// AdjustedCapacity returns the capacity after applying the data bus width
// capacity adjustment shift.
func (d *DimmParams) AdjustedCapacity(shift uint) uint64 {
	return d.Capacity >> shift
}

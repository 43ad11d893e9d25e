package param

// CommonTimingParams is the conservative timing profile that all the DIMMs on
// one controller can run with. BaseAddress and TotalMem are filled in during
// address assignment.
type CommonTimingParams struct {
	NDimmsPresent      int
	AllDIMMsRegistered bool
	AllDIMMsUnbuffered bool
	AllDIMMsECCCapable bool

	TCKMinPs               uint
	LowestCommonCASLatency uint
	AdditiveLatency        uint
	TRCDPs                 uint
	TRPPs                  uint
	TRASPs                 uint
	TWRPs                  uint
	TRFCPs                 uint
	RefreshRatePs          uint

	BaseAddress uint64
	TotalMem    uint64
}

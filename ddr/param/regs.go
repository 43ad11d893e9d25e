package param

// ChipSelectRegs holds the registers of one chip select.
type ChipSelectRegs struct {
	Bnds    uint32
	Config  uint32
	Config2 uint32
}

// ConfigRegs is the register image of one memory controller.
type ConfigRegs struct {
	CS [ChipSelectsPerController]ChipSelectRegs

	SdramCfg      uint32
	SdramCfg2     uint32
	SdramInterval uint32
	TimingCfg3    uint32
}

const (
	csConfigValidBit = 1 << 31
	csBndsFieldMask  = 0xFFF
)

// BndsUnitShift converts a byte address into the units of the CSn_BNDS
// fields.
const BndsUnitShift = 24

// Valid tells if a chip select is enabled.
func (r *ConfigRegs) Valid(cs int) bool {
	return r.CS[cs].Config&csConfigValidBit != 0
}

// EndField returns the ending address field of CSn_BNDS.
func (r *ConfigRegs) EndField(cs int) uint32 {
	return r.CS[cs].Bnds & csBndsFieldMask
}

// StartField returns the starting address field of CSn_BNDS.
func (r *ConfigRegs) StartField(cs int) uint32 {
	return (r.CS[cs].Bnds >> 16) & csBndsFieldMask
}

// Zero clears the whole register image.
func (r *ConfigRegs) Zero() {
	*r = ConfigRegs{}
}

// IsZero tells if the register image has never been computed.
func (r *ConfigRegs) IsZero() bool {
	return *r == ConfigRegs{}
}

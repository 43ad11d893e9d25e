// Package option derives the per-controller memory controller options from
// the board policy and the DIMMs that are actually plugged in.
package option

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// ErrBadHWConfig is returned when a hwconfig string cannot be applied.
var ErrBadHWConfig = errors.New("bad hwconfig")

// Policy is what the board wants from its memory controllers. The populator
// only keeps the parts that the DIMM population supports.
type Policy struct {
	DataBusWidth           param.DataBusWidth
	MemctlInterleaving     bool
	MemctlInterleavingMode param.InterleavingMode
	BaIntlvCtl             param.BaIntlvCtl

	ECC                bool
	TwoT               bool
	ThreeT             bool
	BurstLength        param.BurstLength
	HalfStrengthDriver bool
	SelfRefreshInSleep bool
	DynamicPower       bool
	Bstopre            uint
	ZQ                 bool
	WriteLeveling      bool

	CASLatencyOverride      *uint
	AdditiveLatencyOverride *uint
}

// DefaultPolicy returns the policy of a board that does not ask for anything
// special.
func DefaultPolicy() Policy {
	return Policy{
		DataBusWidth:       param.DataBusWidth64,
		ECC:                true,
		BurstLength:        param.BurstLength8,
		SelfRefreshInSleep: true,
		Bstopre:            0x100,
		ZQ:                 true,
		WriteLeveling:      true,
	}
}

const hwconfigSubsystem = "fsl_ddr"

var memctlInterleavingModes = map[string]param.InterleavingMode{
	"cacheline": param.CacheLineInterleaving,
	"page":      param.PageInterleaving,
	"bank":      param.BankInterleaving,
	"superbank": param.SuperbankInterleaving,
}

var bankInterleavingPatterns = map[string]param.BaIntlvCtl{
	"null":                param.BaIntlvNone,
	"cs0_cs1":             param.BaIntlvCS0CS1,
	"cs2_cs3":             param.BaIntlvCS2CS3,
	"cs0_cs1_and_cs2_cs3": param.BaIntlvCS0CS1AndCS2CS3,
	"cs0_cs1_cs2_cs3":     param.BaIntlvCS0CS1CS2CS3,
}

// ParseInterleavingMode returns the controller interleaving mode with a
// hwconfig name such as "cacheline".
func ParseInterleavingMode(name string) (param.InterleavingMode, error) {
	mode, ok := memctlInterleavingModes[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown ctlr_intlv %q", ErrBadHWConfig, name)
	}

	return mode, nil
}

// ParseBankInterleaving returns the chip-select interleaving pattern with a
// hwconfig name such as "cs0_cs1".
func ParseBankInterleaving(name string) (param.BaIntlvCtl, error) {
	pattern, ok := bankInterleavingPatterns[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown bank_intlv %q", ErrBadHWConfig, name)
	}

	return pattern, nil
}

// ParseHWConfig applies the fsl_ddr part of a hwconfig string, such as
// "fsl_ddr:ctlr_intlv=cacheline,bank_intlv=cs0_cs1,ecc=on", on top of a
// policy. Subsystems are separated by semicolons and the others are ignored.
func ParseHWConfig(hwconfig string, base Policy) (Policy, error) {
	p := base

	for _, entry := range strings.Split(hwconfig, ";") {
		name, options, found := strings.Cut(strings.TrimSpace(entry), ":")
		if !found || name != hwconfigSubsystem {
			continue
		}

		for _, option := range strings.Split(options, ",") {
			if option == "" {
				continue
			}

			err := p.applyHWConfigOption(option)
			if err != nil {
				return base, err
			}
		}
	}

	return p, nil
}

func (p *Policy) applyHWConfigOption(option string) error {
	key, value, found := strings.Cut(option, "=")
	if !found {
		return fmt.Errorf("%w: option %q has no value", ErrBadHWConfig, option)
	}

	switch key {
	case "ctlr_intlv":
		if value == "null" {
			p.MemctlInterleaving = false
			return nil
		}

		mode, err := ParseInterleavingMode(value)
		if err != nil {
			return err
		}

		p.MemctlInterleaving = true
		p.MemctlInterleavingMode = mode
	case "bank_intlv":
		pattern, err := ParseBankInterleaving(value)
		if err != nil {
			return err
		}

		p.BaIntlvCtl = pattern
	case "ecc":
		on, err := parseSwitch(value)
		if err != nil {
			return err
		}

		p.ECC = on
	case "2t":
		on, err := parseSwitch(value)
		if err != nil {
			return err
		}

		p.TwoT = on
	default:
		return fmt.Errorf("%w: unknown option %q", ErrBadHWConfig, key)
	}

	return nil
}

func parseSwitch(value string) (bool, error) {
	switch value {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is neither on nor off",
			ErrBadHWConfig, value)
	}
}

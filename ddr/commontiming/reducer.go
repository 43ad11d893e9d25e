// Package commontiming reduces the parameters of the DIMMs on one controller
// to a timing profile that all of them can run with.
package commontiming

import (
	"errors"
	"math/bits"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// A list of problems found while reducing. The common parameters are still
// filled in when one of them is returned.
var (
	ErrMixedBuffering = errors.New("mix of registered and unbuffered DIMMs")
	ErrNoCommonCAS    = errors.New("no CAS latency supported by all DIMMs")
)

// A Reducer computes the common timing parameters of a controller from the
// parameters of its DIMMs.
type Reducer interface {
	Reduce(dimms []param.DimmParams) (param.CommonTimingParams, error)
}

// LowestCommon picks the slowest timing of all present DIMMs.
type LowestCommon struct{}

// Reduce computes the common timing parameters.
func (LowestCommon) Reduce(
	dimms []param.DimmParams,
) (param.CommonTimingParams, error) {
	c := param.CommonTimingParams{
		AllDIMMsRegistered: true,
		AllDIMMsUnbuffered: true,
		AllDIMMsECCCapable: true,
	}

	cas := ^uint32(0)

	for i := range dimms {
		d := &dimms[i]
		if !d.Present() {
			continue
		}

		c.NDimmsPresent++

		c.AllDIMMsRegistered = c.AllDIMMsRegistered && d.Registered
		c.AllDIMMsUnbuffered = c.AllDIMMsUnbuffered && !d.Registered
		c.AllDIMMsECCCapable = c.AllDIMMsECCCapable && d.ECCCapable

		c.TCKMinPs = max(c.TCKMinPs, d.TCKMinPs)
		c.TRCDPs = max(c.TRCDPs, d.TRCDPs)
		c.TRPPs = max(c.TRPPs, d.TRPPs)
		c.TRASPs = max(c.TRASPs, d.TRASPs)
		c.TWRPs = max(c.TWRPs, d.TWRPs)
		c.TRFCPs = max(c.TRFCPs, d.TRFCPs)

		if c.RefreshRatePs == 0 || d.RefreshRatePs < c.RefreshRatePs {
			c.RefreshRatePs = d.RefreshRatePs
		}

		cas &= d.CASLatencies
	}

	if c.NDimmsPresent == 0 {
		return param.CommonTimingParams{}, nil
	}

	var err error

	if !c.AllDIMMsRegistered && !c.AllDIMMsUnbuffered {
		err = ErrMixedBuffering
	}

	if cas == 0 {
		err = errors.Join(err, ErrNoCommonCAS)
	} else {
		c.LowestCommonCASLatency = uint(bits.TrailingZeros32(cas))
	}

	return c, err
}

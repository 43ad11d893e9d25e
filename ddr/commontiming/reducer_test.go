package commontiming

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

var _ = Describe("LowestCommon", func() {
	var (
		reducer LowestCommon
		fast    param.DimmParams
		slow    param.DimmParams
	)

	BeforeEach(func() {
		fast = param.DimmParams{
			NRanks:        1,
			ECCCapable:    true,
			TCKMinPs:      1500,
			CASLatencies:  0x7C0,
			TRCDPs:        13125,
			TRPPs:         13125,
			TRASPs:        36000,
			TWRPs:         15000,
			TRFCPs:        110000,
			RefreshRatePs: 7800000,
		}
		slow = param.DimmParams{
			NRanks:        2,
			TCKMinPs:      1875,
			CASLatencies:  0x3E0,
			TRCDPs:        15000,
			TRPPs:         15000,
			TRASPs:        37500,
			TWRPs:         15000,
			TRFCPs:        160000,
			RefreshRatePs: 3900000,
		}
	})

	It("should return zero parameters without DIMMs", func() {
		c, err := reducer.Reduce(make([]param.DimmParams, 2))

		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(param.CommonTimingParams{}))
	})

	It("should take the slowest timing of all DIMMs", func() {
		c, err := reducer.Reduce([]param.DimmParams{fast, {}, slow})

		Expect(err).NotTo(HaveOccurred())
		Expect(c.NDimmsPresent).To(Equal(2))
		Expect(c.TCKMinPs).To(Equal(uint(1875)))
		Expect(c.TRCDPs).To(Equal(uint(15000)))
		Expect(c.TRASPs).To(Equal(uint(37500)))
		Expect(c.TRFCPs).To(Equal(uint(160000)))
		Expect(c.RefreshRatePs).To(Equal(uint(3900000)))
		Expect(c.LowestCommonCASLatency).To(Equal(uint(6)))
	})

	It("should require all DIMMs for the shared flags", func() {
		c, _ := reducer.Reduce([]param.DimmParams{fast, slow})

		Expect(c.AllDIMMsECCCapable).To(BeFalse())
		Expect(c.AllDIMMsUnbuffered).To(BeTrue())
		Expect(c.AllDIMMsRegistered).To(BeFalse())

		c, _ = reducer.Reduce([]param.DimmParams{fast})
		Expect(c.AllDIMMsECCCapable).To(BeTrue())
	})

	It("should report a mix of registered and unbuffered DIMMs", func() {
		slow.Registered = true

		c, err := reducer.Reduce([]param.DimmParams{fast, slow})

		Expect(err).To(MatchError(ErrMixedBuffering))
		Expect(c.NDimmsPresent).To(Equal(2))
	})

	It("should report DIMMs without a common CAS latency", func() {
		slow.CASLatencies = 0x020

		_, err := reducer.Reduce([]param.DimmParams{fast, slow})

		Expect(err).To(MatchError(ErrNoCommonCAS))
	})
})

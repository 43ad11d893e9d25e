package option

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

func dimm(ranks uint, capacity uint64) param.DimmParams {
	return param.DimmParams{NRanks: ranks, Capacity: capacity}
}

var _ = Describe("BoardPopulator", func() {
	var (
		populator BoardPopulator
		common    *param.CommonTimingParams
	)

	BeforeEach(func() {
		populator = BoardPopulator{
			Policy:         DefaultPolicy(),
			NumControllers: 2,
		}
		common = &param.CommonTimingParams{
			NDimmsPresent:      1,
			AllDIMMsUnbuffered: true,
		}
	})

	It("should copy the policy", func() {
		opts := populator.Populate(common, 0,
			[]param.DimmParams{dimm(1, param.GB), {}})

		Expect(opts.DataBusWidth).To(Equal(param.DataBusWidth64))
		Expect(opts.BurstLength).To(Equal(param.BurstLength8))
		Expect(opts.Bstopre).To(Equal(uint(0x100)))
		Expect(opts.MemctlInterleaving).To(BeFalse())
		Expect(opts.BaIntlvCtl).To(Equal(param.BaIntlvNone))
	})

	Context("controller interleaving", func() {
		BeforeEach(func() {
			populator.Policy.MemctlInterleaving = true
		})

		It("should be on when slot 0 is populated", func() {
			opts := populator.Populate(common, 1,
				[]param.DimmParams{dimm(1, param.GB), {}})

			Expect(opts.MemctlInterleaving).To(BeTrue())
		})

		It("should be off when slot 0 is empty", func() {
			opts := populator.Populate(common, 1,
				[]param.DimmParams{{}, dimm(1, param.GB)})

			Expect(opts.MemctlInterleaving).To(BeFalse())
		})

		It("should be off with a single controller", func() {
			populator.NumControllers = 1

			opts := populator.Populate(common, 0,
				[]param.DimmParams{dimm(1, param.GB), {}})

			Expect(opts.MemctlInterleaving).To(BeFalse())
		})
	})

	DescribeTable("bank interleaving",
		func(pattern param.BaIntlvCtl, dimms []param.DimmParams,
			expected param.BaIntlvCtl,
		) {
			populator.Policy.BaIntlvCtl = pattern

			opts := populator.Populate(common, 0, dimms)

			Expect(opts.BaIntlvCtl).To(Equal(expected))
		},
		Entry("CS0+CS1 on a dual-rank DIMM",
			param.BaIntlvCS0CS1,
			[]param.DimmParams{dimm(2, param.GB), {}},
			param.BaIntlvCS0CS1),
		Entry("CS0+CS1 on a single-rank DIMM",
			param.BaIntlvCS0CS1,
			[]param.DimmParams{dimm(1, param.GB), {}},
			param.BaIntlvNone),
		Entry("CS2+CS3 without a second DIMM",
			param.BaIntlvCS2CS3,
			[]param.DimmParams{dimm(2, param.GB), {}},
			param.BaIntlvNone),
		Entry("CS2+CS3 with a single slot",
			param.BaIntlvCS2CS3,
			[]param.DimmParams{dimm(2, param.GB)},
			param.BaIntlvNone),
		Entry("both pairs on two dual-rank DIMMs",
			param.BaIntlvCS0CS1AndCS2CS3,
			[]param.DimmParams{dimm(2, param.GB), dimm(2, 2*param.GB)},
			param.BaIntlvCS0CS1AndCS2CS3),
		Entry("four-way on DIMMs of different sizes",
			param.BaIntlvCS0CS1CS2CS3,
			[]param.DimmParams{dimm(2, param.GB), dimm(2, 2*param.GB)},
			param.BaIntlvNone),
		Entry("four-way on matching DIMMs",
			param.BaIntlvCS0CS1CS2CS3,
			[]param.DimmParams{dimm(2, param.GB), dimm(2, param.GB)},
			param.BaIntlvCS0CS1CS2CS3),
	)

	It("should follow the DIMMs for registered mode and ECC", func() {
		populator.Policy.TwoT = true
		common.AllDIMMsRegistered = true
		common.AllDIMMsUnbuffered = false

		opts := populator.Populate(common, 0, nil)

		Expect(opts.RegisteredDIMMEn).To(BeTrue())
		Expect(opts.TwoTEn).To(BeFalse())
		Expect(opts.ECCMode).To(BeFalse())

		common.AllDIMMsECCCapable = true
		opts = populator.Populate(common, 0, nil)
		Expect(opts.ECCMode).To(BeTrue())
	})

	It("should apply latency overrides", func() {
		cl := uint(7)
		populator.Policy.CASLatencyOverride = &cl

		opts := populator.Populate(common, 0, nil)

		Expect(opts.CASLatencyOverride).To(BeTrue())
		Expect(opts.CASLatencyOverrideValue).To(Equal(uint(7)))
		Expect(opts.AdditiveLatencyOverride).To(BeFalse())
	})
})

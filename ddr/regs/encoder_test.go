package regs

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

func ddr3Dimm(nRanks uint, rankDensity uint64, base uint64) param.DimmParams {
	return param.DimmParams{
		Type:                 param.SDRAMTypeDDR3,
		NRanks:               nRanks,
		RankDensity:          rankDensity,
		Capacity:             rankDensity * uint64(nRanks),
		DataWidth:            64,
		NRowAddr:             14,
		NColAddr:             10,
		NBanksPerSdramDevice: 8,
		BaseAddress:          base,
	}
}

var _ = Describe("FSLEncoder", func() {
	var (
		encoder *FSLEncoder
		opts    *param.MemCtlOptions
		common  *param.CommonTimingParams
		dimms   []param.DimmParams
	)

	BeforeEach(func() {
		encoder = NewDDR3Encoder(1500)
		opts = &param.MemCtlOptions{BurstLength: param.BurstLength8}
		common = &param.CommonTimingParams{
			NDimmsPresent:          1,
			LowestCommonCASLatency: 9,
			TRASPs:                 36000,
			TRFCPs:                 160000,
			RefreshRatePs:          7800000,
		}
		dimms = make([]param.DimmParams, 2)
	})

	Context("chip select bounds", func() {
		It("should cover a single-rank DIMM with CS0", func() {
			dimms[0] = ddr3Dimm(1, param.GB, 0x20000000)
			common.BaseAddress = 0x20000000

			regs, err := encoder.Encode(opts, common, dimms, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(regs.CS[0].Bnds).To(Equal(uint32(0x0020005F)))
			Expect(regs.Valid(0)).To(BeTrue())
			Expect(regs.CS[1].Bnds).To(BeZero())
			Expect(regs.Valid(1)).To(BeFalse())
			Expect(regs.Valid(2)).To(BeFalse())
		})

		It("should stack the ranks of a dual-rank DIMM", func() {
			dimms[0] = ddr3Dimm(2, 512*param.MB, 0)
			dimms[1] = ddr3Dimm(2, 512*param.MB, param.GB)

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.CS[0].Bnds).To(Equal(uint32(0x0000001F)))
			Expect(regs.CS[1].Bnds).To(Equal(uint32(0x0020003F)))
			Expect(regs.CS[2].Bnds).To(Equal(uint32(0x0040005F)))
			Expect(regs.CS[3].Bnds).To(Equal(uint32(0x0060007F)))
			for cs := 0; cs < 4; cs++ {
				Expect(regs.Valid(cs)).To(BeTrue())
			}
		})

		It("should halve bounds with a capacity adjustment", func() {
			dimms[0] = ddr3Dimm(1, param.GB, 0)

			regs, _ := encoder.Encode(opts, common, dimms, 1)

			Expect(regs.EndField(0)).To(Equal(uint32(0x1F)))
		})

		It("should put CS0+CS1 interleaving into CS0", func() {
			opts.BaIntlvCtl = param.BaIntlvCS0CS1
			dimms[0] = ddr3Dimm(2, 512*param.MB, param.GB)
			common.BaseAddress = param.GB

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.StartField(0)).To(Equal(uint32(0x40)))
			Expect(regs.EndField(0)).To(Equal(uint32(0x7F)))
			Expect(regs.CS[1].Bnds).To(BeZero())
			Expect(regs.Valid(1)).To(BeTrue())
			Expect(regs.SdramCfg >> 8 & 0x7F).To(Equal(uint32(0x40)))
		})

		It("should put four-way interleaving into CS0", func() {
			opts.BaIntlvCtl = param.BaIntlvCS0CS1CS2CS3
			dimms[0] = ddr3Dimm(2, 512*param.MB, 0)
			dimms[1] = ddr3Dimm(2, 512*param.MB, param.GB)

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.EndField(0)).To(Equal(uint32(0x7F)))
			Expect(regs.CS[2].Bnds).To(BeZero())
		})

		It("should cover both controllers when they are interleaved", func() {
			opts.MemctlInterleaving = true
			opts.MemctlInterleavingMode = param.PageInterleaving
			dimms[0] = ddr3Dimm(1, param.GB, 0)

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.EndField(0)).To(Equal(uint32(0x7F)))
			Expect(regs.CS[0].Config >> 29 & 0x3).To(Equal(uint32(1)))
			Expect(regs.CS[0].Config >> 24 & 0xF).To(Equal(uint32(1)))
		})

		It("should use the whole DIMM for superbank interleaving", func() {
			opts.MemctlInterleaving = true
			opts.BaIntlvCtl = param.BaIntlvCS0CS1
			dimms[0] = ddr3Dimm(2, 512*param.MB, 0)

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.EndField(0)).To(Equal(uint32(0x7F)))
			Expect(regs.CS[1].Bnds).To(BeZero())
		})
	})

	Context("chip select config", func() {
		It("should encode the address bits", func() {
			dimms[0] = ddr3Dimm(1, param.GB, 0)

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.CS[0].Config).To(Equal(uint32(
				1<<31 | 1<<14 | 2<<8 | 2)))
		})
	})

	Context("sdram config", func() {
		It("should encode the DDR3 type and the 8-beat burst", func() {
			dimms[0] = ddr3Dimm(1, param.GB, 0)

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.SdramCfg >> 31).To(Equal(uint32(1)))
			Expect(regs.SdramCfg >> 24 & 0x7).To(Equal(uint32(7)))
			Expect(regs.SdramCfg >> 18 & 0x1).To(Equal(uint32(1)))
		})

		It("should force the 8-beat burst on a 32-bit bus", func() {
			opts.BurstLength = param.BurstLengthOTF
			opts.DataBusWidth = param.DataBusWidth32

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.SdramCfg >> 18 & 0x1).To(Equal(uint32(1)))
			Expect(regs.SdramCfg >> 19 & 0x3).To(Equal(uint32(1)))
			Expect(regs.SdramCfg2 >> 6 & 0x1).To(Equal(uint32(1)))
		})

		It("should not set the 8-beat burst on DDR2", func() {
			encoder = NewDDR2Encoder(2500)

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.SdramCfg >> 24 & 0x7).To(Equal(uint32(3)))
			Expect(regs.SdramCfg >> 18 & 0x1).To(BeZero())
		})

		It("should only enable ECC if all DIMMs are capable", func() {
			opts.ECCMode = true

			regs, _ := encoder.Encode(opts, common, dimms, 0)
			Expect(regs.SdramCfg >> 29 & 0x1).To(BeZero())

			common.AllDIMMsECCCapable = true
			regs, _ = encoder.Encode(opts, common, dimms, 0)
			Expect(regs.SdramCfg >> 29 & 0x1).To(Equal(uint32(1)))
		})

		It("should report registered DIMMs with 2T timing", func() {
			common.AllDIMMsRegistered = true
			opts.TwoTEn = true

			regs, err := encoder.Encode(opts, common, dimms, 0)

			Expect(err).To(MatchError(ErrRegisteredWith2T))
			Expect(regs.SdramCfg >> 28 & 0x1).To(Equal(uint32(1)))
		})
	})

	Context("timing", func() {
		It("should convert the refresh interval into clocks", func() {
			opts.Bstopre = 0x100

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.SdramInterval >> 16).To(Equal(uint32(5200)))
			Expect(regs.SdramInterval & 0x3FFF).To(Equal(uint32(0x100)))
		})

		It("should set the extended timing fields", func() {
			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.TimingCfg3 >> 24 & 0x1).To(Equal(uint32(1)))
			Expect(regs.TimingCfg3 >> 16 & 0xF).To(Equal(uint32(6)))
			Expect(regs.TimingCfg3 >> 12 & 0x1).To(Equal(uint32(1)))
		})

		It("should fall back to tCKmin for the clock period", func() {
			encoder = NewDDR3Encoder(0)
			common.TCKMinPs = 3000

			regs, _ := encoder.Encode(opts, common, dimms, 0)

			Expect(regs.SdramInterval >> 16).To(Equal(uint32(2600)))
		})
	})
})

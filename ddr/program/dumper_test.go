package program

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

var _ = Describe("DDRLaws", func() {
	It("should use one window for a power-of-two size", func() {
		laws, uncovered := DDRLaws("DDR_1", 0, 2*param.GB)

		Expect(uncovered).To(BeZero())
		Expect(laws).To(Equal([]LAW{{Target: "DDR_1", Size: 2 * param.GB}}))
		Expect(laws[0].SizeEncoding()).To(Equal(uint32(0x1E)))
	})

	It("should split other sizes", func() {
		laws, uncovered := DDRLaws("DDR_1", 0, 3*param.GB)

		Expect(uncovered).To(BeZero())
		Expect(laws).To(HaveLen(2))
		Expect(laws[1].Base).To(Equal(2 * param.GB))
		Expect(laws[1].Size).To(Equal(param.GB))
	})

	It("should follow the alignment of the base", func() {
		laws, uncovered := DDRLaws("DDR_2", 512*param.MB, param.GB)

		Expect(laws[0].Size).To(Equal(512 * param.MB))
		Expect(laws[1].Base).To(Equal(param.GB))
		Expect(laws[1].Size).To(Equal(512 * param.MB))
		Expect(uncovered).To(BeZero())
	})

	It("should report what two windows cannot cover", func() {
		_, uncovered := DDRLaws("DDR_1", 0, 3*param.GB+512*param.MB)

		Expect(uncovered).To(Equal(512 * param.MB))
	})
})

var _ = Describe("Dumper", func() {
	var (
		buf    *bytes.Buffer
		dumper *Dumper
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		dumper = NewDumper(buf)
	})

	It("should dump registers", func() {
		regs := &param.ConfigRegs{}
		regs.CS[0].Bnds = 0x1F
		regs.SdramCfg = 0xC7040000

		Expect(dumper.WriteRegisters(regs, 1)).To(Succeed())

		Expect(buf.String()).To(HavePrefix("memctl 1 registers:\n"))
		Expect(buf.String()).To(MatchRegexp(`cs0_bnds +0x0000001f`))
		Expect(buf.String()).To(MatchRegexp(`ddr_sdram_cfg +0xc7040000`))
	})

	It("should dump the windows of a controller", func() {
		common := &param.CommonTimingParams{
			NDimmsPresent: 1,
			BaseAddress:   param.GB,
			TotalMem:      param.GB,
		}

		Expect(dumper.SetLawBar(common, false, 1)).To(Succeed())

		Expect(buf.String()).To(Equal(
			"LAW: DDR_2 base 0x040000000 size 0x40000000 (enc 0x1d)\n"))
	})

	It("should use the interleaved target", func() {
		common := &param.CommonTimingParams{NDimmsPresent: 1, TotalMem: param.GB}

		Expect(dumper.SetLawBar(common, true, 0)).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("DDR_INTRLV"))
	})

	It("should skip controllers without DIMMs", func() {
		Expect(dumper.SetLawBar(&param.CommonTimingParams{}, false, 0)).
			To(Succeed())

		Expect(buf.String()).To(BeEmpty())
	})
})

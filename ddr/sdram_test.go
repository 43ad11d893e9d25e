package ddr

import (
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ddrconfig/ddr/option"
	"github.com/sarchlab/ddrconfig/ddr/param"
	"github.com/sarchlab/ddrconfig/ddr/spd"
)

var _ = Describe("Sdram", func() {
	var (
		mockCtrl   *gomock.Controller
		programmer *MockProgrammer
		reader     *spd.StaticReader
		policy     option.Policy
		sdram      *Sdram
	)

	build := func() {
		p := MakeBuilder().
			WithLogger(log.New(GinkgoWriter, "", 0)).
			WithReader(reader).
			WithPolicy(policy).
			Build()
		sdram = NewSdram(p, programmer)
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		programmer = NewMockProgrammer(mockCtrl)
		reader = spd.NewStaticReader()
		policy = option.DefaultPolicy()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should program every populated controller", func() {
		reader.Set(0, 0, ddr3SPD(1, 512*param.MB))
		reader.Set(1, 0, ddr3SPD(1, param.GB))
		build()

		programmer.EXPECT().WriteRegisters(gomock.Any(), 0)
		programmer.EXPECT().WriteRegisters(gomock.Any(), 1)
		programmer.EXPECT().SetLawBar(gomock.Any(), false, 0)
		programmer.EXPECT().SetLawBar(gomock.Any(), false, 1)

		total, err := sdram.Init()

		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(uint64(0x60000000)))
		Expect(sdram.State().Common[1].TotalMem).To(Equal(param.GB))
	})

	It("should skip controllers without DIMMs", func() {
		reader.Set(0, 0, ddr3SPD(1, param.GB))
		build()

		programmer.EXPECT().WriteRegisters(gomock.Any(), 0)
		programmer.EXPECT().SetLawBar(gomock.Any(), false, 0)
		programmer.EXPECT().SetLawBar(gomock.Any(), false, 1)

		total, err := sdram.Init()

		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(param.GB))
	})

	It("should set one LAW for interleaved controllers", func() {
		policy.MemctlInterleaving = true
		reader.Set(0, 0, ddr3SPD(1, param.GB))
		reader.Set(1, 0, ddr3SPD(1, param.GB))
		build()

		programmer.EXPECT().WriteRegisters(gomock.Any(), 0)
		programmer.EXPECT().WriteRegisters(gomock.Any(), 1)
		programmer.EXPECT().
			SetLawBar(gomock.Any(), true, 0).
			Do(func(c *param.CommonTimingParams, _ bool, _ int) {
				Expect(c.TotalMem).To(Equal(param.GB))
			})

		total, err := sdram.Init()

		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(2 * param.GB))
	})

	It("should reject partial controller interleaving", func() {
		policy.MemctlInterleaving = true
		reader.Set(0, 0, ddr3SPD(1, param.GB))
		reader.Set(1, 1, ddr3SPD(1, param.GB))
		build()

		total, err := sdram.Init()

		Expect(err).To(MatchError(ErrInconsistentInterleaving))
		Expect(total).To(BeZero())
	})

	It("should not program anything after a fatal SPD error", func() {
		bad := ddr3SPD(1, param.GB)
		bad[126]++
		reader.Set(0, 0, bad)
		build()

		total, err := sdram.Init()

		Expect(err).To(MatchError(ErrFatalSPD))
		Expect(total).To(BeZero())
	})

	It("should report programming failures", func() {
		reader.Set(0, 0, ddr3SPD(1, param.GB))
		build()

		programmer.EXPECT().
			WriteRegisters(gomock.Any(), 0).
			Return(errors.New("bus error"))

		_, err := sdram.Init()

		Expect(err).To(MatchError(ContainSubstring("bus error")))
	})

	Context("when reprogramming an edited state", func() {
		var state *State

		BeforeEach(func() {
			reader.Set(0, 0, ddr3SPD(1, 512*param.MB))
			reader.Set(1, 0, ddr3SPD(1, param.GB))
			build()

			state = NewState(sdram.pipeline.Layout())
			_, err := sdram.pipeline.Compute(state, StepGetSPD)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should program the edited options", func() {
			state.Opts[0].DataBusWidth = param.DataBusWidth32

			programmer.EXPECT().WriteRegisters(gomock.Any(), 0)
			programmer.EXPECT().WriteRegisters(gomock.Any(), 1)
			programmer.EXPECT().SetLawBar(gomock.Any(), false, 0)
			programmer.EXPECT().SetLawBar(gomock.Any(), false, 1)

			total, err := sdram.Reprogram(state, StepAssignAddresses)

			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(uint64(0x50000000)))
			Expect(sdram.State()).To(BeIdenticalTo(state))
		})

		It("should reject interleaving edited into one controller", func() {
			state.Opts[0].MemctlInterleaving = true

			total, err := sdram.Reprogram(state, StepAssignAddresses)

			Expect(err).To(MatchError(ErrInconsistentInterleaving))
			Expect(total).To(BeZero())
		})
	})
})

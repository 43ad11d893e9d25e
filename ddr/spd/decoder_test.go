package spd

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

var _ = Describe("AutoDecoder", func() {
	var decoder AutoDecoder

	BeforeEach(func() {
		decoder = AutoDecoder{}
	})

	It("should report an empty slot as a warning", func() {
		p, status, err := decoder.Decode(make([]byte, 128), 0)

		Expect(status).To(Equal(StatusWarning))
		Expect(err).To(MatchError(ErrNotPresent))
		Expect(p.Present()).To(BeFalse())
	})

	It("should report an unknown memory type as a warning", func() {
		raw := make([]byte, 128)
		raw[2] = 0x0C

		p, status, err := decoder.Decode(raw, 0)

		Expect(status).To(Equal(StatusWarning))
		Expect(err).To(MatchError(ErrUnsupportedType))
		Expect(p).To(Equal(param.DimmParams{}))
	})

	It("should reject a generation the controller does not drive", func() {
		decoder.Want = param.SDRAMTypeDDR3
		raw := Synthesize(Profile{
			Type:        param.SDRAMTypeDDR2,
			Ranks:       1,
			RankDensity: param.GB,
		})

		p, status, err := decoder.Decode(raw, 1)

		Expect(status).To(Equal(StatusWarning))
		Expect(err).To(MatchError(ErrUnsupportedType))
		Expect(p.Present()).To(BeFalse())
	})

	Context("DDR3", func() {
		It("should decode a dual-rank unbuffered DIMM", func() {
			raw := Synthesize(Profile{
				Type:        param.SDRAMTypeDDR3,
				Ranks:       2,
				RankDensity: 2 * param.GB,
				DeviceWidth: 8,
			})

			p, status, err := decoder.Decode(raw, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(StatusOK))
			Expect(p.Type).To(Equal(param.SDRAMTypeDDR3))
			Expect(p.NRanks).To(Equal(uint(2)))
			Expect(p.RankDensity).To(Equal(2 * param.GB))
			Expect(p.Capacity).To(Equal(4 * param.GB))
			Expect(p.DataWidth).To(Equal(uint(64)))
			Expect(p.DeviceWidth).To(Equal(uint(8)))
			Expect(p.NRowAddr).To(Equal(uint(15)))
			Expect(p.NColAddr).To(Equal(uint(10)))
			Expect(p.NBanksPerSdramDevice).To(Equal(uint(8)))
			Expect(p.ECCCapable).To(BeFalse())
			Expect(p.Registered).To(BeFalse())
			Expect(p.TCKMinPs).To(Equal(uint(1500)))
			Expect(p.TRCDPs).To(Equal(uint(13125)))
			Expect(p.TRASPs).To(Equal(uint(36000)))
			Expect(p.TRFCPs).To(Equal(uint(160000)))
			Expect(p.CASLatencies).To(Equal(uint32(0x7C << 4)))
		})

		It("should decode ECC and registered DIMMs", func() {
			raw := Synthesize(Profile{
				Type:        param.SDRAMTypeDDR3,
				Ranks:       1,
				RankDensity: param.GB,
				ECC:         true,
				Registered:  true,
			})

			p, _, err := decoder.Decode(raw, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(p.DataWidth).To(Equal(uint(72)))
			Expect(p.ECCCapable).To(BeTrue())
			Expect(p.Registered).To(BeTrue())
			Expect(p.NRowAddr).To(Equal(uint(14)))
		})

		It("should fail on a bad CRC", func() {
			raw := Synthesize(Profile{
				Type:        param.SDRAMTypeDDR3,
				Ranks:       1,
				RankDensity: param.GB,
			})
			raw[126]++

			p, status, err := decoder.Decode(raw, 0)

			Expect(status).To(Equal(StatusFatal))
			Expect(err).To(MatchError(ErrChecksum))
			Expect(p.Present()).To(BeFalse())
		})

		It("should only cover the first 117 bytes when asked to", func() {
			raw := Synthesize(Profile{
				Type:        param.SDRAMTypeDDR3,
				Ranks:       1,
				RankDensity: param.GB,
			})
			raw[120] = 0xAA

			_, status, _ := decoder.Decode(raw, 0)
			Expect(status).To(Equal(StatusOK))

			raw[0] &^= 0x80
			_, status, _ = decoder.Decode(raw, 0)
			Expect(status).To(Equal(StatusFatal))
		})

		It("should fail on a truncated SPD", func() {
			raw := Synthesize(Profile{
				Type:        param.SDRAMTypeDDR3,
				Ranks:       1,
				RankDensity: param.GB,
			})

			_, status, err := decoder.Decode(raw[:64], 0)

			Expect(status).To(Equal(StatusFatal))
			Expect(err).To(MatchError(ErrTruncated))
		})
	})

	Context("DDR2", func() {
		It("should decode a single-rank DIMM", func() {
			raw := Synthesize(Profile{
				Type:        param.SDRAMTypeDDR2,
				Ranks:       1,
				RankDensity: 512 * param.MB,
			})

			p, status, err := decoder.Decode(raw, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(StatusOK))
			Expect(p.Type).To(Equal(param.SDRAMTypeDDR2))
			Expect(p.NRanks).To(Equal(uint(1)))
			Expect(p.RankDensity).To(Equal(512 * param.MB))
			Expect(p.Capacity).To(Equal(512 * param.MB))
			Expect(p.NRowAddr).To(Equal(uint(13)))
			Expect(p.NColAddr).To(Equal(uint(10)))
			Expect(p.TCKMinPs).To(Equal(uint(3000)))
			Expect(p.RefreshRatePs).To(Equal(uint(7800000)))
			Expect(p.TRPPs).To(Equal(uint(15000)))
			Expect(p.TRASPs).To(Equal(uint(45000)))
			Expect(p.CASLatencies).To(Equal(uint32(0x38)))
		})

		It("should decode gigabyte rank densities", func() {
			raw := Synthesize(Profile{
				Type:        param.SDRAMTypeDDR2,
				Ranks:       2,
				RankDensity: 2 * param.GB,
				ECC:         true,
				Registered:  true,
			})

			p, _, err := decoder.Decode(raw, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(p.Capacity).To(Equal(4 * param.GB))
			Expect(p.ECCCapable).To(BeTrue())
			Expect(p.Registered).To(BeTrue())
			Expect(p.DataWidth).To(Equal(uint(72)))
		})

		It("should fail on a bad checksum", func() {
			raw := Synthesize(Profile{
				Type:        param.SDRAMTypeDDR2,
				Ranks:       1,
				RankDensity: param.GB,
			})
			raw[63]++

			_, status, err := decoder.Decode(raw, 0)

			Expect(status).To(Equal(StatusFatal))
			Expect(err).To(MatchError(ErrChecksum))
		})
	})
})

var _ = Describe("spdCRC", func() {
	It("should match the XMODEM check value", func() {
		Expect(spdCRC([]byte("123456789"))).To(Equal(uint16(0x31C3)))
	})
})

package spd

import (
	"math/bits"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// A Profile describes a DIMM to synthesize an SPD for. Timings are fixed to a
// common speed grade of the generation.
type Profile struct {
	Type        param.SDRAMType
	Ranks       uint
	RankDensity uint64
	DeviceWidth uint
	ECC         bool
	Registered  bool
}

// Synthesize creates a valid SPD image for a profile. It panics if the profile
// cannot be expressed.
func Synthesize(p Profile) []byte {
	if p.Ranks == 0 || p.Ranks > 4 {
		panic("ranks must be between 1 and 4")
	}

	if p.RankDensity == 0 || p.RankDensity&(p.RankDensity-1) != 0 {
		panic("rank density must be a power of 2")
	}

	if p.DeviceWidth == 0 {
		p.DeviceWidth = 8
	}

	switch p.Type {
	case param.SDRAMTypeDDR2:
		return synthesizeDDR2(p)
	case param.SDRAMTypeDDR3:
		return synthesizeDDR3(p)
	default:
		panic("can only synthesize DDR2 and DDR3 SPDs")
	}
}

func log2(n uint64) int {
	return bits.TrailingZeros64(n)
}

func synthesizeDDR2(p Profile) []byte {
	raw := make([]byte, 128)

	banks := uint64(8)
	cols := uint64(1024)
	rows := log2(p.RankDensity / (cols * banks * 8))

	raw[0] = 0x80
	raw[1] = 0x08
	raw[2] = memTypeDDR2
	raw[3] = byte(rows)
	raw[4] = byte(log2(cols))
	raw[5] = byte(p.Ranks - 1)
	raw[6] = 64
	raw[9] = 0x30
	raw[12] = 0x82
	raw[13] = byte(p.DeviceWidth)
	raw[17] = byte(banks)
	raw[18] = 0x38
	raw[20] = 0x02
	raw[27] = 0x3C
	raw[29] = 0x3C
	raw[30] = 0x2D
	raw[36] = 0x3C
	raw[42] = 0x69

	if p.ECC {
		raw[6] = 72
		raw[11] = 0x02
	}

	if p.Registered {
		raw[20] = 0x01
	}

	if p.RankDensity >= param.GB {
		raw[31] = byte(p.RankDensity / param.GB)
	} else {
		raw[31] = byte(p.RankDensity/(128*param.MB)) << 5
	}

	sum := byte(0)
	for _, b := range raw[:63] {
		sum += b
	}
	raw[63] = sum

	return raw
}

func synthesizeDDR3(p Profile) []byte {
	raw := make([]byte, 128)

	devicesPerRank := uint64(64 / p.DeviceWidth)
	deviceBits := p.RankDensity / devicesPerRank * 8
	densityCode := log2(deviceBits / (256 << 20))
	rows := log2(deviceBits / (8 * 1024 * uint64(p.DeviceWidth)))

	raw[0] = 0x92
	raw[1] = 0x10
	raw[2] = memTypeDDR3
	raw[3] = 0x02
	raw[4] = byte(densityCode)
	raw[5] = byte(rows-12)<<3 | 0x01
	raw[7] = byte(p.Ranks-1)<<3 | byte(log2(uint64(p.DeviceWidth/4)))
	raw[8] = 0x03
	raw[10] = 1
	raw[11] = 8
	raw[12] = 0x0C
	raw[14] = 0x7C
	raw[16] = 0x69
	raw[17] = 0x78
	raw[18] = 0x69
	raw[19] = 0x30
	raw[20] = 0x69
	raw[21] = 0x11
	raw[22] = 0x20
	raw[24] = 0x00
	raw[25] = 0x05

	if p.ECC {
		raw[8] |= 0x08
	}

	if p.Registered {
		raw[3] = 0x01
	}

	crc := spdCRC(raw[:117])
	raw[126] = byte(crc)
	raw[127] = byte(crc >> 8)

	return raw
}

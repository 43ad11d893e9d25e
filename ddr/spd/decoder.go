package spd

import (
	"errors"
	"fmt"

	"github.com/sigurn/crc16"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// Status is the outcome of decoding one SPD.
type Status int

// A list of decoding outcomes. A fatal status stops the whole pipeline.
const (
	StatusOK Status = iota
	StatusWarning
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// A list of decoding problems.
var (
	ErrNotPresent      = errors.New("DIMM not present")
	ErrUnsupportedType = errors.New("unsupported memory type")
	ErrTruncated       = errors.New("SPD is too short")
	ErrChecksum        = errors.New("failed checksum")
	ErrTimebase        = errors.New("invalid medium timebase")
)

// SPD memory type byte values.
const (
	memTypeDDR2 = 0x08
	memTypeDDR3 = 0x0B
)

// A Decoder turns raw SPD bytes into DIMM parameters. The returned
// parameters are zeroed unless the status is StatusOK or the warning is not
// about the DIMM being unusable.
type Decoder interface {
	Decode(raw []byte, ctrl int) (param.DimmParams, Status, error)
}

// AutoDecoder decodes DDR2 and DDR3 SPDs. If Want is set, DIMMs of other
// types are reported as unsupported.
type AutoDecoder struct {
	Want param.SDRAMType
}

// Decode decodes one SPD.
func (d AutoDecoder) Decode(
	raw []byte,
	ctrl int,
) (param.DimmParams, Status, error) {
	if len(raw) < 3 || raw[2] == 0 {
		return param.DimmParams{}, StatusWarning, ErrNotPresent
	}

	var t param.SDRAMType
	switch raw[2] {
	case memTypeDDR2:
		t = param.SDRAMTypeDDR2
	case memTypeDDR3:
		t = param.SDRAMTypeDDR3
	default:
		return param.DimmParams{}, StatusWarning,
			fmt.Errorf("%w 0x%02x", ErrUnsupportedType, raw[2])
	}

	if d.Want != param.SDRAMTypeUnknown && d.Want != t {
		return param.DimmParams{}, StatusWarning,
			fmt.Errorf("%w: is not a %s SPD", ErrUnsupportedType, d.Want)
	}

	var (
		p   param.DimmParams
		err error
	)

	if t == param.SDRAMTypeDDR2 {
		p, err = decodeDDR2(raw)
	} else {
		p, err = decodeDDR3(raw)
	}

	if err != nil {
		return param.DimmParams{}, StatusFatal, err
	}

	return p, StatusOK, nil
}

func decodeDDR2(raw []byte) (param.DimmParams, error) {
	if len(raw) < 64 {
		return param.DimmParams{}, ErrTruncated
	}

	sum := byte(0)
	for _, b := range raw[:63] {
		sum += b
	}

	if sum != raw[63] {
		return param.DimmParams{}, fmt.Errorf("%w: computed 0x%02x, SPD 0x%02x",
			ErrChecksum, sum, raw[63])
	}

	p := param.DimmParams{
		Type:                 param.SDRAMTypeDDR2,
		NRowAddr:             uint(raw[3] & 0x1F),
		NColAddr:             uint(raw[4] & 0x0F),
		NRanks:               uint(raw[5]&0x7) + 1,
		DataWidth:            uint(raw[6]),
		ECCCapable:           raw[11]&0x02 != 0,
		DeviceWidth:          uint(raw[13]),
		NBanksPerSdramDevice: uint(raw[17]),
		CASLatencies:         uint32(raw[18]),
		Registered:           raw[20]&0x11 != 0,
		TCKMinPs:             ddr2ClockPs(raw[9]),
		RefreshRatePs:        ddr2RefreshPs(raw[12]),
		TRPPs:                quarterNsToPs(raw[27]),
		TRCDPs:               quarterNsToPs(raw[29]),
		TRASPs:               uint(raw[30]) * 1000,
		TWRPs:                quarterNsToPs(raw[36]),
		TRFCPs:               ddr2TRFCPs(raw[40], raw[42]),
	}

	p.RankDensity = uint64(raw[31]&0x1F)<<30 | uint64(raw[31]&0xE0)<<22
	p.Capacity = p.RankDensity * uint64(p.NRanks)

	return p, nil
}

func ddr2ClockPs(b byte) uint {
	tenths := []uint{0, 100, 200, 300, 400, 500, 600, 700, 800, 900,
		250, 330, 660, 750}

	frac := uint(0)
	if int(b&0xF) < len(tenths) {
		frac = tenths[b&0xF]
	}

	return uint(b>>4)*1000 + frac
}

func ddr2RefreshPs(b byte) uint {
	periods := []uint{15625000, 3900000, 7800000, 31300000, 62500000,
		125000000}

	i := int(b & 0x7F)
	if i >= len(periods) {
		return periods[0]
	}

	return periods[i]
}

func quarterNsToPs(b byte) uint {
	return uint(b>>2)*1000 + uint(b&0x3)*250
}

func ddr2TRFCPs(ext, base byte) uint {
	ps := uint(base) * 1000
	if ext&0x1 != 0 {
		ps += 256 * 1000
	}

	return ps
}

func decodeDDR3(raw []byte) (param.DimmParams, error) {
	if len(raw) < 128 {
		return param.DimmParams{}, ErrTruncated
	}

	crcEnd := 126
	if raw[0]&0x80 != 0 {
		crcEnd = 117
	}

	crc := spdCRC(raw[:crcEnd])
	stored := uint16(raw[127])<<8 | uint16(raw[126])
	if crc != stored {
		return param.DimmParams{}, fmt.Errorf(
			"%w: computed 0x%04x, SPD 0x%04x", ErrChecksum, crc, stored)
	}

	if raw[11] == 0 {
		return param.DimmParams{}, ErrTimebase
	}

	mtb := func(v uint) uint {
		return v * 1000 * uint(raw[10]) / uint(raw[11])
	}

	p := param.DimmParams{
		Type:                 param.SDRAMTypeDDR3,
		NBanksPerSdramDevice: 8 << ((raw[4] >> 4) & 0x7),
		NColAddr:             9 + uint(raw[5]&0x7),
		NRowAddr:             12 + uint((raw[5]>>3)&0x7),
		DeviceWidth:          4 << (raw[7] & 0x7),
		NRanks:               uint((raw[7]>>3)&0x7) + 1,
		Registered:           raw[3]&0x0F == 0x01 || raw[3]&0x0F == 0x05,
		TCKMinPs:             mtb(uint(raw[12])),
		CASLatencies:         (uint32(raw[15])<<8 | uint32(raw[14])) << 4,
		TWRPs:                mtb(uint(raw[17])),
		TRCDPs:               mtb(uint(raw[18])),
		TRPPs:                mtb(uint(raw[20])),
		TRASPs:               mtb(uint(raw[21]&0x0F)<<8 | uint(raw[22])),
		TRFCPs:               mtb(uint(raw[25])<<8 | uint(raw[24])),
		RefreshRatePs:        7800000,
	}

	busWidth := uint(8) << (raw[8] & 0x7)
	p.DataWidth = busWidth
	if (raw[8]>>3)&0x3 == 1 {
		p.DataWidth += 8
		p.ECCCapable = true
	}

	sdramCapacity := (256 * param.MB / 8) << (raw[4] & 0xF)
	p.RankDensity = sdramCapacity * uint64(busWidth/p.DeviceWidth)
	p.Capacity = p.RankDensity * uint64(p.NRanks)

	return p, nil
}

var xmodemTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// spdCRC is the CRC-16/XMODEM used by DDR3 SPDs.
func spdCRC(data []byte) uint16 {
	return crc16.Checksum(data, xmodemTable)
}

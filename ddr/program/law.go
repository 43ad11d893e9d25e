// Package program writes computed DDR configurations out. The hardware
// backend of a bootloader is replaced by dumps and records.
package program

import (
	"fmt"
	"math/bits"
)

// A LAW (local access window) maps a physical address range to a target
// interface.
type LAW struct {
	Target string
	Base   uint64
	Size   uint64
}

// SizeEncoding returns the LAWAR[SIZE] encoding of the window, log2(size)-1.
func (l LAW) SizeEncoding() uint32 {
	return uint32(bits.Len64(l.Size)-1) - 1
}

func (l LAW) String() string {
	return fmt.Sprintf("%s base 0x%09x size 0x%x (enc 0x%02x)",
		l.Target, l.Base, l.Size, l.SizeEncoding())
}

// A list of LAW constraints.
const (
	maxDDRLaws = 2
	minLawSize = uint64(4 << 10)
	maxLawSize = uint64(64 << 30)
)

// DDRLaws splits a memory range into the power-of-two, naturally aligned
// windows that a DDR target can use. At most two windows are used. The part
// of the range that they cannot cover is returned.
func DDRLaws(target string, base, size uint64) (laws []LAW, uncovered uint64) {
	for len(laws) < maxDDRLaws && size >= minLawSize {
		align := maxLawSize
		if base != 0 {
			align = min(align, uint64(1)<<bits.TrailingZeros64(base))
		}

		lawSize := uint64(1) << (bits.Len64(min(align, size)) - 1)

		laws = append(laws, LAW{Target: target, Base: base, Size: lawSize})
		base += lawSize
		size -= lawSize
	}

	return laws, size
}

// TargetName returns the LAW target of a DDR controller.
func TargetName(interleaved bool, ctrl int) string {
	if interleaved {
		return "DDR_INTRLV"
	}

	return fmt.Sprintf("DDR_%d", ctrl+1)
}

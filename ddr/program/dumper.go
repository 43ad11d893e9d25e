package program

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/ddrconfig/ddr/param"
)

// Dumper writes register images and local access windows as text instead of
// programming them.
type Dumper struct {
	w io.Writer
}

// NewDumper creates a Dumper that writes to w.
func NewDumper(w io.Writer) *Dumper {
	return &Dumper{w: w}
}

// WriteRegisters dumps the register image of a controller.
func (d *Dumper) WriteRegisters(regs *param.ConfigRegs, ctrl int) error {
	tw := tabwriter.NewWriter(d.w, 0, 4, 1, ' ', 0)

	fmt.Fprintf(tw, "memctl %d registers:\n", ctrl)
	for i := range regs.CS {
		fmt.Fprintf(tw, "  cs%d_bnds\t0x%08x\n", i, regs.CS[i].Bnds)
		fmt.Fprintf(tw, "  cs%d_config\t0x%08x\n", i, regs.CS[i].Config)
		fmt.Fprintf(tw, "  cs%d_config_2\t0x%08x\n", i, regs.CS[i].Config2)
	}
	fmt.Fprintf(tw, "  ddr_sdram_cfg\t0x%08x\n", regs.SdramCfg)
	fmt.Fprintf(tw, "  ddr_sdram_cfg_2\t0x%08x\n", regs.SdramCfg2)
	fmt.Fprintf(tw, "  ddr_sdram_interval\t0x%08x\n", regs.SdramInterval)
	fmt.Fprintf(tw, "  timing_cfg_3\t0x%08x\n", regs.TimingCfg3)

	return tw.Flush()
}

// SetLawBar dumps the local access windows of a controller. Controllers
// without DIMMs get no window.
func (d *Dumper) SetLawBar(
	common *param.CommonTimingParams,
	interleaved bool,
	ctrl int,
) error {
	if common.NDimmsPresent == 0 {
		return nil
	}

	laws, uncovered := DDRLaws(TargetName(interleaved, ctrl),
		common.BaseAddress, common.TotalMem)

	for _, law := range laws {
		_, err := fmt.Fprintf(d.w, "LAW: %s\n", law)
		if err != nil {
			return err
		}
	}

	if uncovered > 0 {
		_, err := fmt.Fprintf(d.w,
			"LAW: 0x%x bytes of memctl %d are not mapped\n", uncovered, ctrl)
		return err
	}

	return nil
}

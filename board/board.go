// Package board loads board description files. A board file tells how many
// controllers and slots a platform has, what the board wants from its memory
// controllers, and where the SPDs of the DIMMs come from.
package board

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ddrconfig/ddr"
	"github.com/sarchlab/ddrconfig/ddr/option"
	"github.com/sarchlab/ddrconfig/ddr/param"
	"github.com/sarchlab/ddrconfig/ddr/regs"
	"github.com/sarchlab/ddrconfig/ddr/spd"
)

// ErrInvalidBoard is returned when a board file cannot describe a platform.
var ErrInvalidBoard = errors.New("invalid board file")

// A list of environment variables that override board files.
const (
	EnvHWConfig = "DDRCFG_HWCONFIG"
	EnvPhys64   = "DDRCFG_PHYS64"
	EnvRecord   = "DDRCFG_RECORD"
)

// File is the YAML layout of a board file.
type File struct {
	Name          string     `yaml:"name"`
	Controllers   int        `yaml:"controllers"`
	Slots         int        `yaml:"slots"`
	PhysAddr64Bit bool       `yaml:"phys_addr_64bit"`
	Generation    string     `yaml:"generation"`
	ClockPeriodPs uint       `yaml:"clock_period_ps"`
	HWConfig      string     `yaml:"hwconfig"`
	Policy        PolicyFile `yaml:"policy"`
	SPD           SPDFile    `yaml:"spd"`
}

// PolicyFile is the policy part of a board file. Unset fields keep the
// default policy.
type PolicyFile struct {
	DataBusWidth            *int    `yaml:"data_bus_width"`
	ControllerInterleaving  *string `yaml:"ctlr_intlv"`
	BankInterleaving        *string `yaml:"bank_intlv"`
	ECC                     *bool   `yaml:"ecc"`
	TwoT                    *bool   `yaml:"2t"`
	BurstLength             *string `yaml:"burst_length"`
	HalfStrengthDriver      *bool   `yaml:"half_strength_driver"`
	CASLatencyOverride      *uint   `yaml:"cas_latency"`
	AdditiveLatencyOverride *uint   `yaml:"additive_latency"`
}

// SPDFile tells where the SPDs come from. The source is "static" (DIMMs listed
// in the file) or "sysfs" (EEPROMs on an I2C bus).
type SPDFile struct {
	Source string     `yaml:"source"`
	I2CBus int        `yaml:"i2c_bus"`
	Root   string     `yaml:"sysfs_root"`
	DIMMs  []DIMMFile `yaml:"dimms"`
}

// DIMMFile describes the DIMM in one slot. Exactly one of File, Hex, and
// Synth must be set.
type DIMMFile struct {
	Controller int        `yaml:"controller"`
	Slot       int        `yaml:"slot"`
	File       string     `yaml:"file"`
	Hex        string     `yaml:"hex"`
	Synth      *SynthFile `yaml:"synth"`
}

// SynthFile describes a DIMM whose SPD is synthesized.
type SynthFile struct {
	Type          string `yaml:"type"`
	Ranks         uint   `yaml:"ranks"`
	RankDensityMB uint64 `yaml:"rank_density_mb"`
	DeviceWidth   uint   `yaml:"device_width"`
	ECC           bool   `yaml:"ecc"`
	Registered    bool   `yaml:"registered"`
}

// Board is a loaded board.
type Board struct {
	Name    string
	Layout  param.Layout
	Policy  option.Policy
	Reader  spd.Reader
	Decoder spd.Decoder
	Encoder regs.Encoder
}

// Load reads a board file. Relative SPD dump paths are resolved against the
// directory of the board file.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data, filepath.Dir(path))
}

// Parse parses the content of a board file.
func Parse(data []byte, dir string) (*Board, error) {
	f := File{
		Controllers: 2,
		Slots:       2,
		Generation:  "ddr3",
		SPD:         SPDFile{Source: "static"},
	}

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoard, err)
	}

	return f.resolve(dir)
}

func (f *File) resolve(dir string) (*Board, error) {
	if f.Controllers <= 0 || f.Slots <= 0 ||
		f.Slots*2 > param.ChipSelectsPerController {
		return nil, fmt.Errorf("%w: %d controllers with %d slots",
			ErrInvalidBoard, f.Controllers, f.Slots)
	}

	b := &Board{
		Name: f.Name,
		Layout: param.Layout{
			NumControllers:         f.Controllers,
			DimmSlotsPerController: f.Slots,
			PhysAddr64Bit:          f.PhysAddr64Bit,
		},
	}

	err := b.resolveGeneration(f.Generation, f.ClockPeriodPs)
	if err != nil {
		return nil, err
	}

	b.Policy, err = f.Policy.resolve(option.DefaultPolicy())
	if err != nil {
		return nil, err
	}

	b.Policy, err = option.ParseHWConfig(f.HWConfig, b.Policy)
	if err != nil {
		return nil, err
	}

	b.Reader, err = f.SPD.resolve(dir, b.Layout)
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Board) resolveGeneration(generation string, clockPs uint) error {
	switch strings.ToLower(generation) {
	case "ddr2":
		b.Decoder = spd.AutoDecoder{Want: param.SDRAMTypeDDR2}
		b.Encoder = regs.NewDDR2Encoder(clockPs)
	case "ddr3":
		b.Decoder = spd.AutoDecoder{Want: param.SDRAMTypeDDR3}
		b.Encoder = regs.NewDDR3Encoder(clockPs)
	default:
		return fmt.Errorf("%w: unknown generation %q", ErrInvalidBoard,
			generation)
	}

	return nil
}

func (pf PolicyFile) resolve(p option.Policy) (option.Policy, error) {
	var err error

	if pf.DataBusWidth != nil {
		p.DataBusWidth, err = parseDataBusWidth(*pf.DataBusWidth)
		if err != nil {
			return p, err
		}
	}

	if pf.ControllerInterleaving != nil {
		p.MemctlInterleaving = *pf.ControllerInterleaving != "null"
		if p.MemctlInterleaving {
			p.MemctlInterleavingMode, err = option.ParseInterleavingMode(
				*pf.ControllerInterleaving)
			if err != nil {
				return p, err
			}
		}
	}

	if pf.BankInterleaving != nil {
		p.BaIntlvCtl, err = option.ParseBankInterleaving(*pf.BankInterleaving)
		if err != nil {
			return p, err
		}
	}

	if pf.BurstLength != nil {
		p.BurstLength, err = parseBurstLength(*pf.BurstLength)
		if err != nil {
			return p, err
		}
	}

	setBool(&p.ECC, pf.ECC)
	setBool(&p.TwoT, pf.TwoT)
	setBool(&p.HalfStrengthDriver, pf.HalfStrengthDriver)
	p.CASLatencyOverride = pf.CASLatencyOverride
	p.AdditiveLatencyOverride = pf.AdditiveLatencyOverride

	return p, nil
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func parseDataBusWidth(width int) (param.DataBusWidth, error) {
	switch width {
	case 64:
		return param.DataBusWidth64, nil
	case 32:
		return param.DataBusWidth32, nil
	case 16:
		return param.DataBusWidth16, nil
	default:
		return 0, fmt.Errorf("%w: data bus width %d", ErrInvalidBoard, width)
	}
}

func parseBurstLength(bl string) (param.BurstLength, error) {
	switch bl {
	case "4":
		return param.BurstLength4, nil
	case "8":
		return param.BurstLength8, nil
	case "otf":
		return param.BurstLengthOTF, nil
	default:
		return 0, fmt.Errorf("%w: burst length %q", ErrInvalidBoard, bl)
	}
}

func (sf SPDFile) resolve(dir string, layout param.Layout) (spd.Reader, error) {
	switch sf.Source {
	case "sysfs":
		r := spd.NewSysfsReader(sf.I2CBus, layout.DimmSlotsPerController)
		if sf.Root != "" {
			r.Root = sf.Root
		}

		return r, nil
	case "static":
		return sf.staticReader(dir, layout)
	default:
		return nil, fmt.Errorf("%w: unknown SPD source %q", ErrInvalidBoard,
			sf.Source)
	}
}

func (sf SPDFile) staticReader(
	dir string,
	layout param.Layout,
) (spd.Reader, error) {
	r := spd.NewStaticReader()

	for _, d := range sf.DIMMs {
		if d.Controller < 0 || d.Controller >= layout.NumControllers ||
			d.Slot < 0 || d.Slot >= layout.DimmSlotsPerController {
			return nil, fmt.Errorf("%w: no slot %d on controller %d",
				ErrInvalidBoard, d.Slot, d.Controller)
		}

		raw, err := d.bytes(dir)
		if err != nil {
			return nil, fmt.Errorf("memctl=%d dimm=%d: %w",
				d.Controller, d.Slot, err)
		}

		r.Set(d.Controller, d.Slot, raw)
	}

	return r, nil
}

func (d DIMMFile) bytes(dir string) ([]byte, error) {
	switch {
	case d.File != "" && d.Hex == "" && d.Synth == nil:
		path := d.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}

		return os.ReadFile(path)
	case d.Hex != "" && d.File == "" && d.Synth == nil:
		return hex.DecodeString(strings.Join(strings.Fields(d.Hex), ""))
	case d.Synth != nil && d.File == "" && d.Hex == "":
		return d.Synth.synthesize()
	default:
		return nil, fmt.Errorf("%w: a DIMM needs exactly one of file, hex, "+
			"and synth", ErrInvalidBoard)
	}
}

func (s *SynthFile) synthesize() (raw []byte, err error) {
	p := spd.Profile{
		Ranks:       s.Ranks,
		RankDensity: s.RankDensityMB * param.MB,
		DeviceWidth: s.DeviceWidth,
		ECC:         s.ECC,
		Registered:  s.Registered,
	}

	switch strings.ToLower(s.Type) {
	case "ddr2":
		p.Type = param.SDRAMTypeDDR2
	case "ddr3", "":
		p.Type = param.SDRAMTypeDDR3
	default:
		return nil, fmt.Errorf("%w: cannot synthesize %q", ErrInvalidBoard,
			s.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidBoard, r)
		}
	}()

	return spd.Synthesize(p), nil
}

// ApplyEnv applies the environment overrides. getenv is usually os.Getenv.
func (b *Board) ApplyEnv(getenv func(string) string) error {
	if hwconfig := getenv(EnvHWConfig); hwconfig != "" {
		policy, err := option.ParseHWConfig(hwconfig, b.Policy)
		if err != nil {
			return err
		}

		b.Policy = policy
	}

	if phys64 := getenv(EnvPhys64); phys64 != "" {
		v, err := strconv.ParseBool(phys64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPhys64, err)
		}

		b.Layout.PhysAddr64Bit = v
	}

	return nil
}

// Builder returns a pipeline builder set up for the board.
func (b *Board) Builder() ddr.Builder {
	return ddr.MakeBuilder().
		WithLayout(b.Layout).
		WithReader(b.Reader).
		WithDecoder(b.Decoder).
		WithEncoder(b.Encoder).
		WithPolicy(b.Policy)
}

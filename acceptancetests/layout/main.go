// Package main runs randomized platforms through the DDR pipeline and checks
// that the address layout it produces is sound.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"reflect"
	"time"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/ddrconfig/ddr"
	"github.com/sarchlab/ddrconfig/ddr/option"
	"github.com/sarchlab/ddrconfig/ddr/param"
	"github.com/sarchlab/ddrconfig/ddr/spd"
)

var seedFlag = flag.Int64("seed", 0, "Random Seed")
var numPlatformFlag = flag.Int("num-platform", 1000,
	"Number of platforms to generate")
var verboseFlag = flag.Bool("verbose", false, "Print pipeline warnings")

type platform struct {
	layout param.Layout
	policy option.Policy
	reader *spd.StaticReader
}

func randomPlatform() platform {
	p := platform{
		layout: param.Layout{
			NumControllers:         1 + rand.Intn(4),
			DimmSlotsPerController: 1 + rand.Intn(2),
			PhysAddr64Bit:          true,
		},
		policy: option.DefaultPolicy(),
		reader: spd.NewStaticReader(),
	}

	if rand.Intn(2) == 0 {
		p.policy.DataBusWidth = param.DataBusWidth32
	}

	patterns := []param.BaIntlvCtl{
		param.BaIntlvNone,
		param.BaIntlvCS0CS1,
		param.BaIntlvCS0CS1AndCS2CS3,
		param.BaIntlvCS0CS1CS2CS3,
	}
	p.policy.BaIntlvCtl = patterns[rand.Intn(len(patterns))]

	p.policy.MemctlInterleaving = rand.Intn(4) == 0
	p.policy.MemctlInterleavingMode = param.InterleavingMode(rand.Intn(4))

	for i := 0; i < p.layout.NumControllers; i++ {
		for j := 0; j < p.layout.DimmSlotsPerController; j++ {
			if i+j > 0 && rand.Intn(3) == 0 {
				continue
			}

			p.reader.Set(i, j, spd.Synthesize(spd.Profile{
				Type:        param.SDRAMTypeDDR3,
				Ranks:       uint(1 + rand.Intn(2)),
				RankDensity: 256 * param.MB << rand.Intn(4),
				DeviceWidth: 8,
			}))
		}
	}

	return p
}

func (p platform) run(logger *log.Logger) (*ddr.State, uint64) {
	pipeline := ddr.MakeBuilder().
		WithLayout(p.layout).
		WithReader(p.reader).
		WithPolicy(p.policy).
		WithLogger(logger).
		Build()

	state := ddr.NewState(p.layout)

	total, err := pipeline.Compute(state, ddr.StepGetSPD)
	if err != nil {
		panic(err)
	}

	return state, total
}

type interval struct {
	ctrl, slot int
	start, end uint64
}

func mustNotOverlap(state *ddr.State) {
	var used []interval

	for i := range state.Dimms {
		for j := range state.Dimms[i] {
			d := state.Dimms[i][j]
			if !d.Present() {
				continue
			}

			next := interval{
				ctrl:  i,
				slot:  j,
				start: d.BaseAddress,
				end:   d.BaseAddress + d.AdjustedCapacity(state.CapAdjust[i]),
			}

			for _, u := range used {
				if next.start < u.end && u.start < next.end {
					panic(fmt.Sprintf(
						"memctl %d dimm %d overlaps memctl %d dimm %d",
						next.ctrl, next.slot, u.ctrl, u.slot))
				}
			}

			used = append(used, next)
		}
	}
}

func mustStartAtZero(state *ddr.State) {
	for i := range state.Common {
		if state.Common[i].BaseAddress != 0 {
			panic(fmt.Sprintf("interleaved memctl %d starts at 0x%x",
				i, state.Common[i].BaseAddress))
		}
	}
}

func check(p platform, logger *log.Logger) {
	state, total := p.run(logger)

	again, totalAgain := p.run(logger)
	if total != totalAgain || !reflect.DeepEqual(state.Regs, again.Regs) {
		panic("pipeline is not deterministic")
	}

	if state.MemctlInterleaving {
		mustStartAtZero(state)
		return
	}

	mustNotOverlap(state)

	if total != state.AssignedMem {
		panic(fmt.Sprintf("total memory 0x%x, assigned 0x%x",
			total, state.AssignedMem))
	}
}

func main() {
	flag.Parse()

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fmt.Fprintf(os.Stderr, "Seed %d\n", seed)
	rand.Seed(seed)

	logger := log.New(io.Discard, "", 0)
	if *verboseFlag {
		logger = log.New(os.Stderr, "", 0)
	}

	for i := 0; i < *numPlatformFlag; i++ {
		check(randomPlatform(), logger)
	}

	fmt.Printf("%d platforms checked\n", *numPlatformFlag)
	atexit.Exit(0)
}

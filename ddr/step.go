package ddr

import "fmt"

// Step is a stage of the pipeline. The pipeline can be entered at any step
// and always runs to the end.
type Step int

// A list of steps, in the order they run.
const (
	StepGetSPD Step = iota
	StepComputeDimmParms
	StepComputeCommonParms
	StepGatherOpts
	StepAssignAddresses
	StepComputeRegs
)

var stepNames = []string{
	"get_spd",
	"compute_dimm_parms",
	"compute_common_parms",
	"gather_opts",
	"assign_addresses",
	"compute_regs",
}

// AllSteps returns all the steps in the order they run.
func AllSteps() []Step {
	steps := make([]Step, len(stepNames))
	for i := range steps {
		steps[i] = Step(i)
	}

	return steps
}

// Valid tells if the step is one of the known steps.
func (s Step) Valid() bool {
	return s >= StepGetSPD && s <= StepComputeRegs
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}

	return stepNames[s]
}

// ParseStep returns the step with the given name.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}

	return 0, fmt.Errorf("unknown step %q", name)
}

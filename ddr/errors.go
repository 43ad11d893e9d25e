package ddr

import "errors"

// A list of errors that stop the configuration of the memory.
var (
	// ErrFatalSPD is returned when an SPD is corrupted. No registers are
	// computed for any controller.
	ErrFatalSPD = errors.New("fatal SPD error")

	// ErrAddressSpaceOverflow is returned when the memory does not fit in a
	// 32-bit physical address space.
	ErrAddressSpaceOverflow = errors.New(
		"total memory does not fit in the physical address space")

	// ErrInconsistentInterleaving is returned when some but not all
	// controllers are set up for controller interleaving.
	ErrInconsistentInterleaving = errors.New(
		"not all controllers have controller interleaving enabled")
)

// ErrUnexplainedSPD stands in for the reason of an SPD warning or fatal
// status when the decoder gives none.
var ErrUnexplainedSPD = errors.New("SPD problem without a reason")

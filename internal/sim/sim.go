// Package sim defines the contract between the harness and whatever drives
// the adder hardware, plus a behavioral model that honors it.
package sim

import (
	"context"
	"errors"
	"fmt"
)

// DefaultTimeoutCycles is the cycle budget granted to a DUT before the
// harness gives up on a vector.
const DefaultTimeoutCycles = 100

var (
	// ErrTimeout is returned when the DUT raises no valid result within the
	// cycle budget. It is not a pass and not a fail.
	ErrTimeout = errors.New("sim: no result within cycle budget")

	// ErrInvalidStimulus is returned for a mode-select combination the DUT
	// does not implement.
	ErrInvalidStimulus = errors.New("sim: invalid stimulus flags")
)

// Flags are the DUT mode-select inputs.
type Flags struct {
	FP32  bool
	FP16  bool
	BF16  bool
	Widen bool
}

// Stimulus holds every input port for one addition. Ports not used by the
// selected mode are zero.
type Stimulus struct {
	Flags Flags
	A32   uint32
	B32   uint32
	A16   [2]uint16
	B16   [2]uint16
}

// Shape records which result ports an Output carries.
type Shape int

const (
	// ShapeScalar carries only the 32-bit result.
	ShapeScalar Shape = iota
	// ShapeDual carries only the two 16-bit lane results.
	ShapeDual
	// ShapePorts carries all three result ports, as sampled from hardware.
	ShapePorts
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeDual:
		return "dual"
	case ShapePorts:
		return "ports"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Output is the raw result of one simulated addition.
type Output struct {
	Res32 uint32
	Lanes [2]uint16
	Shape Shape
}

func ScalarOutput(res uint32) Output {
	return Output{Res32: res, Shape: ShapeScalar}
}

func DualOutput(lane0, lane1 uint16) Output {
	return Output{Lanes: [2]uint16{lane0, lane1}, Shape: ShapeDual}
}

func PortOutput(res uint32, lane0, lane1 uint16) Output {
	return Output{Res32: res, Lanes: [2]uint16{lane0, lane1}, Shape: ShapePorts}
}

// Simulator presents one stimulus and waits for the result. A vector is
// fully resolved before the next one is presented.
type Simulator interface {
	Run(ctx context.Context, s Stimulus) (Output, error)
}

// SimulatorFunc adapts a function to the Simulator interface.
type SimulatorFunc func(ctx context.Context, s Stimulus) (Output, error)

func (f SimulatorFunc) Run(ctx context.Context, s Stimulus) (Output, error) {
	return f(ctx, s)
}

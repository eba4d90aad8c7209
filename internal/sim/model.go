package sim

import (
	"context"
	"fmt"

	"github.com/23skdu/longbow-vfadd/internal/fpconv"
	"github.com/23skdu/longbow-vfadd/internal/refadd"
)

// Model is a golden behavioral DUT. It decodes the mode flags the way the
// hardware does, reads the ports of the selected mode and returns every
// result port.
type Model struct {
	// Adder defaults to refadd.Reference.
	Adder refadd.Adder

	// Latency is the number of cycles before the result is valid.
	Latency int

	// TimeoutCycles defaults to DefaultTimeoutCycles.
	TimeoutCycles int

	// Fault, when set, rewrites the result before it is returned.
	Fault func(Stimulus, Output) Output
}

var _ Simulator = (*Model)(nil)

func (m *Model) Run(ctx context.Context, s Stimulus) (Output, error) {
	budget := m.TimeoutCycles
	if budget <= 0 {
		budget = DefaultTimeoutCycles
	}

	for cycle := 0; cycle < m.Latency; cycle++ {
		if cycle >= budget {
			return Output{}, fmt.Errorf("%w: %d cycles", ErrTimeout, budget)
		}
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
	}

	out, err := m.evaluate(s)
	if err != nil {
		return Output{}, err
	}
	if m.Fault != nil {
		out = m.Fault(s, out)
	}
	return out, nil
}

func (m *Model) evaluate(s Stimulus) (Output, error) {
	adder := m.Adder
	if adder == nil {
		adder = refadd.Reference{}
	}

	f := s.Flags
	selected := 0
	for _, on := range []bool{f.FP32, f.FP16, f.BF16} {
		if on {
			selected++
		}
	}
	if selected != 1 || (f.FP32 && f.Widen) {
		return Output{}, fmt.Errorf("%w: %+v", ErrInvalidStimulus, f)
	}

	switch {
	case f.FP32:
		return PortOutput(adder.AddFP32(s.A32, s.B32), 0, 0), nil
	case f.Widen && f.FP16:
		a, b := fpconv.FP16ToFP32(s.A16[1]), fpconv.FP16ToFP32(s.B16[1])
		return PortOutput(adder.AddFP32(a, b), 0, 0), nil
	case f.Widen && f.BF16:
		a, b := fpconv.BF16ToFP32(s.A16[1]), fpconv.BF16ToFP32(s.B16[1])
		return PortOutput(adder.AddFP32(a, b), 0, 0), nil
	case f.FP16:
		return PortOutput(0, adder.AddFP16(s.A16[0], s.B16[0]), adder.AddFP16(s.A16[1], s.B16[1])), nil
	default:
		return PortOutput(0, adder.AddBF16(s.A16[0], s.B16[0]), adder.AddBF16(s.A16[1], s.B16[1])), nil
	}
}

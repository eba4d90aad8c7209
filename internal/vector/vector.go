// Package vector defines the immutable test vector: one addition in one
// operating mode, with its expected result computed up front.
package vector

import (
	"fmt"
	"strings"

	"github.com/23skdu/longbow-vfadd/internal/fpconv"
	"github.com/23skdu/longbow-vfadd/internal/refadd"
	"github.com/23skdu/longbow-vfadd/internal/sim"
)

// Operands is the mode-specific input payload. It is implemented only by
// Scalar32, DualLane and Widen16.
type Operands interface {
	operands()
}

// Scalar32 is the FP32 operand pair.
type Scalar32 struct {
	A, B uint32
}

// Pair16 is one lane of a dual-lane addition.
type Pair16 struct {
	A, B uint16
}

// DualLane holds two independent FP16 or BF16 operand pairs.
type DualLane struct {
	Lanes [2]Pair16
}

// Widen16 is a narrow operand pair summed at FP32 precision.
type Widen16 struct {
	A, B uint16
}

func (Scalar32) operands() {}
func (DualLane) operands() {}
func (Widen16) operands()  {}

// Expected holds the oracle's result. Res32 is set for FP32 and widening
// modes, Lanes for dual-lane modes.
type Expected struct {
	Res32 uint32
	Lanes [2]uint16
}

// Vector is read-only after construction.
type Vector struct {
	mode      Mode
	tolerance Tolerance
	ops       Operands
	expected  Expected
	label     string
}

func oracle(adder refadd.Adder) refadd.Adder {
	if adder == nil {
		return refadd.Reference{}
	}
	return adder
}

// NewFP32 builds an FP32 vector. A nil adder selects refadd.Reference.
func NewFP32(a, b uint32, tol Tolerance, adder refadd.Adder) *Vector {
	return &Vector{
		mode:      ModeFP32,
		tolerance: tol,
		ops:       Scalar32{A: a, B: b},
		expected:  Expected{Res32: oracle(adder).AddFP32(a, b)},
	}
}

// NewFP16 builds a dual-lane FP16 vector. Lanes are computed independently.
func NewFP16(lane0, lane1 Pair16, tol Tolerance, adder refadd.Adder) *Vector {
	ad := oracle(adder)
	return &Vector{
		mode:      ModeFP16,
		tolerance: tol,
		ops:       DualLane{Lanes: [2]Pair16{lane0, lane1}},
		expected: Expected{Lanes: [2]uint16{
			ad.AddFP16(lane0.A, lane0.B),
			ad.AddFP16(lane1.A, lane1.B),
		}},
	}
}

// NewBF16 builds a dual-lane BF16 vector.
func NewBF16(lane0, lane1 Pair16, tol Tolerance, adder refadd.Adder) *Vector {
	ad := oracle(adder)
	return &Vector{
		mode:      ModeBF16,
		tolerance: tol,
		ops:       DualLane{Lanes: [2]Pair16{lane0, lane1}},
		expected: Expected{Lanes: [2]uint16{
			ad.AddBF16(lane0.A, lane0.B),
			ad.AddBF16(lane1.A, lane1.B),
		}},
	}
}

// NewFP16Widen builds a widening vector. Both inputs are widened to FP32
// before the FP32 oracle runs, matching a DUT that upconverts internally.
func NewFP16Widen(a, b uint16, tol Tolerance, adder refadd.Adder) *Vector {
	return &Vector{
		mode:      ModeFP16Widen,
		tolerance: tol,
		ops:       Widen16{A: a, B: b},
		expected: Expected{
			Res32: oracle(adder).AddFP32(fpconv.FP16ToFP32(a), fpconv.FP16ToFP32(b)),
		},
	}
}

// NewBF16Widen is NewFP16Widen for BF16 inputs.
func NewBF16Widen(a, b uint16, tol Tolerance, adder refadd.Adder) *Vector {
	return &Vector{
		mode:      ModeBF16Widen,
		tolerance: tol,
		ops:       Widen16{A: a, B: b},
		expected: Expected{
			Res32: oracle(adder).AddFP32(fpconv.BF16ToFP32(a), fpconv.BF16ToFP32(b)),
		},
	}
}

// New builds a vector for any mode from raw operand bits. Scalar modes read
// only lane 0; 16-bit operands are taken from the low half.
func New(mode Mode, lane0, lane1 [2]uint32, tol Tolerance, adder refadd.Adder) (*Vector, error) {
	switch mode {
	case ModeFP32:
		return NewFP32(lane0[0], lane0[1], tol, adder), nil
	case ModeFP16:
		return NewFP16(pair16(lane0), pair16(lane1), tol, adder), nil
	case ModeBF16:
		return NewBF16(pair16(lane0), pair16(lane1), tol, adder), nil
	case ModeFP16Widen:
		return NewFP16Widen(uint16(lane0[0]), uint16(lane0[1]), tol, adder), nil
	case ModeBF16Widen:
		return NewBF16Widen(uint16(lane0[0]), uint16(lane0[1]), tol, adder), nil
	}
	return nil, fmt.Errorf("invalid mode: %v", mode)
}

func pair16(p [2]uint32) Pair16 {
	return Pair16{A: uint16(p[0]), B: uint16(p[1])}
}

// WithLabel returns a copy of v carrying a diagnostic label.
func (v *Vector) WithLabel(label string) *Vector {
	c := *v
	c.label = label
	return &c
}

func (v *Vector) Mode() Mode           { return v.mode }
func (v *Vector) Tolerance() Tolerance { return v.tolerance }
func (v *Vector) Operands() Operands   { return v.ops }
func (v *Vector) Expected() Expected   { return v.expected }
func (v *Vector) Label() string        { return v.label }

// Lanes is 2 for dual-lane modes and 1 otherwise.
func (v *Vector) Lanes() int {
	if v.mode.Dual() {
		return 2
	}
	return 1
}

// Bits returns the raw operand pair of a lane, zero-extended to 32 bits.
func (v *Vector) Bits(lane int) (a, b uint32) {
	switch ops := v.ops.(type) {
	case Scalar32:
		return ops.A, ops.B
	case Widen16:
		return uint32(ops.A), uint32(ops.B)
	case DualLane:
		if lane < 0 || lane > 1 {
			return 0, 0
		}
		p := ops.Lanes[lane]
		return uint32(p.A), uint32(p.B)
	}
	return 0, 0
}

// ExpectedBits returns the expected result of a lane, zero-extended.
func (v *Vector) ExpectedBits(lane int) uint32 {
	if v.mode.Dual() {
		if lane < 0 || lane > 1 {
			return 0
		}
		return uint32(v.expected.Lanes[lane])
	}
	return v.expected.Res32
}

// Inputs returns the real values of every operand, one pair per lane.
// They are for diagnostics and relative error only.
func (v *Vector) Inputs() [][2]float64 {
	f := v.mode.InputFormat()
	out := make([][2]float64, v.Lanes())
	for i := range out {
		a, b := v.Bits(i)
		out[i] = [2]float64{fpconv.Value(f, a), fpconv.Value(f, b)}
	}
	return out
}

// Widened32 returns the narrow inputs of a widening vector left-justified
// into 32 bits. ok is false for other modes.
func (v *Vector) Widened32() (a, b uint32, ok bool) {
	w, isWiden := v.ops.(Widen16)
	if !isWiden {
		return 0, 0, false
	}
	return uint32(w.A) << 16, uint32(w.B) << 16, true
}

// Stimulus maps the vector onto DUT input ports. Widening modes drive lane
// port 1 and hold lane port 0 at zero.
func (v *Vector) Stimulus() sim.Stimulus {
	var s sim.Stimulus
	switch v.mode {
	case ModeFP32:
		s.Flags.FP32 = true
	case ModeFP16, ModeFP16Widen:
		s.Flags.FP16 = true
	case ModeBF16, ModeBF16Widen:
		s.Flags.BF16 = true
	}
	s.Flags.Widen = v.mode.Widening()

	switch ops := v.ops.(type) {
	case Scalar32:
		s.A32, s.B32 = ops.A, ops.B
	case DualLane:
		for i, p := range ops.Lanes {
			s.A16[i], s.B16[i] = p.A, p.B
		}
	case Widen16:
		s.A16[1], s.B16[1] = ops.A, ops.B
	}
	return s
}

func (v *Vector) String() string {
	var sb strings.Builder
	sb.WriteString(v.mode.String())
	if v.label != "" {
		fmt.Fprintf(&sb, " %q", v.label)
	}
	width := 8
	if v.mode != ModeFP32 {
		width = 4
	}
	for i := 0; i < v.Lanes(); i++ {
		a, b := v.Bits(i)
		if v.Lanes() > 1 {
			fmt.Fprintf(&sb, " lane%d", i)
		}
		fmt.Fprintf(&sb, " 0x%0*x + 0x%0*x", width, a, width, b)
	}
	return sb.String()
}

// Package compare judges DUT results against a vector's expectation under
// the vector's tolerance policy.
package compare

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/23skdu/longbow-vfadd/internal/fpconv"
	"github.com/23skdu/longbow-vfadd/internal/sim"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

var (
	// ErrShapeMismatch is returned when the DUT output does not carry the
	// result ports the vector's mode needs.
	ErrShapeMismatch = errors.New("compare: output shape does not match vector mode")

	// ErrUnsupportedPolicy is returned when a policy is not enabled for the
	// vector's mode.
	ErrUnsupportedPolicy = errors.New("compare: tolerance policy not supported for mode")
)

// LaneVerdict carries the outcome and the distances for one result. The
// distances are filled in even when the lane passes.
type LaneVerdict struct {
	Expected uint32
	Got      uint32
	ULPDiff  int64
	RelErr   float64
	BothZero bool
	Exact    bool
	Pass     bool
}

// Verdict is the AND of its lanes.
type Verdict struct {
	Pass  bool
	Lanes []LaneVerdict
}

// Comparator is stateless and safe for concurrent use.
type Comparator struct {
	Tolerances Tolerances
}

func New() *Comparator {
	return &Comparator{Tolerances: DefaultTolerances()}
}

// Compare applies v's tolerance policy to out. A mismatch is reported in the
// Verdict; an error means the comparison itself was misconfigured.
func (c *Comparator) Compare(v *vector.Vector, out sim.Output) (Verdict, error) {
	mode := v.Mode()
	if err := checkShape(mode, out.Shape); err != nil {
		return Verdict{}, err
	}

	th, ok := c.Tolerances[mode]
	if !ok {
		return Verdict{}, fmt.Errorf("no thresholds for mode %v", mode)
	}
	tol := v.Tolerance()
	if !tol.Valid() {
		return Verdict{}, fmt.Errorf("%w: %v", ErrUnsupportedPolicy, tol)
	}
	if tol == vector.ULPOrRelativeError && !th.AllowCombined {
		return Verdict{}, fmt.Errorf("%w: %v in %v mode", ErrUnsupportedPolicy, tol, mode)
	}

	inputs := v.Inputs()
	verdict := Verdict{Pass: true, Lanes: make([]LaneVerdict, v.Lanes())}
	for i := range verdict.Lanes {
		lv := judge(mode.ResultFormat(), v.ExpectedBits(i), result(mode, out, i), inputs[i], tol, th)
		verdict.Lanes[i] = lv
		verdict.Pass = verdict.Pass && lv.Pass
	}
	return verdict, nil
}

func checkShape(mode vector.Mode, shape sim.Shape) error {
	switch shape {
	case sim.ShapePorts:
		return nil
	case sim.ShapeDual:
		if mode.Dual() {
			return nil
		}
	case sim.ShapeScalar:
		if !mode.Dual() {
			return nil
		}
	}
	return fmt.Errorf("%w: %v output for %v vector", ErrShapeMismatch, shape, mode)
}

func result(mode vector.Mode, out sim.Output, lane int) uint32 {
	if mode.Dual() {
		return uint32(out.Lanes[lane])
	}
	return out.Res32
}

func judge(f fpconv.Format, exp, got uint32, in [2]float64, tol vector.Tolerance, th Thresholds) LaneVerdict {
	lv := LaneVerdict{
		Expected: exp,
		Got:      got,
		Exact:    exp == got,
		BothZero: fpconv.IsZero(f, exp) && fpconv.IsZero(f, got),
	}
	if f == fpconv.FP32 {
		lv.ULPDiff = Distance(exp, got)
	} else {
		lv.ULPDiff = Distance(uint16(exp), uint16(got))
	}
	lv.RelErr = RelativeError(fpconv.Value(f, got), fpconv.Value(f, exp), in[0], in[1])

	if lv.Exact || lv.BothZero {
		lv.Pass = true
		return lv
	}

	ulpOK := lv.ULPDiff <= th.MaxULP
	relOK := lv.RelErr < relBound(in, th)

	switch tol {
	case vector.ULP:
		lv.Pass = ulpOK
	case vector.RelativeError:
		lv.Pass = relOK
	case vector.ULPOrRelativeError:
		lv.Pass = ulpOK || relOK
	}
	return lv
}

func relBound(in [2]float64, th Thresholds) float64 {
	if math.Max(math.Abs(in[0]), math.Abs(in[1])) < th.SmallMagnitude {
		return th.RelErrSmall
	}
	return th.RelErr
}

// Distance is the absolute difference of two raw patterns read as integers.
func Distance[T constraints.Unsigned](a, b T) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		return -d
	}
	return d
}

// RelativeError returns |got-exp| / max(|a|, |b|). Equal values give zero
// even when both operands are zero; a nonzero difference over zero operands
// gives +Inf.
func RelativeError(got, exp, a, b float64) float64 {
	if got == exp {
		return 0
	}
	diff := math.Abs(got - exp)
	if math.IsNaN(diff) {
		return math.NaN()
	}
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return math.Inf(1)
	}
	return diff / denom
}

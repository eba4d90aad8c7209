package compare

import (
	"math"

	"github.com/23skdu/longbow-vfadd/internal/vector"
)

// Thresholds are the per-mode limits used by the non-exact policies. The
// values are tuned to a particular adder's error profile and are not derived
// from first principles.
type Thresholds struct {
	// MaxULP is the largest accepted raw-bit distance.
	MaxULP int64

	// RelErr is the accepted relative error bound (exclusive).
	RelErr float64

	// RelErrSmall replaces RelErr when the larger operand magnitude is below
	// SmallMagnitude.
	RelErrSmall    float64
	SmallMagnitude float64

	// AllowCombined enables the ULPOrRelativeError policy for the mode.
	AllowCombined bool
}

// Tolerances maps each mode to its thresholds.
type Tolerances map[vector.Mode]Thresholds

// DefaultTolerances returns the thresholds the adder was characterized
// against.
func DefaultTolerances() Tolerances {
	wide := Thresholds{
		MaxULP:         8,
		RelErr:         1e-5,
		RelErrSmall:    1e-3,
		SmallMagnitude: math.Ldexp(1, -60),
	}
	return Tolerances{
		vector.ModeFP32:      wide,
		vector.ModeFP16Widen: wide,
		vector.ModeBF16Widen: wide,
		vector.ModeFP16: {
			MaxULP:         5,
			RelErr:         1e-3,
			RelErrSmall:    1e-2,
			SmallMagnitude: math.Ldexp(1, -10),
		},
		vector.ModeBF16: {
			MaxULP:         2,
			RelErr:         8e-3,
			RelErrSmall:    1e-2,
			SmallMagnitude: math.Ldexp(1, -30),
			AllowCombined:  true,
		},
	}
}

package vector

import (
	"fmt"
	"strings"

	"github.com/23skdu/longbow-vfadd/internal/fpconv"
)

// Mode is the adder operating mode.
type Mode int

const (
	ModeFP32 Mode = iota
	ModeFP16
	ModeBF16
	ModeFP16Widen
	ModeBF16Widen
)

// Modes lists every mode in suite order.
var Modes = []Mode{ModeFP32, ModeFP16, ModeBF16, ModeFP16Widen, ModeBF16Widen}

var modeNames = map[Mode]string{
	ModeFP32:      "fp32",
	ModeFP16:      "fp16",
	ModeBF16:      "bf16",
	ModeFP16Widen: "fp16_widen",
	ModeBF16Widen: "bf16_widen",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode accepts the names produced by String. Hyphens are treated as
// underscores.
func ParseMode(s string) (Mode, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Dual reports whether the mode produces two independent 16-bit lanes.
func (m Mode) Dual() bool { return m == ModeFP16 || m == ModeBF16 }

// Widening reports whether narrow inputs produce an FP32 result.
func (m Mode) Widening() bool { return m == ModeFP16Widen || m == ModeBF16Widen }

// InputFormat is the format of the operands.
func (m Mode) InputFormat() fpconv.Format {
	switch m {
	case ModeFP16, ModeFP16Widen:
		return fpconv.FP16
	case ModeBF16, ModeBF16Widen:
		return fpconv.BF16
	default:
		return fpconv.FP32
	}
}

// ResultFormat is the format of the expected result.
func (m Mode) ResultFormat() fpconv.Format {
	switch m {
	case ModeFP16:
		return fpconv.FP16
	case ModeBF16:
		return fpconv.BF16
	default:
		return fpconv.FP32
	}
}

// Tolerance selects how a DUT result is judged against the expectation.
type Tolerance int

const (
	Precise Tolerance = iota
	ULP
	RelativeError
	ULPOrRelativeError
)

var toleranceNames = [...]string{
	Precise:            "precise",
	ULP:                "ulp",
	RelativeError:      "relative_error",
	ULPOrRelativeError: "ulp_or_relative_error",
}

func (t Tolerance) String() string {
	if t >= Precise && t <= ULPOrRelativeError {
		return toleranceNames[t]
	}
	return fmt.Sprintf("tolerance(%d)", int(t))
}

func (t Tolerance) Valid() bool {
	return t >= Precise && t <= ULPOrRelativeError
}

func ParseTolerance(s string) (Tolerance, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range toleranceNames {
		if n == name {
			return Tolerance(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tolerance %q", s)
}

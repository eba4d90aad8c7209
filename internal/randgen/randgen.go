// Package randgen draws random FP32, FP16 and BF16 bit patterns from an
// explicit, seeded source. Nothing here touches global random state.
package randgen

import (
	"fmt"
	"math/rand/v2"

	"github.com/23skdu/longbow-vfadd/internal/fpconv"
)

// seedMix decorrelates the two PCG seed words derived from one uint64.
const seedMix = 0x9E3779B97F4A7C15

// Mantissa sub-draw widths, most significant first.
var mantissaChunks = map[fpconv.Format][]uint{
	fpconv.FP32: {8, 8, 7},
	fpconv.FP16: {5, 5},
	fpconv.BF16: {4, 3},
}

// Generator is not safe for concurrent use; give each task its own.
type Generator struct {
	r *rand.Rand
}

func New(seed uint64) *Generator {
	return &Generator{r: rand.New(rand.NewPCG(seed, seed^seedMix))}
}

// FromRand wraps an existing source.
func FromRand(r *rand.Rand) *Generator {
	return &Generator{r: r}
}

// Split derives n child seeds. The same parent state always yields the same
// children, so per-task generators stay reproducible.
func (g *Generator) Split(n int) []uint64 {
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = g.r.Uint64()
	}
	return seeds
}

// ValidateRange checks an unbiased exponent range for format f. The valid
// window is [-bias, bias]: biased exponent zero through all-ones minus one.
func ValidateRange(f fpconv.Format, expMin, expMax int) error {
	l := f.Layout()
	if l.Width == 0 {
		return fmt.Errorf("invalid format: %v", f)
	}
	if expMin > expMax {
		return fmt.Errorf("invalid exponent range [%d, %d] (min must be <= max)", expMin, expMax)
	}
	if expMin < -l.Bias || expMax > l.Bias {
		return fmt.Errorf("invalid exponent range [%d, %d] for %v (must lie within [%d, %d])",
			expMin, expMax, f, -l.Bias, l.Bias)
	}
	return nil
}

// Value draws a pattern with a uniform sign, a mantissa assembled from
// independent sub-draws and an unbiased exponent uniform over
// [expMin, expMax]. The range must satisfy ValidateRange; otherwise the
// result is unspecified.
func (g *Generator) Value(f fpconv.Format, expMin, expMax int) uint32 {
	l := f.Layout()
	if l.Width == 0 {
		return 0
	}

	sign := uint32(g.r.IntN(2)) << (l.Width - 1)

	exp := expMin
	if span := expMax - expMin + 1; span > 0 {
		exp += g.r.IntN(span)
	}
	biased := uint32(exp+l.Bias) & l.ExponentMax()

	var mant uint32
	for _, w := range mantissaChunks[f] {
		mant = mant<<w | g.r.Uint32()&(1<<w-1)
	}

	return sign | biased<<l.MantissaBits | mant
}

// AnyValue draws a uniformly random full-width pattern that is not a NaN.
func (g *Generator) AnyValue(f fpconv.Format) uint32 {
	l := f.Layout()
	if l.Width == 0 {
		return 0
	}
	for {
		v := g.r.Uint32()
		if l.Width < 32 {
			v &= 1<<l.Width - 1
		}
		if !fpconv.IsNaN(f, v) {
			return v
		}
	}
}

func (g *Generator) FP32(expMin, expMax int) uint32 {
	return g.Value(fpconv.FP32, expMin, expMax)
}

func (g *Generator) FP16(expMin, expMax int) uint16 {
	return uint16(g.Value(fpconv.FP16, expMin, expMax))
}

func (g *Generator) BF16(expMin, expMax int) uint16 {
	return uint16(g.Value(fpconv.BF16, expMin, expMax))
}

func (g *Generator) AnyFP32() uint32 { return g.AnyValue(fpconv.FP32) }
func (g *Generator) AnyFP16() uint16 { return uint16(g.AnyValue(fpconv.FP16)) }
func (g *Generator) AnyBF16() uint16 { return uint16(g.AnyValue(fpconv.BF16)) }

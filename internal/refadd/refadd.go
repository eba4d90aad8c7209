// Package refadd is the trusted addition oracle. Results are IEEE-754 sums
// rounded to nearest, ties to even, on raw bit patterns.
package refadd

import (
	"math"

	"github.com/23skdu/longbow-vfadd/internal/fpconv"
	"github.com/x448/float16"
)

// Canonical quiet NaNs returned for any NaN result.
const (
	NaN32 uint32 = 0x7FC00000
	NaN16 uint16 = 0x7E00
)

// Adder computes reference sums on raw bits.
type Adder interface {
	AddFP32(a, b uint32) uint32
	AddFP16(a, b uint16) uint16
	AddBF16(a, b uint16) uint16
}

// Reference is the default Adder. The zero value is ready to use.
type Reference struct{}

var _ Adder = Reference{}

func (Reference) AddFP32(a, b uint32) uint32 {
	sum := math.Float32frombits(a) + math.Float32frombits(b)
	if sum != sum {
		return NaN32
	}
	return math.Float32bits(sum)
}

// AddFP16 forms the sum in binary32 and rounds it once to binary16. With
// 24 significand bits against 11 the intermediate rounding cannot change the
// final result.
func (Reference) AddFP16(a, b uint16) uint16 {
	sum := float16.Frombits(a).Float32() + float16.Frombits(b).Float32()
	if sum != sum {
		return NaN16
	}
	return float16.Fromfloat32(sum).Bits()
}

// AddBF16 widens both operands, adds in FP32 and narrows the sum.
func (r Reference) AddBF16(a, b uint16) uint16 {
	sum := r.AddFP32(fpconv.BF16ToFP32(a), fpconv.BF16ToFP32(b))
	return fpconv.FP32ToBF16(sum)
}

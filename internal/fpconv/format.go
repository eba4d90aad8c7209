package fpconv

import (
	"fmt"
	"math"
	"strings"
)

// Format identifies how a raw bit pattern is interpreted.
type Format int

const (
	FP32 Format = iota
	FP16
	BF16
)

// Layout describes the field widths of a format.
//
//	FP32: S | EEEEEEEE | MMMMMMMMMMMMMMMMMMMMMMM   bias 127
//	FP16: S | EEEEE    | MMMMMMMMMM                bias 15
//	BF16: S | EEEEEEEE | MMMMMMM                   bias 127
type Layout struct {
	Width        uint
	ExponentBits uint
	MantissaBits uint
	Bias         int
}

var layouts = [...]Layout{
	FP32: {Width: 32, ExponentBits: 8, MantissaBits: 23, Bias: 127},
	FP16: {Width: 16, ExponentBits: 5, MantissaBits: 10, Bias: 15},
	BF16: {Width: 16, ExponentBits: 8, MantissaBits: 7, Bias: 127},
}

func (f Format) Layout() Layout {
	if f < FP32 || f > BF16 {
		return Layout{}
	}
	return layouts[f]
}

func (f Format) String() string {
	switch f {
	case FP32:
		return "fp32"
	case FP16:
		return "fp16"
	case BF16:
		return "bf16"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat accepts the names produced by String, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "fp32":
		return FP32, nil
	case "fp16":
		return FP16, nil
	case "bf16":
		return BF16, nil
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

func (l Layout) SignMask() uint32     { return 1 << (l.Width - 1) }
func (l Layout) ExponentMax() uint32  { return 1<<l.ExponentBits - 1 }
func (l Layout) MantissaMask() uint32 { return 1<<l.MantissaBits - 1 }

// Fields splits bits into sign, biased exponent and mantissa.
func (l Layout) Fields(bits uint32) (sign, exp, mant uint32) {
	sign = bits >> (l.Width - 1) & 1
	exp = bits >> l.MantissaBits & l.ExponentMax()
	mant = bits & l.MantissaMask()
	return sign, exp, mant
}

// IsNaN reports whether bits encode a NaN in format f.
func IsNaN(f Format, bits uint32) bool {
	l := f.Layout()
	_, exp, mant := l.Fields(bits)
	return exp == l.ExponentMax() && mant != 0
}

// IsInf reports whether bits encode an infinity in format f.
func IsInf(f Format, bits uint32) bool {
	l := f.Layout()
	_, exp, mant := l.Fields(bits)
	return exp == l.ExponentMax() && mant == 0
}

// IsZero reports whether bits encode +0 or -0.
func IsZero(f Format, bits uint32) bool {
	l := f.Layout()
	mask := l.SignMask() - 1
	return bits&mask == 0
}

// IsSubnormal reports a zero exponent field with a nonzero mantissa.
func IsSubnormal(f Format, bits uint32) bool {
	l := f.Layout()
	_, exp, mant := l.Fields(bits)
	return exp == 0 && mant != 0
}

// Float32 reinterprets an FP32 bit pattern.
func Float32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// Bits32 is the inverse of Float32.
func Bits32(f float32) uint32 {
	return math.Float32bits(f)
}

// Value returns the real number encoded by bits. Every FP16 and BF16 value is
// exactly representable in FP32, so the widening is exact.
func Value(f Format, bits uint32) float64 {
	switch f {
	case FP16:
		return float64(Float32(FP16ToFP32(uint16(bits))))
	case BF16:
		return float64(Float32(BF16ToFP32(uint16(bits))))
	default:
		return float64(Float32(bits))
	}
}

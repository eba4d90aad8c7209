// Package fpconv converts raw FP16, BF16 and FP32 bit patterns between formats
// with round-to-nearest-even. Every function is total: special values follow
// IEEE-754 encoding rules and never produce an error.
package fpconv

const (
	fp16SignMask = 0x8000
	fp16ExpMask  = 0x7C00
	fp16MantMask = 0x03FF
	fp16Inf      = 0x7C00

	fp32ExpMax   = 0xFF
	fp32MantMask = 0x7FFFFF
	fp32Implicit = 0x800000

	// FP32 bias minus FP16 bias.
	rebias = 127 - 15

	// Mantissa bits dropped when narrowing FP32 to FP16.
	narrowShift = 23 - 10
)

// FP16ToFP32 widens a half-precision pattern. The conversion is exact.
func FP16ToFP32(h uint16) uint32 {
	sign := uint32(h&fp16SignMask) << 16
	exp := int32(h&fp16ExpMask) >> 10
	mant := uint32(h & fp16MantMask)

	switch {
	case exp == 0 && mant == 0:
		return sign
	case exp == 0:
		// Subnormal: shift until the implicit bit appears.
		exp = 1
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		mant &= fp16MantMask
		return sign | uint32(exp+rebias)<<23 | mant<<narrowShift
	case exp == 0x1F:
		return sign | fp32ExpMax<<23 | mant<<narrowShift
	default:
		return sign | uint32(exp+rebias)<<23 | mant<<narrowShift
	}
}

// FP32ToFP16 narrows a single-precision pattern with round-to-nearest-even.
//
// FP32 subnormals are flushed to a signed zero instead of being rounded; their
// magnitude is far below the smallest FP16 subnormal.
func FP32ToFP16(f uint32) uint16 {
	sign := uint16(f>>16) & fp16SignMask
	exp := int32(f>>23) & fp32ExpMax
	frac := f & fp32MantMask

	switch exp {
	case 0:
		return sign
	case fp32ExpMax:
		if frac == 0 {
			return sign | fp16Inf
		}
		m := uint16(frac >> narrowShift)
		if m == 0 {
			m = 1
		}
		return sign | fp16Inf | m
	}

	e := exp - rebias
	if e >= 0x1F {
		return sign | fp16Inf
	}

	sig := frac | fp32Implicit
	if e <= 0 {
		// Below half of the smallest subnormal the result is zero.
		if e < -10 {
			return sign
		}
		// A carry out of the mantissa lands on the smallest normal, whose
		// encoding is the next integer up.
		return sign | uint16(roundShift(sig, uint32(1-e)+narrowShift))
	}

	m := roundShift(sig, narrowShift)
	if m&0x800 != 0 {
		m >>= 1
		e++
		if e >= 0x1F {
			return sign | fp16Inf
		}
	}
	return sign | uint16(e)<<10 | uint16(m)&fp16MantMask
}

// BF16ToFP32 widens a bfloat16 pattern; BF16 is the upper half of FP32.
func BF16ToFP32(b uint16) uint32 {
	return uint32(b) << 16
}

// FP32ToBF16 keeps the upper half of f, rounding on the discarded low half.
// A carry may propagate into the exponent, turning the largest finite values
// into infinity exactly as the bit pattern dictates.
func FP32ToBF16(f uint32) uint16 {
	high := uint16(f >> 16)
	low := uint16(f)

	guard := low>>15&1 != 0
	round := low>>14&1 != 0
	sticky := low&0x3FFF != 0

	if guard && (round || sticky || high&1 != 0) {
		high++
	}
	return high
}

// roundShift returns v >> s rounded to nearest, ties to even.
func roundShift(v, s uint32) uint32 {
	if s == 0 {
		return v
	}
	if s >= 32 {
		return 0
	}
	q := v >> s
	rem := v & (1<<s - 1)
	half := uint32(1) << (s - 1)
	if rem > half || (rem == half && q&1 == 1) {
		q++
	}
	return q
}

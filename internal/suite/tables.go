package suite

import "github.com/23skdu/longbow-vfadd/internal/vector"

// Case is a hand-picked vector. Scalar and widening modes read Lane0 only.
type Case struct {
	Name  string
	Lane0 [2]uint32
	Lane1 [2]uint32
}

// Range is an unbiased exponent window, or any non-NaN pattern.
type Range struct {
	Min, Max int
	Any      bool
}

// Exp is a shorthand for an exponent window.
func Exp(min, max int) Range { return Range{Min: min, Max: max} }

// Any draws from the full non-NaN space.
var Any = Range{Any: true}

// Band is one batch of random vectors. Operands holds two ranges (a, b) for
// scalar and widening modes and four (lane 0 a, b, lane 1 a, b) for dual-lane
// modes. A Divisor above one shrinks the batch.
type Band struct {
	Name     string
	Operands []Range
	Divisor  int
}

func pair(a, b Range) []Range { return []Range{a, b} }

func lanes(a0, b0, a1, b1 Range) []Range { return []Range{a0, b0, a1, b1} }

// same uses one range for all four dual-lane operands.
func same(r Range) []Range { return []Range{r, r, r, r} }

func c1(name string, a, b uint32) Case {
	return Case{Name: name, Lane0: [2]uint32{a, b}}
}

func c2(name string, a0, b0, a1, b1 uint32) Case {
	return Case{Name: name, Lane0: [2]uint32{a0, b0}, Lane1: [2]uint32{a1, b1}}
}

var cases = map[vector.Mode][]Case{
	vector.ModeFP32: {
		c1("-5 + -7", 0xC0A00000, 0xC0E00000),
		c1("1 + 2", 0x3F800000, 0x40000000),
		c1("2.5 + 10", 0x40200000, 0x41200000),
		c1("0 + 123.45", 0x00000000, 0x42F6E666),
		c1("-123.45 + 0", 0xC2F6E666, 0x00000000),
		c1("123 + -67", 0x42F60000, 0xC2860000),
		c1("5 + 123", 0x40A00000, 0x42F60000),
		c1("5 + 7", 0x40A00000, 0x40E00000),
		c1("-1 + 1", 0xBF800000, 0x3F800000),
		c1("1 + -1", 0x3F800000, 0xBF800000),
		c1("near one + huge", 0xBF7F7861, 0x7BEDE2C6),
		c1("close exponents", 0x58800C00, 0x58800400),
		c1("subnormal + min normal", 0x816849E7, 0x00B6D8A2),
		c1("-0 + -0", 0x80000000, 0x80000000),
	},
	vector.ModeFP16: {
		c2("1+2 | 3+1", 0x3C00, 0x4000, 0x4200, 0x3C00),
		c2("-1+2 | 1+-2", 0xBC00, 0x4000, 0x3C00, 0xC000),
		c2("1+-1 | 4+0.5", 0x3C00, 0xBC00, 0x4400, 0x3800),
		c2("0+2 | 2+0", 0x0000, 0x4000, 0x4000, 0x0000),
		c2("1+0 | 0+3", 0x3C00, 0x0000, 0x0000, 0x4200),
		c2("inf+2 | 1+-inf", 0x7C00, 0x4000, 0x3C00, 0xFC00),
		c2("1+inf | inf+inf", 0x3C00, 0x7C00, 0x7C00, 0x7C00),
		c2("min subnormal+2 | max subnormal+1", 0x0001, 0x4000, 0x03FF, 0x3C00),
		c2("1+min subnormal | 2+max subnormal", 0x3C00, 0x0001, 0x4000, 0x03FF),
		c2("1+-1 | -1+1", 0x3C00, 0xBC00, 0xBC00, 0x3C00),
		c2("regression 1", 0x4D6F, 0x1EA8, 0x5455, 0xE39C),
		c2("regression 2", 0x0668, 0x5B00, 0x8F63, 0x0575),
		c2("regression 3", 0xDCD9, 0x1054, 0xF800, 0x251B),
		c2("regression 4", 0x1F00, 0x4163, 0x7445, 0x5ADB),
	},
	vector.ModeBF16: {
		c2("1+2 | 3+1", 0x3F80, 0x4000, 0x4040, 0x3F80),
		c2("-1+2 | 1+-2", 0xBF80, 0x4000, 0x3F80, 0xC000),
		c2("1+-1 | 4+0.5", 0x3F80, 0xBF80, 0x4080, 0x3F00),
		c2("0+2 | 2+0", 0x0000, 0x4000, 0x4000, 0x0000),
		c2("1+0 | 0+3", 0x3F80, 0x0000, 0x0000, 0x4040),
		c2("inf+2 | 1+-inf", 0x7F80, 0x4000, 0x3F80, 0xFF80),
		c2("1+inf | inf+inf", 0x3F80, 0x7F80, 0x7F80, 0x7F80),
		c2("min subnormal+2 | max subnormal+1", 0x0001, 0x4000, 0x007F, 0x3F80),
		c2("1+min subnormal | 2+max subnormal", 0x3F80, 0x0001, 0x4000, 0x007F),
		c2("max normal+1 | min normal+1", 0x7F7F, 0x3F80, 0x0080, 0x3F80),
		c2("-max normal+1 | -min normal+1", 0xFF7F, 0x3F80, 0x8080, 0x3F80),
		c2("near overflow +2 | +3", 0x7F00, 0x4000, 0x7E80, 0x4040),
		c2("max+0.5 | large+0.5", 0x7F7F, 0x3F00, 0x7E80, 0x3F00),
		c2("precision loss small", 0x4000, 0x3E80, 0x4040, 0x3E00),
		c2("precision loss tiny", 0x5000, 0x3D80, 0x4C80, 0x3D00),
		c2("-2+-2 | -3+-2", 0xC000, 0xC000, 0xC040, 0xC000),
		c2("2+-2 | 3+-1", 0x4000, 0xC000, 0x4040, 0xBF80),
		c2("-2+2 | -3+2", 0xC000, 0x4000, 0xC040, 0x4000),
		c2("mixed 1", 0x42A5, 0x3E12, 0x4567, 0x3D89),
		c2("mixed 2", 0x4012, 0x4234, 0x4156, 0x3E78),
		c2("mixed 3", 0x9A1D, 0x1FA1, 0xA174, 0xCAFA),
		c2("negative subnormals", 0x80E1, 0x80ED, 0x80CD, 0x806D),
		c2("negative subnormals again", 0x80E1, 0x80ED, 0x80CD, 0x806D),
		c2("-1 + subnormal", 0xBF80, 0x0200, 0xBF80, 0x0200),
		c2("small + negative subnormal", 0x0F00, 0x80CF, 0x0F00, 0x80CF),
		c2("tiny normals", 0x0B0F, 0x0F7F, 0x0B0F, 0x0F7F),
	},
	vector.ModeFP16Widen: {
		c1("1 + 2", 0x3C00, 0x4000),
		c1("-1 + 2", 0xBC00, 0x4000),
		c1("1 + -1", 0x3C00, 0xBC00),
		c1("0 + 2", 0x0000, 0x4000),
		c1("subnormal + -0", 0x008E, 0x8000),
	},
	vector.ModeBF16Widen: {
		c1("1 + 2", 0x3F80, 0x4000),
		c1("-1 + 2", 0xBF80, 0x4000),
		c1("1 + -1", 0x3F80, 0xBF80),
		c1("0 + 2", 0x0000, 0x4000),
	},
}

var bands = map[vector.Mode][]Band{
	vector.ModeFP32: {
		{Name: "any", Operands: pair(Any, Any)},
		{Name: "small", Operands: pair(Exp(-50, -10), Exp(-50, -10))},
		{Name: "medium", Operands: pair(Exp(-10, 10), Exp(-10, 10))},
		{Name: "large", Operands: pair(Exp(10, 50), Exp(10, 50))},
		{Name: "wide", Operands: pair(Exp(-126, 20), Exp(-126, 20))},
		{Name: "wide + subnormal", Operands: pair(Exp(-126, 20), Exp(-127, -126))},
		{Name: "subnormal + wide", Operands: pair(Exp(-127, -126), Exp(-126, 20))},
		{Name: "low", Operands: pair(Exp(-127, 10), Exp(-127, 10))},
	},
	vector.ModeFP16: {
		{Name: "any", Operands: same(Any)},
		{Name: "small", Operands: same(Exp(-15, -5))},
		{Name: "medium", Operands: same(Exp(-5, 5))},
		{Name: "large", Operands: same(Exp(5, 15))},
		{Name: "full", Operands: same(Exp(-15, 15))},
		{Name: "subnormal crossed", Operands: lanes(Exp(-15, -14), Exp(-15, 15), Exp(-15, 15), Exp(-15, -14))},
		{Name: "subnormal second", Operands: lanes(Exp(-15, 15), Exp(-15, -14), Exp(-15, 15), Exp(-15, -14))},
		{Name: "subnormal", Operands: same(Exp(-15, -14))},
	},
	vector.ModeBF16: {
		{Name: "any", Operands: same(Any)},
		{Name: "small", Operands: same(Exp(-50, -10))},
		{Name: "medium", Operands: same(Exp(-10, 10))},
		{Name: "large", Operands: same(Exp(10, 50))},
		{Name: "extreme", Operands: same(Exp(-126, 127))},
		{Name: "subnormal edge crossed", Operands: lanes(Exp(-126, -125), Exp(-126, 20), Exp(-126, 20), Exp(-126, -125))},
		{Name: "mixed precision", Operands: lanes(Exp(-126, 20), Exp(-126, -125), Exp(-126, 20), Exp(-126, -125))},
		{Name: "subnormal edge", Operands: same(Exp(-126, -125))},
		{Name: "low", Operands: same(Exp(-127, 10))},
		{Name: "relative", Operands: same(Exp(-20, 20)), Divisor: 5},
		{Name: "subnormal", Operands: same(Exp(-127, -126))},
	},
	vector.ModeFP16Widen: {
		{Name: "any", Operands: pair(Any, Any)},
		{Name: "normal", Operands: pair(Exp(-10, 10), Exp(-10, 10))},
		{Name: "small", Operands: pair(Exp(-15, -5), Exp(-15, -5))},
		{Name: "large", Operands: pair(Exp(5, 15), Exp(5, 15))},
		{Name: "mixed", Operands: pair(Exp(-15, 15), Exp(-15, 15))},
		{Name: "subnormal + full", Operands: pair(Exp(-15, -14), Exp(-15, 15))},
		{Name: "full + subnormal", Operands: pair(Exp(-15, 15), Exp(-15, -14))},
		{Name: "near overflow", Operands: pair(Exp(14, 15), Exp(14, 15))},
		{Name: "near underflow", Operands: pair(Exp(-15, -14), Exp(-15, -14))},
		{Name: "precise", Operands: pair(Exp(-5, 5), Exp(-5, 5))},
		{Name: "precise again", Operands: pair(Exp(-5, 5), Exp(-5, 5))},
		{Name: "full", Operands: pair(Exp(-15, 15), Exp(-15, 15))},
		{Name: "large + small", Operands: pair(Exp(10, 15), Exp(-15, -10))},
		{Name: "small + large", Operands: pair(Exp(-15, -10), Exp(10, 15))},
	},
	vector.ModeBF16Widen: {
		{Name: "any", Operands: pair(Any, Any)},
		{Name: "normal", Operands: pair(Exp(-10, 10), Exp(-10, 10))},
		{Name: "small", Operands: pair(Exp(-50, -10), Exp(-50, -10))},
		{Name: "large", Operands: pair(Exp(10, 50), Exp(10, 50))},
		{Name: "mixed", Operands: pair(Exp(-126, 127), Exp(-126, 127))},
		{Name: "subnormal edge + wide", Operands: pair(Exp(-126, -125), Exp(-126, 20))},
		{Name: "wide + subnormal edge", Operands: pair(Exp(-126, 20), Exp(-126, -125))},
		{Name: "full", Operands: pair(Exp(-127, 127), Exp(-127, 127))},
		{Name: "huge + tiny", Operands: pair(Exp(50, 100), Exp(-100, -50))},
		{Name: "tiny + huge", Operands: pair(Exp(-100, -50), Exp(50, 100))},
	},
}

// Cases returns the hand-picked vectors for a mode.
func Cases(m vector.Mode) []Case { return cases[m] }

// Bands returns the random bands for a mode.
func Bands(m vector.Mode) []Band { return bands[m] }

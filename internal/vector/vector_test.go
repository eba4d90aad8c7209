package vector

import (
	"testing"

	"github.com/23skdu/longbow-vfadd/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFP32OnePlusTwo(t *testing.T) {
	v := NewFP32(0x3F800000, 0x40000000, Precise, nil)
	assert.Equal(t, ModeFP32, v.Mode())
	assert.Equal(t, Precise, v.Tolerance())
	assert.Equal(t, uint32(0x40400000), v.Expected().Res32)
	assert.Equal(t, Scalar32{A: 0x3F800000, B: 0x40000000}, v.Operands())
	assert.Equal(t, 1, v.Lanes())
	assert.Equal(t, [][2]float64{{1, 2}}, v.Inputs())
}

func TestFP16DualLane(t *testing.T) {
	v := NewFP16(Pair16{A: 0x3C00, B: 0x4000}, Pair16{A: 0x4200, B: 0x3C00}, Precise, nil)
	assert.Equal(t, [2]uint16{0x4200, 0x4400}, v.Expected().Lanes)
	assert.Equal(t, 2, v.Lanes())
	assert.Equal(t, uint32(0x4200), v.ExpectedBits(0))
	assert.Equal(t, uint32(0x4400), v.ExpectedBits(1))
	assert.Equal(t, [][2]float64{{1, 2}, {3, 1}}, v.Inputs())
}

func TestBF16WidenOnePlusTwo(t *testing.T) {
	v := NewBF16Widen(0x3F80, 0x4000, Precise, nil)
	assert.Equal(t, uint32(0x40400000), v.Expected().Res32)
	a, b, ok := v.Widened32()
	require.True(t, ok)
	assert.Equal(t, uint32(0x3F800000), a)
	assert.Equal(t, uint32(0x40000000), b)
}

func TestBF16LanesAreIndependent(t *testing.T) {
	base := NewBF16(Pair16{A: 0x3F80, B: 0x4000}, Pair16{A: 0x4040, B: 0x3F80}, ULP, nil)
	other := NewBF16(Pair16{A: 0x3F80, B: 0x4000}, Pair16{A: 0x7F80, B: 0x7F80}, ULP, nil)
	assert.Equal(t, base.Expected().Lanes[0], other.Expected().Lanes[0])
	assert.Equal(t, uint16(0x4080), base.Expected().Lanes[1])
	assert.Equal(t, uint16(0x7F80), other.Expected().Lanes[1])
}

func TestFP16WidenKeepsFullPrecision(t *testing.T) {
	// 2048 + 1 is not representable in FP16 but is exact in FP32.
	v := NewFP16Widen(0x6800, 0x3C00, Precise, nil)
	assert.Equal(t, uint32(0x45001000), v.Expected().Res32)

	// The smallest FP16 subnormal widens exactly.
	v = NewFP16Widen(0x008E, 0x8000, Precise, nil)
	assert.Equal(t, uint32(0x370E0000), v.Expected().Res32)
}

type constAdder struct{}

func (constAdder) AddFP32(a, b uint32) uint32 { return 1 }
func (constAdder) AddFP16(a, b uint16) uint16 { return 2 }
func (constAdder) AddBF16(a, b uint16) uint16 { return 3 }

func TestCustomAdder(t *testing.T) {
	assert.Equal(t, uint32(1), NewFP32(0, 0, Precise, constAdder{}).Expected().Res32)
	assert.Equal(t, [2]uint16{2, 2}, NewFP16(Pair16{}, Pair16{}, Precise, constAdder{}).Expected().Lanes)
	assert.Equal(t, [2]uint16{3, 3}, NewBF16(Pair16{}, Pair16{}, Precise, constAdder{}).Expected().Lanes)
	assert.Equal(t, uint32(1), NewBF16Widen(0, 0, Precise, constAdder{}).Expected().Res32)
}

func TestStimulus(t *testing.T) {
	tests := []struct {
		name string
		v    *Vector
		want sim.Stimulus
	}{
		{
			name: "fp32",
			v:    NewFP32(1, 2, Precise, nil),
			want: sim.Stimulus{Flags: sim.Flags{FP32: true}, A32: 1, B32: 2},
		},
		{
			name: "fp16",
			v:    NewFP16(Pair16{A: 1, B: 2}, Pair16{A: 3, B: 4}, Precise, nil),
			want: sim.Stimulus{Flags: sim.Flags{FP16: true}, A16: [2]uint16{1, 3}, B16: [2]uint16{2, 4}},
		},
		{
			name: "bf16",
			v:    NewBF16(Pair16{A: 1, B: 2}, Pair16{A: 3, B: 4}, Precise, nil),
			want: sim.Stimulus{Flags: sim.Flags{BF16: true}, A16: [2]uint16{1, 3}, B16: [2]uint16{2, 4}},
		},
		{
			name: "fp16 widen",
			v:    NewFP16Widen(5, 6, Precise, nil),
			want: sim.Stimulus{Flags: sim.Flags{FP16: true, Widen: true}, A16: [2]uint16{0, 5}, B16: [2]uint16{0, 6}},
		},
		{
			name: "bf16 widen",
			v:    NewBF16Widen(5, 6, Precise, nil),
			want: sim.Stimulus{Flags: sim.Flags{BF16: true, Widen: true}, A16: [2]uint16{0, 5}, B16: [2]uint16{0, 6}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Stimulus())
		})
	}
}

func TestNew(t *testing.T) {
	v, err := New(ModeFP16, [2]uint32{0x3C00, 0x4000}, [2]uint32{0x4200, 0x3C00}, Precise, nil)
	require.NoError(t, err)
	assert.Equal(t, [2]uint16{0x4200, 0x4400}, v.Expected().Lanes)

	v, err = New(ModeBF16Widen, [2]uint32{0x3F80, 0x4000}, [2]uint32{}, RelativeError, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x40400000), v.Expected().Res32)
	assert.Equal(t, RelativeError, v.Tolerance())

	_, err = New(Mode(42), [2]uint32{}, [2]uint32{}, Precise, nil)
	assert.Error(t, err)
}

func TestWithLabelCopies(t *testing.T) {
	v := NewFP32(0x3F800000, 0x40000000, Precise, nil)
	l := v.WithLabel("one plus two")
	assert.Empty(t, v.Label())
	assert.Equal(t, "one plus two", l.Label())
	assert.Equal(t, v.Expected(), l.Expected())
	assert.Equal(t, `fp32 "one plus two" 0x3f800000 + 0x40000000`, l.String())
}

func TestWidened32OnlyForWidening(t *testing.T) {
	_, _, ok := NewFP32(0, 0, Precise, nil).Widened32()
	assert.False(t, ok)
	_, _, ok = NewFP16(Pair16{}, Pair16{}, Precise, nil).Widened32()
	assert.False(t, ok)
}

func TestBitsOutOfRange(t *testing.T) {
	v := NewFP16(Pair16{A: 1, B: 2}, Pair16{A: 3, B: 4}, Precise, nil)
	a, b := v.Bits(2)
	assert.Zero(t, a)
	assert.Zero(t, b)
	assert.Zero(t, v.ExpectedBits(-1))
}

func TestString(t *testing.T) {
	v := NewFP16(Pair16{A: 0x3C00, B: 0x4000}, Pair16{A: 0x4200, B: 0x3C00}, Precise, nil)
	assert.Equal(t, "fp16 lane0 0x3c00 + 0x4000 lane1 0x4200 + 0x3c00", v.String())
}

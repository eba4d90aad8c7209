package corpus

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-vfadd/internal/config"
	"github.com/23skdu/longbow-vfadd/internal/refadd"
	"github.com/23skdu/longbow-vfadd/internal/suite"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

// skewed adds one ulp to every FP32 result.
type skewed struct{ refadd.Reference }

func (s skewed) AddFP32(a, b uint32) uint32 { return s.Reference.AddFP32(a, b) + 1 }

func sample() []*vector.Vector {
	return []*vector.Vector{
		vector.NewFP32(0x3F800000, 0x40000000, vector.Precise, nil).WithLabel("1 + 2"),
		vector.NewFP16(vector.Pair16{A: 0x3C00, B: 0x4000}, vector.Pair16{A: 0x4200, B: 0x3C00}, vector.ULP, nil),
		vector.NewBF16(vector.Pair16{A: 0x3F80, B: 0x4000}, vector.Pair16{A: 0x4040, B: 0x3F80}, vector.ULPOrRelativeError, nil),
		vector.NewFP16Widen(0x6800, 0x3C00, vector.RelativeError, nil),
		vector.NewBF16Widen(0x3F80, 0x4000, vector.Precise, nil).WithLabel("widen"),
	}
}

func TestRecordLayout(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := Record(mem, sample())
	defer rec.Release()

	assert.True(t, rec.Schema().Equal(Schema))
	assert.Equal(t, int64(5), rec.NumRows())

	mode := rec.Column(colMode).(*array.String)
	assert.Equal(t, "fp16_widen", mode.Value(3))

	label := rec.Column(colLabel).(*array.String)
	assert.True(t, label.IsNull(1))
	assert.Equal(t, "1 + 2", label.Value(0))

	a1 := rec.Column(colA1).(*array.Uint32)
	assert.Equal(t, uint32(0x4200), a1.Value(1))
	assert.Zero(t, a1.Value(0))

	exp1 := rec.Column(colExpected1).(*array.Uint16)
	assert.Equal(t, uint16(0x4080), exp1.Value(2))
}

func TestRowsRoundTrip(t *testing.T) {
	vs := sample()
	rec := Record(memory.NewGoAllocator(), vs)
	defer rec.Release()

	rows, err := Rows(rec)
	require.NoError(t, err)
	require.Len(t, rows, len(vs))
	for i, r := range rows {
		assert.Equal(t, RowOf(vs[i]), r)
		v, err := r.Vector(nil)
		require.NoError(t, err)
		assert.Equal(t, vs[i].String(), v.String())
		assert.Equal(t, vs[i].Expected(), v.Expected())
		assert.Equal(t, vs[i].Tolerance(), v.Tolerance())
	}
}

func TestRowsRejectsForeignSchema(t *testing.T) {
	sc := arrow.NewSchema([]arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Int64}}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), sc)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).Append(1)
	rec := b.NewRecord()
	defer rec.Release()

	_, err := Rows(rec)
	assert.Error(t, err)
}

func TestWriteFileRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.RandomCount = 10
	sb := suite.Builder{Config: cfg}
	vs, err := sb.Build(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "corpus.arrow")
	require.NoError(t, WriteFile(path, vs))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	got, err := Vectors(rows, nil)
	require.NoError(t, err)
	require.Len(t, got, len(vs))
	for i := range vs {
		require.Equal(t, vs[i].String(), got[i].String())
		require.Equal(t, vs[i].Expected(), got[i].Expected())
	}
}

func TestDriftDetected(t *testing.T) {
	rows := []Row{RowOf(vector.NewFP32(0x3F800000, 0x40000000, vector.Precise, nil))}

	_, err := Vectors(rows, skewed{})
	assert.ErrorIs(t, err, ErrExpectedDrift)

	// FP16 results come from AddFP16, which skewed leaves alone
	rows = []Row{RowOf(vector.NewFP16(vector.Pair16{A: 0x3C00, B: 0x3C00}, vector.Pair16{}, vector.Precise, nil))}
	_, err = Vectors(rows, skewed{})
	assert.NoError(t, err)
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.NotZero(t, buf.Len())
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.arrow"))
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	vs := sample()
	got := Select(vs, vector.ModeBF16Widen)
	require.Len(t, got, 1)
	assert.Equal(t, "widen", got[0].Label())
	assert.Empty(t, Select(vs[:1], vector.ModeFP16))
}

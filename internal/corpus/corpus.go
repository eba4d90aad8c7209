// Package corpus stores test vectors as Arrow records so they can be
// written to disk, streamed over Flight, and rebuilt later.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-vfadd/internal/refadd"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

// ErrExpectedDrift means a stored expectation no longer matches the oracle.
var ErrExpectedDrift = errors.New("corpus: stored expectation differs from oracle")

// Column order of Schema.
const (
	colMode = iota
	colTolerance
	colLabel
	colA0
	colB0
	colA1
	colB1
	colExpected32
	colExpected0
	colExpected1
)

// Schema is the fixed layout of every corpus record. Scalar modes use lane 0
// only; 16-bit operands sit in the low half of their uint32 column.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "mode", Type: arrow.BinaryTypes.String},
	{Name: "tolerance", Type: arrow.BinaryTypes.String},
	{Name: "label", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "a0", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "b0", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "a1", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "b1", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "expected32", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "expected0", Type: arrow.PrimitiveTypes.Uint16},
	{Name: "expected1", Type: arrow.PrimitiveTypes.Uint16},
}, nil)

// Row is one decoded vector.
type Row struct {
	Mode      vector.Mode
	Tolerance vector.Tolerance
	Label     string
	Lane0     [2]uint32
	Lane1     [2]uint32
	Expected  vector.Expected
}

func RowOf(v *vector.Vector) Row {
	r := Row{
		Mode:      v.Mode(),
		Tolerance: v.Tolerance(),
		Label:     v.Label(),
		Expected:  v.Expected(),
	}
	r.Lane0[0], r.Lane0[1] = v.Bits(0)
	if v.Lanes() > 1 {
		r.Lane1[0], r.Lane1[1] = v.Bits(1)
	}
	return r
}

// Vector rebuilds the row with adder (nil for the reference) and checks the
// result against the stored expectation.
func (r Row) Vector(adder refadd.Adder) (*vector.Vector, error) {
	v, err := vector.New(r.Mode, r.Lane0, r.Lane1, r.Tolerance, adder)
	if err != nil {
		return nil, err
	}
	if r.Label != "" {
		v = v.WithLabel(r.Label)
	}
	if v.Expected() != r.Expected {
		return v, fmt.Errorf("%w: %v stored %+v", ErrExpectedDrift, v, r.Expected)
	}
	return v, nil
}

// Record encodes vectors into a single record. The caller must Release it.
func Record(mem memory.Allocator, vectors []*vector.Vector) arrow.Record {
	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()

	mode := b.Field(colMode).(*array.StringBuilder)
	tol := b.Field(colTolerance).(*array.StringBuilder)
	label := b.Field(colLabel).(*array.StringBuilder)
	ops := [4]*array.Uint32Builder{
		b.Field(colA0).(*array.Uint32Builder),
		b.Field(colB0).(*array.Uint32Builder),
		b.Field(colA1).(*array.Uint32Builder),
		b.Field(colB1).(*array.Uint32Builder),
	}
	exp32 := b.Field(colExpected32).(*array.Uint32Builder)
	exp0 := b.Field(colExpected0).(*array.Uint16Builder)
	exp1 := b.Field(colExpected1).(*array.Uint16Builder)

	b.Reserve(len(vectors))
	for _, v := range vectors {
		r := RowOf(v)
		mode.Append(r.Mode.String())
		tol.Append(r.Tolerance.String())
		if r.Label == "" {
			label.AppendNull()
		} else {
			label.Append(r.Label)
		}
		ops[0].Append(r.Lane0[0])
		ops[1].Append(r.Lane0[1])
		ops[2].Append(r.Lane1[0])
		ops[3].Append(r.Lane1[1])
		exp32.Append(r.Expected.Res32)
		exp0.Append(r.Expected.Lanes[0])
		exp1.Append(r.Expected.Lanes[1])
	}
	return b.NewRecord()
}

// Rows decodes a record produced by Record.
func Rows(rec arrow.Record) ([]Row, error) {
	if !rec.Schema().Equal(Schema) {
		return nil, fmt.Errorf("unexpected corpus schema: %v", rec.Schema())
	}

	mode := rec.Column(colMode).(*array.String)
	tol := rec.Column(colTolerance).(*array.String)
	label := rec.Column(colLabel).(*array.String)
	a0 := rec.Column(colA0).(*array.Uint32)
	b0 := rec.Column(colB0).(*array.Uint32)
	a1 := rec.Column(colA1).(*array.Uint32)
	b1 := rec.Column(colB1).(*array.Uint32)
	exp32 := rec.Column(colExpected32).(*array.Uint32)
	exp0 := rec.Column(colExpected0).(*array.Uint16)
	exp1 := rec.Column(colExpected1).(*array.Uint16)

	rows := make([]Row, 0, rec.NumRows())
	for i := 0; i < int(rec.NumRows()); i++ {
		m, err := vector.ParseMode(mode.Value(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		t, err := vector.ParseTolerance(tol.Value(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		r := Row{
			Mode:      m,
			Tolerance: t,
			Lane0:     [2]uint32{a0.Value(i), b0.Value(i)},
			Lane1:     [2]uint32{a1.Value(i), b1.Value(i)},
			Expected: vector.Expected{
				Res32: exp32.Value(i),
				Lanes: [2]uint16{exp0.Value(i), exp1.Value(i)},
			},
		}
		if label.IsValid(i) {
			r.Label = label.Value(i)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// Write encodes vectors as an Arrow IPC file with zstd-compressed buffers.
func Write(w io.Writer, vectors []*vector.Vector) error {
	mem := memory.NewGoAllocator()
	rec := Record(mem, vectors)
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(Schema), ipc.WithAllocator(mem), ipc.WithZstd())
	if err != nil {
		return fmt.Errorf("ipc writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return fmt.Errorf("write record: %w", err)
	}
	return fw.Close()
}

func WriteFile(path string, vectors []*vector.Vector) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create corpus: %w", err)
	}
	if err := Write(f, vectors); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile loads every row of a corpus file.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	fr, err := ipc.NewFileReader(f)
	if err != nil {
		return nil, fmt.Errorf("ipc reader: %w", err)
	}
	defer fr.Close()

	var rows []Row
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		batch, err := Rows(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}

// Vectors rebuilds every row, stopping at the first drift.
func Vectors(rows []Row, adder refadd.Adder) ([]*vector.Vector, error) {
	out := make([]*vector.Vector, 0, len(rows))
	for i, r := range rows {
		v, err := r.Vector(adder)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Select returns the vectors of one mode, preserving order.
func Select(vectors []*vector.Vector, m vector.Mode) []*vector.Vector {
	var out []*vector.Vector
	for _, v := range vectors {
		if v.Mode() == m {
			out = append(out, v)
		}
	}
	return out
}

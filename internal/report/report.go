// Package report writes per-vector diagnostics, either as a human-readable
// dump or as JSON Lines, optionally zstd-compressed.
package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/23skdu/longbow-vfadd/internal/fpconv"
	"github.com/23skdu/longbow-vfadd/internal/harness"
)

type Format int

const (
	Text Format = iota
	JSONL
)

// Entry is the JSON form of one result. Non-finite relative errors are
// omitted because JSON cannot carry them.
type Entry struct {
	Index     int         `json:"index"`
	Mode      string      `json:"mode"`
	Tolerance string      `json:"tolerance"`
	Label     string      `json:"label,omitempty"`
	Outcome   string      `json:"outcome"`
	Error     string      `json:"error,omitempty"`
	Lanes     []LaneEntry `json:"lanes"`
}

type LaneEntry struct {
	A        string   `json:"a"`
	B        string   `json:"b"`
	AValue   string   `json:"a_value"`
	BValue   string   `json:"b_value"`
	Expected string   `json:"expected"`
	Got      string   `json:"got,omitempty"`
	ULPDiff  int64    `json:"ulp_diff"`
	RelErr   *float64 `json:"rel_err,omitempty"`
	Pass     bool     `json:"pass"`
}

// Writer is a harness.Reporter. It is safe for concurrent use.
type Writer struct {
	mu      sync.Mutex
	format  Format
	buf     *bufio.Writer
	enc     *json.Encoder
	closers []io.Closer
}

var _ harness.Reporter = (*Writer)(nil)

func New(w io.Writer, format Format) *Writer {
	rw := &Writer{format: format, buf: bufio.NewWriter(w)}
	rw.enc = json.NewEncoder(rw.buf)
	return rw
}

// Create opens path for writing. A .jsonl or .json stem selects JSON Lines
// and a trailing .zst adds zstd compression.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	name := path
	var closers []io.Closer
	var w io.Writer = f
	if strings.HasSuffix(name, ".zst") {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		closers = append(closers, zw)
		w = zw
		name = strings.TrimSuffix(name, ".zst")
	}
	closers = append(closers, f)

	format := Text
	if strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".json") {
		format = JSONL
	}
	rw := New(w, format)
	rw.closers = closers
	return rw, nil
}

func (w *Writer) Record(res harness.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.format == JSONL {
		return w.enc.Encode(NewEntry(res))
	}
	return Dump(w.buf, res)
}

// Close flushes buffered output and closes anything Create opened.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.buf.Flush()
	for _, c := range w.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	w.closers = nil
	return err
}

func NewEntry(res harness.Result) Entry {
	v := res.Vector
	e := Entry{
		Index:     res.Index,
		Mode:      v.Mode().String(),
		Tolerance: v.Tolerance().String(),
		Label:     v.Label(),
		Outcome:   res.Outcome.String(),
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}

	in := v.Mode().InputFormat()
	out := v.Mode().ResultFormat()
	values := v.Inputs()
	for lane := 0; lane < v.Lanes(); lane++ {
		a, b := v.Bits(lane)
		le := LaneEntry{
			A:        hex(in, a),
			B:        hex(in, b),
			AValue:   formatFloat(values[lane][0]),
			BValue:   formatFloat(values[lane][1]),
			Expected: hex(out, v.ExpectedBits(lane)),
		}
		if lane < len(res.Verdict.Lanes) {
			lv := res.Verdict.Lanes[lane]
			le.Got = hex(out, lv.Got)
			le.ULPDiff = lv.ULPDiff
			le.Pass = lv.Pass
			if !math.IsNaN(lv.RelErr) && !math.IsInf(lv.RelErr, 0) {
				rel := lv.RelErr
				le.RelErr = &rel
			}
		}
		e.Lanes = append(e.Lanes, le)
	}
	return e
}

// Dump writes a human-readable block for one result.
func Dump(w io.Writer, res harness.Result) error {
	v := res.Vector
	in := v.Mode().InputFormat()
	out := v.Mode().ResultFormat()

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- vector %d: %s", res.Index, v.Mode())
	if v.Label() != "" {
		fmt.Fprintf(&sb, " (%s)", v.Label())
	}
	fmt.Fprintf(&sb, " [%s] %s\n", v.Tolerance(), strings.ToUpper(res.Outcome.String()))

	values := v.Inputs()
	for lane := 0; lane < v.Lanes(); lane++ {
		a, b := v.Bits(lane)
		exp := v.ExpectedBits(lane)
		fmt.Fprintf(&sb, "  lane %d: a=%s (%s) b=%s (%s)\n", lane,
			hex(in, a), formatFloat(values[lane][0]),
			hex(in, b), formatFloat(values[lane][1]))
		fmt.Fprintf(&sb, "          expected=%s (%s)", hex(out, exp), formatFloat(fpconv.Value(out, exp)))
		if lane < len(res.Verdict.Lanes) {
			lv := res.Verdict.Lanes[lane]
			fmt.Fprintf(&sb, " got=%s (%s) ulp=%d rel=%g", hex(out, lv.Got), formatFloat(fpconv.Value(out, lv.Got)), lv.ULPDiff, lv.RelErr)
		}
		sb.WriteByte('\n')
	}
	if a, b, ok := v.Widened32(); ok {
		fmt.Fprintf(&sb, "  widened: a=0x%08x b=0x%08x\n", a, b)
	}
	if res.Err != nil {
		fmt.Fprintf(&sb, "  error: %v\n", res.Err)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func hex(f fpconv.Format, bits uint32) string {
	if f.Layout().Width == 16 {
		return fmt.Sprintf("0x%04x", bits)
	}
	return fmt.Sprintf("0x%08x", bits)
}

func formatFloat(x float64) string {
	return fmt.Sprintf("%.8g", x)
}

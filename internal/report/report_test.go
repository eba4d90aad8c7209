package report

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-vfadd/internal/compare"
	"github.com/23skdu/longbow-vfadd/internal/harness"
	"github.com/23skdu/longbow-vfadd/internal/sim"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

func judged(t *testing.T, v *vector.Vector, out sim.Output, outcome harness.Outcome) harness.Result {
	t.Helper()
	verdict, err := compare.New().Compare(v, out)
	require.NoError(t, err)
	return harness.Result{Index: 4, Vector: v, Output: out, Verdict: verdict, Outcome: outcome}
}

func TestDump(t *testing.T) {
	v := vector.NewFP16(vector.Pair16{A: 0x3C00, B: 0x4000}, vector.Pair16{A: 0x4200, B: 0x3C00}, vector.Precise, nil).WithLabel("1+2 | 3+1")
	res := judged(t, v, sim.DualOutput(0x4200, 0x4401), harness.Fail)

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, res))
	got := buf.String()

	assert.Contains(t, got, "--- vector 4: fp16 (1+2 | 3+1) [precise] FAIL")
	assert.Contains(t, got, "lane 0: a=0x3c00 (1) b=0x4000 (2)")
	assert.Contains(t, got, "expected=0x4400 (4) got=0x4401")
	assert.Contains(t, got, "ulp=1")
}

func TestDumpWidenAndError(t *testing.T) {
	v := vector.NewBF16Widen(0x3F80, 0x4000, vector.Precise, nil)
	res := harness.Result{Vector: v, Outcome: harness.NoVerdict, Err: sim.ErrTimeout}

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, res))
	assert.Contains(t, buf.String(), "widened: a=0x3f800000 b=0x40000000")
	assert.Contains(t, buf.String(), "error: sim: no result within cycle budget")
	assert.Contains(t, buf.String(), "expected=0x40400000 (3)")
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, JSONL)

	pass := judged(t, vector.NewFP32(0x3F800000, 0x40000000, vector.ULP, nil), sim.ScalarOutput(0x40400002), harness.Pass)
	// inf + 1 judged against a finite result has no finite relative error
	inf := judged(t, vector.NewFP32(0x7F800000, 0x3F800000, vector.Precise, nil), sim.ScalarOutput(0x3F800000), harness.Fail)
	require.NoError(t, w.Record(pass))
	require.NoError(t, w.Record(inf))
	require.NoError(t, w.Close())

	sc := bufio.NewScanner(&buf)
	var entries []Entry
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)

	assert.Equal(t, "fp32", entries[0].Mode)
	assert.Equal(t, "ulp", entries[0].Tolerance)
	assert.Equal(t, "pass", entries[0].Outcome)
	require.Len(t, entries[0].Lanes, 1)
	assert.Equal(t, "0x40400002", entries[0].Lanes[0].Got)
	assert.Equal(t, int64(2), entries[0].Lanes[0].ULPDiff)
	require.NotNil(t, entries[0].Lanes[0].RelErr)

	assert.Equal(t, "fail", entries[1].Outcome)
	assert.Equal(t, "+Inf", entries[1].Lanes[0].AValue)
	assert.Nil(t, entries[1].Lanes[0].RelErr)
}

func TestCreateCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl.zst")
	w, err := Create(path)
	require.NoError(t, err)

	v := vector.NewBF16(vector.Pair16{A: 0x3F80, B: 0x4000}, vector.Pair16{A: 0x4040, B: 0x3F80}, vector.Precise, nil)
	require.NoError(t, w.Record(judged(t, v, sim.DualOutput(0x4040, 0x4080), harness.Pass)))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	var e Entry
	require.NoError(t, json.NewDecoder(zr).Decode(&e))
	assert.Equal(t, "bf16", e.Mode)
	require.Len(t, e.Lanes, 2)
	assert.Equal(t, "0x4080", e.Lanes[1].Expected)
}

func TestCreateText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.txt")
	w, err := Create(path)
	require.NoError(t, err)

	r := harness.Runner{Report: w}
	_, err = r.Run(context.Background(), []*vector.Vector{vector.NewFP32(0x3F800000, 0x40000000, vector.Precise, nil)})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "--- vector 0: fp32 [precise] PASS"))
}

func TestCreateBadPath(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "run.txt"))
	assert.Error(t, err)
}

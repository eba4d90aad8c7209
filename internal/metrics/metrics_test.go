package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordVectorsBuilt(t *testing.T) {
	before := testutil.ToFloat64(VectorsBuilt.WithLabelValues("fp16"))
	RecordVectorsBuilt("fp16", 14)
	RecordVectorsBuilt("fp16", 200)
	if got := testutil.ToFloat64(VectorsBuilt.WithLabelValues("fp16")) - before; got != 214 {
		t.Errorf("vectors built delta = %v, want 214", got)
	}
}

func TestRecordVerdict(t *testing.T) {
	before := testutil.ToFloat64(Verdicts.WithLabelValues("bf16", OutcomeFail))
	RecordVerdict("bf16", OutcomeFail)
	RecordVerdict("bf16", OutcomePass)
	if got := testutil.ToFloat64(Verdicts.WithLabelValues("bf16", OutcomeFail)) - before; got != 1 {
		t.Errorf("fail delta = %v, want 1", got)
	}
}

func TestRecordDistance(t *testing.T) {
	RecordDistance("fp32", 3, 1e-7)
	RecordDistance("fp32", 0, math.Inf(1))
	RecordDistance("fp32", 0, math.NaN())

	if testutil.CollectAndCount(ULPDistance) == 0 {
		t.Error("expected ulp distance series")
	}
	if testutil.CollectAndCount(RelativeError) == 0 {
		t.Error("expected relative error series")
	}
}

func TestRecordConfigError(t *testing.T) {
	before := testutil.ToFloat64(ConfigErrors.WithLabelValues("shape_mismatch"))
	RecordConfigError("shape_mismatch")
	if got := testutil.ToFloat64(ConfigErrors.WithLabelValues("shape_mismatch")) - before; got != 1 {
		t.Errorf("config error delta = %v, want 1", got)
	}
}

func TestRecordRunAndFlight(t *testing.T) {
	RecordRun(250 * time.Millisecond)
	RecordFlightRecord("all")
	if testutil.CollectAndCount(FlightRecordsSent) == 0 {
		t.Error("expected flight series")
	}
}

// Package harness drives vectors through a simulator one at a time and
// judges each result.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/23skdu/longbow-vfadd/internal/compare"
	"github.com/23skdu/longbow-vfadd/internal/logger"
	"github.com/23skdu/longbow-vfadd/internal/metrics"
	"github.com/23skdu/longbow-vfadd/internal/sim"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

// Outcome of one vector.
type Outcome int

const (
	Pass Outcome = iota
	Fail
	// NoVerdict means the DUT produced nothing to judge.
	NoVerdict
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return metrics.OutcomePass
	case Fail:
		return metrics.OutcomeFail
	case NoVerdict:
		return metrics.OutcomeNoVerdict
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is everything known about one executed vector.
type Result struct {
	Index   int
	Vector  *vector.Vector
	Output  sim.Output
	Verdict compare.Verdict
	Outcome Outcome
	Err     error
}

// Reporter receives every result in execution order.
type Reporter interface {
	Record(Result) error
}

// Summary counts outcomes. FirstFailure is the index of the first Fail or
// NoVerdict vector, or -1.
type Summary struct {
	Total        int
	Passed       int
	Failed       int
	NoVerdict    int
	FirstFailure int
}

// OK reports whether every executed vector passed.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.NoVerdict == 0
}

type Runner struct {
	// Sim defaults to a sim.Model with no latency.
	Sim sim.Simulator
	// Comparator defaults to compare.New().
	Comparator *compare.Comparator
	// StopOnFailure ends the run at the first Fail or NoVerdict.
	StopOnFailure bool
	// Report is optional.
	Report Reporter
}

// Run executes vectors in order. Mismatches and timeouts are counted in the
// Summary; an error means the run itself could not continue.
func (r *Runner) Run(ctx context.Context, vectors []*vector.Vector) (Summary, error) {
	start := time.Now()
	defer func() { metrics.RecordRun(time.Since(start)) }()

	simulator := r.Sim
	if simulator == nil {
		simulator = &sim.Model{}
	}
	cmp := r.Comparator
	if cmp == nil {
		cmp = compare.New()
	}

	sum := Summary{FirstFailure: -1}
	for i, v := range vectors {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		res, err := execute(ctx, simulator, cmp, v)
		if err != nil {
			metrics.RecordConfigError(errorKind(err))
			logger.Log.Error("Run aborted", err, "index", i, "vector", v.String())
			return sum, fmt.Errorf("vector %d (%v): %w", i, v, err)
		}
		res.Index = i
		sum.add(res)
		observe(res)

		if r.Report != nil {
			if err := r.Report.Record(res); err != nil {
				return sum, fmt.Errorf("report vector %d: %w", i, err)
			}
		}
		if res.Outcome != Pass && r.StopOnFailure {
			logger.Log.Warn("Stopping at first failure", "index", i, "executed", sum.Total, "of", len(vectors))
			break
		}
	}

	logger.Log.Info("Run complete",
		"total", sum.Total,
		"passed", sum.Passed,
		"failed", sum.Failed,
		"no_verdict", sum.NoVerdict,
		"duration", time.Since(start).String(),
	)
	return sum, nil
}

func execute(ctx context.Context, s sim.Simulator, cmp *compare.Comparator, v *vector.Vector) (Result, error) {
	res := Result{Vector: v}
	out, err := s.Run(ctx, v.Stimulus())
	if err != nil {
		if errors.Is(err, sim.ErrTimeout) {
			res.Outcome = NoVerdict
			res.Err = err
			return res, nil
		}
		return res, err
	}
	res.Output = out

	verdict, err := cmp.Compare(v, out)
	if err != nil {
		return res, err
	}
	res.Verdict = verdict
	if !verdict.Pass {
		res.Outcome = Fail
	}
	return res, nil
}

func (s *Summary) add(res Result) {
	s.Total++
	switch res.Outcome {
	case Pass:
		s.Passed++
		return
	case Fail:
		s.Failed++
	case NoVerdict:
		s.NoVerdict++
	}
	if s.FirstFailure < 0 {
		s.FirstFailure = res.Index
	}
}

func observe(res Result) {
	mode := res.Vector.Mode().String()
	metrics.RecordVerdict(mode, res.Outcome.String())
	for _, lv := range res.Verdict.Lanes {
		metrics.RecordDistance(mode, lv.ULPDiff, lv.RelErr)
	}

	switch res.Outcome {
	case Pass:
		logger.Log.Debug("Vector passed", "index", res.Index, "vector", res.Vector.String())
	case Fail:
		args := []interface{}{"index", res.Index, "vector", res.Vector.String(), "tolerance", res.Vector.Tolerance().String()}
		for i, lv := range res.Verdict.Lanes {
			args = append(args,
				fmt.Sprintf("lane%d", i),
				fmt.Sprintf("expected=0x%x got=0x%x ulp=%d rel=%g", lv.Expected, lv.Got, lv.ULPDiff, lv.RelErr))
		}
		logger.Log.Error("Vector failed", args...)
	case NoVerdict:
		logger.Log.Warn("No result from DUT", "index", res.Index, "vector", res.Vector.String(), "error", res.Err.Error())
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, compare.ErrShapeMismatch):
		return "shape_mismatch"
	case errors.Is(err, compare.ErrUnsupportedPolicy):
		return "unsupported_policy"
	case errors.Is(err, sim.ErrInvalidStimulus):
		return "invalid_stimulus"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// Package suite assembles the test corpus: hand-picked edge cases followed by
// seeded random batches across exponent bands, per mode.
package suite

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/23skdu/longbow-vfadd/internal/config"
	"github.com/23skdu/longbow-vfadd/internal/fpconv"
	"github.com/23skdu/longbow-vfadd/internal/logger"
	"github.com/23skdu/longbow-vfadd/internal/metrics"
	"github.com/23skdu/longbow-vfadd/internal/randgen"
	"github.com/23skdu/longbow-vfadd/internal/refadd"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

// Builder builds a corpus from Config.Seed, Config.RandomCount,
// Config.Modes and Config.Tolerance. A nil Adder selects refadd.Reference.
type Builder struct {
	Config config.Config
	Adder  refadd.Adder
}

type task struct {
	mode vector.Mode
	band Band
	seed uint64
}

// Build returns the corpus in table order. The same configuration always
// yields the same vectors, whatever the scheduling of the band workers.
func (b *Builder) Build(ctx context.Context) ([]*vector.Vector, error) {
	cfg := b.Config
	if cfg.RandomCount < 0 {
		return nil, fmt.Errorf("invalid random_count: %d (must be non-negative)", cfg.RandomCount)
	}

	var tasks []task
	for _, m := range vector.Modes {
		if !cfg.Selected(m) {
			continue
		}
		for _, band := range bands[m] {
			if err := validateBand(m, band); err != nil {
				return nil, err
			}
			tasks = append(tasks, task{mode: m, band: band})
		}
	}
	for i, seed := range randgen.New(cfg.Seed).Split(len(tasks)) {
		tasks[i].seed = seed
	}

	batches := make([][]*vector.Vector, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batch, err := b.random(t, cfg.RandomCount, cfg.Tolerance)
			if err != nil {
				return err
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*vector.Vector
	next := 0
	for _, m := range vector.Modes {
		if !cfg.Selected(m) {
			continue
		}
		hand, err := b.handPicked(m)
		if err != nil {
			return nil, err
		}
		out = append(out, hand...)
		n := len(hand)
		for next < len(tasks) && tasks[next].mode == m {
			out = append(out, batches[next]...)
			n += len(batches[next])
			next++
		}
		metrics.RecordVectorsBuilt(m.String(), n)
		logger.Log.Debug("Built vectors", "mode", m.String(), "hand_picked", len(hand), "total", n)
	}
	return out, nil
}

func validateBand(m vector.Mode, band Band) error {
	want := 2
	if m.Dual() {
		want = 4
	}
	if len(band.Operands) != want {
		return fmt.Errorf("invalid band %s/%s: %d operand ranges (must be %d)", m, band.Name, len(band.Operands), want)
	}
	for _, r := range band.Operands {
		if r.Any {
			continue
		}
		if err := randgen.ValidateRange(m.InputFormat(), r.Min, r.Max); err != nil {
			return fmt.Errorf("invalid band %s/%s: %w", m, band.Name, err)
		}
	}
	return nil
}

// handPicked builds the fixed cases of a mode. They are judged precisely.
func (b *Builder) handPicked(m vector.Mode) ([]*vector.Vector, error) {
	out := make([]*vector.Vector, 0, len(cases[m]))
	for _, c := range cases[m] {
		v, err := vector.New(m, c.Lane0, c.Lane1, vector.Precise, b.Adder)
		if err != nil {
			return nil, err
		}
		out = append(out, v.WithLabel(c.Name))
	}
	return out, nil
}

func (b *Builder) random(t task, count int, tol vector.Tolerance) ([]*vector.Vector, error) {
	if t.band.Divisor > 1 {
		count /= t.band.Divisor
	}
	g := randgen.New(t.seed)
	f := t.mode.InputFormat()
	label := t.mode.String() + " " + t.band.Name

	out := make([]*vector.Vector, 0, count)
	for i := 0; i < count; i++ {
		var ops [4]uint32
		for j, r := range t.band.Operands {
			ops[j] = draw(g, f, r)
		}
		v, err := vector.New(t.mode, [2]uint32{ops[0], ops[1]}, [2]uint32{ops[2], ops[3]}, tol, b.Adder)
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", label, err)
		}
		out = append(out, v.WithLabel(label))
	}
	return out, nil
}

func draw(g *randgen.Generator, f fpconv.Format, r Range) uint32 {
	if r.Any {
		return g.AnyValue(f)
	}
	return g.Value(f, r.Min, r.Max)
}

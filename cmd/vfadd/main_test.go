package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/longbow-vfadd/internal/corpus"
	"github.com/23skdu/longbow-vfadd/internal/transport"
	"github.com/23skdu/longbow-vfadd/internal/vector"
)

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-seed", "9", "-count", "3", "-modes", "bf16", "-tolerance", "ulp_or_relative_error"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), opts.cfg.Seed)
	assert.Equal(t, 3, opts.cfg.RandomCount)
	assert.Equal(t, []vector.Mode{vector.ModeBF16}, opts.cfg.Modes)
	assert.Equal(t, vector.ULPOrRelativeError, opts.cfg.Tolerance)
	assert.True(t, opts.cfg.StopOnFailure)
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"-bogus"}},
		{"bad mode", []string{"-modes", "fp64"}},
		{"bad tolerance", []string{"-tolerance", "loose"}},
		{"combined outside bf16", []string{"-modes", "fp32", "-tolerance", "ulp_or_relative_error"}},
		{"negative count", []string{"-count", "-1"}},
		{"seed with load", []string{"-load", "corpus.arrow", "-seed", "3"}},
		{"tolerance with load", []string{"-load", "corpus.arrow", "-tolerance", "ulp"}},
		{"count with load", []string{"-count", "4", "-load", "corpus.arrow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, exitUsage, run(context.Background(), tt.args, &stderr))
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitOK, run(context.Background(), []string{"-h"}, &stderr))
	assert.Contains(t, stderr.String(), "-stop-on-failure")
}

func TestRunExportAndReplay(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.arrow")
	reportPath := filepath.Join(dir, "run.jsonl")

	var stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-count", "5", "-latency", "2",
		"-export", corpusPath, "-report", reportPath,
	}, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	rows, err := corpus.ReadFile(corpusPath)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, len(rows), bytes.Count(data, []byte("\n")))

	stderr.Reset()
	code = run(context.Background(), []string{"-load", corpusPath, "-modes", "fp16"}, &stderr)
	assert.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stderr.String(), "Corpus loaded")
}

func TestRunMissingCorpus(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-load", filepath.Join(t.TempDir(), "none.arrow")}, &stderr)
	assert.Equal(t, exitFailed, code)
}

func TestRunTimeoutFails(t *testing.T) {
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-count", "1", "-latency", "10", "-timeout", "5"}, &stderr)
	assert.Equal(t, exitFailed, code)
}

func TestParseFlagsLoadNamesIgnoredFlags(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags([]string{"-load", "c.arrow", "-seed", "3", "-count", "2"}, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-count, -seed")

	opts, err := parseFlags([]string{"-load", "c.arrow", "-modes", "fp16", "-stop-on-failure=false"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "c.arrow", opts.loadPath)
	assert.False(t, opts.cfg.StopOnFailure)
}

func TestRunReplayFromFlight(t *testing.T) {
	vs := []*vector.Vector{
		vector.NewFP32(0x3F800000, 0x40000000, vector.Precise, nil),
		vector.NewBF16(vector.Pair16{A: 0x3F80, B: 0x4000}, vector.Pair16{A: 0x4040, B: 0x3F80}, vector.Precise, nil),
	}
	srv := transport.NewServer(vs)
	require.NoError(t, srv.Start("localhost:0"))
	t.Cleanup(srv.Shutdown)

	reportPath := filepath.Join(t.TempDir(), "run.jsonl")
	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-load", flightScheme + srv.Addr().String(), "-report", reportPath}, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, len(vs), bytes.Count(data, []byte("\n")))
}

func TestRunReplayFromUnreachableFlight(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var stderr bytes.Buffer
	assert.Equal(t, exitFailed, run(ctx, []string{"-load", flightScheme + "127.0.0.1:1"}, &stderr))
}

// Package monitoring routes the diagnostic log streams of the sweep pipeline.
package monitoring

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/banshee-data/charpar/internal/evolve"
	"github.com/banshee-data/charpar/internal/sweep"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer // actionable warnings and failed grid points
	Diag  io.Writer // sweep progress and optimiser diagnostics
	Trace io.Writer // per-point estimates and per-generation state
}

// SetLogWriters configures the streams of every pipeline package at once and
// points Logf at the ops stream. Pass nil for any writer to disable it.
func SetLogWriters(w LogWriters) {
	evolve.SetLogWriters(w.Ops, w.Diag, w.Trace)
	sweep.SetLogWriters(w.Ops, w.Diag, w.Trace)
	if w.Ops == nil {
		SetLogger(nil)
		return
	}
	SetLogger(log.New(w.Ops, "", log.LstdFlags|log.Lmicroseconds).Printf)
}

// WritersForLevel enables the streams up to level ("ops", "diag" or "trace"),
// all writing to out. "off" disables everything.
func WritersForLevel(level string, out io.Writer) (LogWriters, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "off", "none":
		return LogWriters{}, nil
	case "ops", "":
		return LogWriters{Ops: out}, nil
	case "diag":
		return LogWriters{Ops: out, Diag: out}, nil
	case "trace":
		return LogWriters{Ops: out, Diag: out, Trace: out}, nil
	}
	return LogWriters{}, fmt.Errorf("unknown log level %q (want off, ops, diag or trace)", level)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/moriano/locones/internal/bus"
	"github.com/moriano/locones/internal/cartridge"
	"github.com/moriano/locones/internal/cpu"
	"github.com/moriano/locones/internal/trace"
)

// contextCheckInterval is how many instructions run between cancellation
// checks.
const contextCheckInterval = 4096

// SuiteError represents a suite that could not run to completion
type SuiteError struct {
	Suite     string
	Operation string
	Err       error
}

func (e *SuiteError) Error() string {
	return fmt.Sprintf("suite %s: %s: %v", e.Suite, e.Operation, e.Err)
}

func (e *SuiteError) Unwrap() error { return e.Err }

// Failure is a mismatch together with the instructions leading up to it.
type Failure struct {
	Mismatch *trace.Mismatch
	// Context holds the instructions executed before the mismatching one.
	Context []trace.Entry
}

// Result is the outcome of one suite.
type Result struct {
	Suite    SuiteConfig
	Steps    int
	Failures []Failure
	// Err is a fatal error that ended the run early.
	Err      error
	Duration time.Duration
}

// Passed reports a run with no mismatches and no fatal error.
func (r *Result) Passed() bool {
	return r.Err == nil && len(r.Failures) == 0
}

// Runner executes conformance suites, each on its own machine.
type Runner struct {
	config *Config

	mu       sync.Mutex
	traceOut io.Writer
}

// NewRunner creates a runner over a copy of config, so later changes to
// config do not affect suites in flight. Trace lines go to traceOut when
// enabled; nil means stdout.
func NewRunner(config *Config, traceOut io.Writer) *Runner {
	if traceOut == nil {
		traceOut = os.Stdout
	}
	return &Runner{config: config.Clone(), traceOut: traceOut}
}

// RunAll runs every configured suite, at most Run.Parallel at a time.
// Results are in configuration order. Only cancellation is returned as an
// error; suite failures are reported in the results.
func (r *Runner) RunAll(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(r.config.Suites))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Run.Parallel)

	for i, suite := range r.config.Suites {
		i, suite := i, suite
		g.Go(func() error {
			res, err := r.RunSuite(ctx, suite)
			results[i] = res
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

// RunSuite runs one suite against its reference log. The result is never
// nil; err is its fatal error if any.
func (r *Runner) RunSuite(ctx context.Context, suite SuiteConfig) (*Result, error) {
	start := time.Now()
	res := &Result{Suite: suite}
	defer func() { res.Duration = time.Since(start) }()

	fail := func(operation string, err error) (*Result, error) {
		res.Err = &SuiteError{Suite: suite.Name, Operation: operation, Err: err}
		glog.Errorf("%v", res.Err)
		return res, res.Err
	}

	glog.V(1).Infof("suite %s: rom=%s log=%s", suite.Name, suite.ROM, suite.Log)

	cart, err := cartridge.LoadFromFile(suite.ROM)
	if err != nil {
		return fail("load ROM", err)
	}
	logFile, err := os.Open(suite.Log)
	if err != nil {
		return fail("open log", err)
	}
	defer logFile.Close()
	reader := trace.NewReader(logFile)

	machine := bus.New()
	machine.SetHistory(r.config.Trace.Context + 1)
	if err := machine.LoadCartridge(cart); err != nil {
		return fail("reset", err)
	}
	if pc, ok, err := suite.EntryPoint(); err != nil {
		return fail("start address", err)
	} else if ok {
		machine.SetPC(pc)
	}

	opts := trace.CompareOptions{CheckPPU: suite.CheckPPU}
	for suite.MaxSteps == 0 || res.Steps < suite.MaxSteps {
		if res.Steps%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fail("run", err)
			}
		}

		expected, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail("read log", err)
		}

		actual, err := r.step(machine)
		if err != nil {
			return fail(fmt.Sprintf("step %d", res.Steps+1), err)
		}
		res.Steps = int(machine.Steps())

		if m := trace.Compare(expected, actual, opts); m != nil {
			history := machine.History()
			preceding := history[:len(history)-1]
			for i := range preceding {
				preceding[i] = r.rebase(preceding[i])
			}
			res.Failures = append(res.Failures, Failure{Mismatch: m, Context: preceding})
			glog.V(1).Infof("suite %s: %v", suite.Name, m)
			if r.config.Trace.StopOnMismatch {
				break
			}
		}
	}

	glog.V(1).Infof("suite %s: %d instructions, %d mismatches", suite.Name, res.Steps, len(res.Failures))
	return res, nil
}

// step runs one instruction and returns the state it started from.
func (r *Runner) step(machine *bus.Bus) (trace.Entry, error) {
	ppu := machine.GetPPUState()
	var listing cpu.Listing
	if r.config.Trace.PrintTrace {
		listing, _ = cpu.Disassemble(machine.Memory, machine.CPU.Registers())
	}

	exec, err := machine.Step()
	if err != nil {
		return trace.Entry{}, err
	}

	entry := r.rebase(trace.Observe(exec, ppu.Scanline, ppu.Cycle))

	if r.config.Trace.PrintTrace {
		r.mu.Lock()
		fmt.Fprintln(r.traceOut, trace.Format(entry, listing))
		r.mu.Unlock()
	}
	return entry, nil
}

// rebase shifts the cycle count of e to the reference log's reset
// convention.
func (r *Runner) rebase(e trace.Entry) trace.Entry {
	e.Cycles = e.Cycles - cpu.ResetCycles + r.config.Run.ResetCycles
	return e
}

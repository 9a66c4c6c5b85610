// Package experiment builds a solver from a scene configuration and runs it
// frame by frame.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/emitter"
	"github.com/san-kum/flipsim/internal/grid"
	"github.com/san-kum/flipsim/internal/metrics"
	"github.com/san-kum/flipsim/internal/pressure"
	"github.com/san-kum/flipsim/internal/surface"
)

// Simulation is the solver surface an experiment drives. Both
// *solver.PICSolver and *solver.FLIPSolver satisfy it.
type Simulation interface {
	metrics.State
	Update(frame dynamo.Frame) error
	CurrentTime() float64
	Context() *dynamo.Context
	GridSystemData() *grid.SystemData
	SetEmitter(e emitter.Emitter)
	SetCollider(c surface.Collider)
	SetPressureSolver(p pressure.Solver)
	PressureSolver() pressure.Solver
}

// Observer sees every frame after its metrics are taken. Returning an
// error stops the run.
type Observer func(snap metrics.Snapshot, sim Simulation) error

type Result struct {
	Frames    int
	Snapshots []metrics.Snapshot
	Elapsed   time.Duration
}

// Final is the last snapshot, or the zero value for an empty run.
func (r *Result) Final() metrics.Snapshot {
	if len(r.Snapshots) == 0 {
		return metrics.Snapshot{}
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

// Series returns the history of one metric.
func (r *Result) Series(name string) []float64 {
	out := make([]float64, 0, len(r.Snapshots))
	for _, s := range r.Snapshots {
		if v, ok := s.Get(name); ok {
			out = append(out, v)
		}
	}
	return out
}

type Experiment struct {
	cfg     *config.Config
	sim     Simulation
	metrics []metrics.Metric
	logger  *slog.Logger
}

// New builds the scene described by cfg with the solvers in reg.
func New(cfg *config.Config, reg *Registry, logger *slog.Logger) (*Experiment, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sim, err := reg.Build(cfg)
	if err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:     cfg,
		sim:     sim,
		metrics: metrics.Defaults(),
		logger:  logger,
	}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulation returns the underlying solver for adding colliders or
// inspecting state.
func (e *Experiment) GetSimulation() Simulation { return e.sim }

// SetMetrics replaces the default metric set.
func (e *Experiment) SetMetrics(ms []metrics.Metric) { e.metrics = ms }

// Run advances cfg.Run.Frames frames. On cancellation it returns the
// frames completed so far together with ctx.Err().
func (e *Experiment) Run(ctx context.Context, observe Observer) (*Result, error) {
	for _, m := range e.metrics {
		m.Reset()
	}

	frames := e.cfg.Run.Frames
	result := &Result{Snapshots: make([]metrics.Snapshot, 0, frames)}
	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	e.logger.Info("run started",
		slog.String("scene", e.cfg.Scene.Name),
		slog.String("solver", e.cfg.Solver.Kind),
		slog.String("pressure", e.cfg.Solver.Pressure),
		slog.String("linear_solver", e.cfg.Solver.LinearSolver),
		slog.Int("frames", frames),
	)

	frame := dynamo.NewFrame(e.cfg.Run.FPS)
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		frame.Advance()
		if err := e.sim.Update(frame); err != nil {
			return result, err
		}

		snap := metrics.Take(frame.Index, e.sim.CurrentTime(), e.sim, e.metrics)
		result.Snapshots = append(result.Snapshots, snap)
		result.Frames++
		e.logger.Debug("frame", slog.Any("stats", snap))

		if observe != nil {
			if err := observe(snap, e.sim); err != nil {
				return result, fmt.Errorf("observer at frame %d: %w", frame.Index, err)
			}
		}
	}

	e.logger.Info("run finished",
		slog.Int("frames", result.Frames),
		slog.Duration("elapsed", time.Since(start)),
		slog.Any("final", result.Final()),
	)
	return result, nil
}

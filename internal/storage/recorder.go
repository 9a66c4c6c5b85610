package storage

import (
	"fmt"

	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/experiment"
	"github.com/san-kum/flipsim/internal/metrics"
)

// Observer appends every frame to frames.csv. When every is positive it
// also dumps particle positions and the liquid level set on frames that are
// a multiple of every.
func (r *Run) Observer(every int) experiment.Observer {
	return func(snap metrics.Snapshot, sim experiment.Simulation) error {
		if err := r.WriteFrame(RecordFrom(snap)); err != nil {
			return err
		}
		if every <= 0 || snap.Frame%every != 0 {
			return nil
		}
		if err := r.WriteParticles(snap.Frame, sim.ParticleSystemData().Positions()); err != nil {
			return fmt.Errorf("particle dump: %w", err)
		}
		if sdf := sim.SignedDistanceField(); sdf != nil {
			if err := r.WriteGrid(snap.Frame, "sdf", sdf); err != nil {
				return fmt.Errorf("sdf dump: %w", err)
			}
		}
		return nil
	}
}

// Metadata summarizes a finished run of cfg.
func Metadata(cfg *config.Config, result *experiment.Result) RunMetadata {
	final := result.Final()
	values := make(map[string]float64, len(final.Names))
	for i, name := range final.Names {
		values[name] = final.Values[i]
	}
	return RunMetadata{
		Scene:        cfg.Scene.Name,
		Solver:       cfg.Solver.Kind,
		Pressure:     cfg.Solver.Pressure,
		LinearSolver: cfg.Solver.LinearSolver,
		Resolution:   cfg.Grid.Resolution,
		Spacing:      cfg.Spacing(),
		FPS:          cfg.Run.FPS,
		Frames:       result.Frames,
		Elapsed:      result.Elapsed.Seconds(),
		Metrics:      values,
	}
}

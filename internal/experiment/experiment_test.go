package experiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/metrics"
	"github.com/san-kum/flipsim/internal/solver"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func smallScene(t *testing.T, name string) *config.Config {
	t.Helper()
	cfg := config.GetPreset(name)
	if cfg == nil {
		t.Fatalf("missing preset %s", name)
	}
	cfg.Grid.Resolution = [3]int{8, 8, 8}
	cfg.Run.Frames = 3
	return cfg
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if got := r.ListScenes(); len(got) != 3 {
		t.Errorf("expected 3 scenes, got %v", got)
	}
	if got := r.ListLinearSolvers(); len(got) != 5 {
		t.Errorf("expected 5 linear solvers, got %v", got)
	}
	if got := r.ListPressureSolvers(); len(got) != 2 {
		t.Errorf("expected 2 pressure solvers, got %v", got)
	}

	if _, err := r.GetScene("tsunami"); !errors.Is(err, dynamo.ErrUnknownScene) {
		t.Errorf("expected ErrUnknownScene, got %v", err)
	}
	if _, err := r.GetPressureSolver(dynamo.NewContext(1), "spectral"); !errors.Is(err, dynamo.ErrUnknownSolver) {
		t.Errorf("expected ErrUnknownSolver, got %v", err)
	}

	r.RegisterScene("custom", func() *config.Config { return config.GetPreset("column") })
	if _, err := r.GetScene("custom"); err != nil {
		t.Errorf("registered scene missing: %v", err)
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		shape config.ShapeConfig
		ok    bool
	}{
		{config.ShapeConfig{Type: "box", Upper: [3]float64{1, 1, 1}}, true},
		{config.ShapeConfig{Type: "sphere", Radius: 0.5}, true},
		{config.ShapeConfig{Type: "sphere"}, false},
		{config.ShapeConfig{Type: "plane", Normal: [3]float64{0, 1, 0}}, true},
		{config.ShapeConfig{Type: "plane"}, false},
		{config.ShapeConfig{Type: "cone"}, false},
	}
	for _, tt := range tests {
		_, err := Shape(tt.shape)
		if (err == nil) != tt.ok {
			t.Errorf("%+v: ok=%v, err=%v", tt.shape, tt.ok, err)
		}
	}
}

func TestBuild(t *testing.T) {
	r := NewRegistry()

	cfg := smallScene(t, "dam_break")
	cfg.Solver.Kind = "pic"
	sim, err := r.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sim.(*solver.PICSolver); !ok {
		t.Errorf("expected *solver.PICSolver, got %T", sim)
	}

	cfg = smallScene(t, "column")
	cfg.Solver.Pressure = "blocked"
	cfg.Solver.LinearSolver = "multigrid"
	sim, err = r.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	flip, ok := sim.(*solver.FLIPSolver)
	if !ok {
		t.Fatalf("expected *solver.FLIPSolver, got %T", sim)
	}
	if flip.Collider() == nil {
		t.Error("expected collider from the column scene")
	}

	cfg = smallScene(t, "dam_break")
	cfg.Solver.ClosedDomain = []string{"sideways"}
	if _, err := r.Build(cfg); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRun(t *testing.T) {
	for _, name := range config.ListPresets() {
		cfg := smallScene(t, name)
		exp, err := New(cfg, NewRegistry(), quiet)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		observed := 0
		result, err := exp.Run(context.Background(), func(snap metrics.Snapshot, sim Simulation) error {
			observed++
			if snap.Frame != observed-1 {
				t.Errorf("%s: frame %d observed as #%d", name, snap.Frame, observed)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if result.Frames != 3 || observed != 3 {
			t.Errorf("%s: expected 3 frames, got %d (observed %d)", name, result.Frames, observed)
		}
		if n, _ := result.Final().Get("particles"); n <= 0 {
			t.Errorf("%s: no particles emitted", name)
		}
		if len(result.Series("kinetic_energy")) != 3 {
			t.Errorf("%s: expected 3 energy samples", name)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	exp, err := New(smallScene(t, "dam_break"), NewRegistry(), quiet)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := exp.Run(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result.Frames != 0 {
		t.Errorf("expected no frames, got %d", result.Frames)
	}
}

func TestRunObserverStops(t *testing.T) {
	exp, err := New(smallScene(t, "dam_break"), NewRegistry(), quiet)
	if err != nil {
		t.Fatal(err)
	}
	stop := errors.New("stop")
	result, err := exp.Run(context.Background(), func(metrics.Snapshot, Simulation) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("expected observer error, got %v", err)
	}
	if result.Frames != 1 {
		t.Errorf("expected 1 frame, got %d", result.Frames)
	}
}

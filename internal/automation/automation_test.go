package automation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/experiment"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func tinyScene(name string) *config.Config {
	cfg := config.GetPreset(name)
	cfg.Grid.Resolution = [3]int{6, 6, 6}
	cfg.Run.Frames = 2
	return cfg
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	doc := `name: compare
steps:
  - scene: dam_break
    solver: pic
    resolution: 6
    frames: 2
  - scene: dam_break
    solver: flip
    resolution: 6
    frames: 2
    save_as: flip
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Steps) != 2 || sc.Steps[1].SaveAs != "flip" {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Label != "dam_break#1" || results[1].Label != "flip" {
		t.Errorf("unexpected labels %q %q", results[0].Label, results[1].Label)
	}
	for _, r := range results {
		if r.Frames != 2 {
			t.Errorf("%s: expected 2 frames, got %d", r.Label, r.Frames)
		}
	}
}

func TestLoadScenarioEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("name: nothing\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(path); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRunScenarioUnknownScene(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{{Scene: "lava"}}}
	_, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), quiet)
	if !errors.Is(err, dynamo.ErrUnknownScene) {
		t.Errorf("expected ErrUnknownScene, got %v", err)
	}
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{
		Base:      tinyScene("dam_break"),
		ParamName: "pic_blending",
		ParamMin:  0,
		ParamMax:  1,
		NumSteps:  3,
	}
	results, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), quiet)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0.5, 1}
	for i, r := range results {
		if r.Value != want[i] {
			t.Errorf("point %d: expected %g, got %g", i, want[i], r.Value)
		}
	}
	if sweep.Base.Solver.PICBlending != 0.05 {
		t.Errorf("sweep modified the base config: %g", sweep.Base.Solver.PICBlending)
	}

	sweep.ParamName = "gravity"
	if _, err := RunSweep(context.Background(), sweep, experiment.NewRegistry(), quiet); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRunEnsemble(t *testing.T) {
	cfg := &EnsembleConfig{
		Base:      tinyScene("dam_break"),
		NumTrials: 3,
		Jitter:    0.5,
		SeedStart: 11,
		Workers:   2,
	}
	results, err := RunEnsemble(context.Background(), cfg, experiment.NewRegistry(), quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.TrialID != i || r.Seed != int64(11+i) {
			t.Errorf("trial %d: unexpected %+v", i, r)
		}
	}
	stable, unstable := EnsembleStats(results)
	if stable != 3 || unstable != 0 {
		t.Errorf("expected 3 stable trials, got %d/%d", stable, unstable)
	}
	if cfg.Base.Scene.Emitters[0].Seed != 0 {
		t.Error("ensemble modified the base emitters")
	}
}

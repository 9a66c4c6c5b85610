package optim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/experiment"
)

func TestNewGridSearchValidates(t *testing.T) {
	if _, err := NewGridSearch([]string{"pic_blending"}, nil); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for missing ranges, got %v", err)
	}
	if _, err := NewGridSearch([]string{"gravity"}, [][]float64{{1}}); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unknown param, got %v", err)
	}
	if _, err := NewGridSearch([]string{"viscosity"}, [][]float64{{}}); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty range, got %v", err)
	}
}

func TestGridSearch(t *testing.T) {
	gs, err := NewGridSearch(
		[]string{"pic_blending", "max_cfl"},
		[][]float64{{0, 1}, {2, 5}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if gs.Combinations() != 4 {
		t.Fatalf("expected 4 combinations, got %d", gs.Combinations())
	}

	base := config.GetPreset("dam_break")
	base.Grid.Resolution = [3]int{6, 6, 6}
	base.Run.Frames = 2
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	best, trials, err := gs.Search(context.Background(), base, experiment.NewRegistry(), logger, "kinetic_energy")
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 4 {
		t.Fatalf("expected 4 trials, got %d", len(trials))
	}
	for _, tr := range trials {
		if tr.Value < best.Value {
			t.Errorf("trial %v beats best %v", tr, best)
		}
	}
	if trials[0].Params["pic_blending"] != 0 || trials[0].Params["max_cfl"] != 2 {
		t.Errorf("unexpected visiting order: %v", trials[0].Params)
	}
	if base.Solver.PICBlending != 0.05 {
		t.Error("search modified the base config")
	}
}

func TestGridSearchUnknownMetric(t *testing.T) {
	gs, err := NewGridSearch([]string{"viscosity"}, [][]float64{{0}})
	if err != nil {
		t.Fatal(err)
	}
	base := config.GetPreset("dam_break")
	base.Grid.Resolution = [3]int{6, 6, 6}
	base.Run.Frames = 1
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, _, err := gs.Search(context.Background(), base, experiment.NewRegistry(), logger, "vorticity"); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestGridSearchCancelled(t *testing.T) {
	gs, err := NewGridSearch([]string{"viscosity"}, [][]float64{{0, 0.1}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, trials, err := gs.Search(ctx, config.GetPreset("dam_break"), experiment.NewRegistry(), nil, "kinetic_energy")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(trials) != 0 {
		t.Errorf("expected no trials, got %d", len(trials))
	}
}

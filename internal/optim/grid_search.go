// Package optim searches solver parameters for the best value of a run
// metric.
package optim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/flipsim/internal/automation"
	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/experiment"
)

// GridSearch tries every combination of the candidate values and keeps
// the one minimizing a metric of the final frame.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// NewGridSearch pairs each parameter name with its candidate values.
// Names are those accepted by automation.SetParam.
func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters with %d ranges: %w", len(params), len(ranges), dynamo.ErrInvalidArgument)
	}
	probe := config.DefaultConfig()
	for i, name := range params {
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("parameter %q has no values: %w", name, dynamo.ErrInvalidArgument)
		}
		if err := automation.SetParam(probe, name, ranges[i][0]); err != nil {
			return nil, err
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Trial is one evaluated combination.
type Trial struct {
	Params map[string]float64
	Value  float64
}

// Combinations is the number of runs Search performs.
func (g *GridSearch) Combinations() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs base once per combination and returns the best trial and
// every trial in visiting order. Combinations whose metric is NaN never
// win.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	registry *experiment.Registry,
	logger *slog.Logger,
	metricName string,
) (Trial, []Trial, error) {
	best := Trial{Value: math.Inf(1)}
	trials := make([]Trial, 0, g.Combinations())

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		cfg := base.Clone()
		for name, v := range params {
			if err := automation.SetParam(cfg, name, v); err != nil {
				return err
			}
		}
		exp, err := experiment.New(cfg, registry, logger)
		if err != nil {
			return err
		}
		result, err := exp.Run(ctx, nil)
		if err != nil {
			return fmt.Errorf("%v: %w", params, err)
		}

		val, ok := result.Final().Get(metricName)
		if !ok {
			return fmt.Errorf("metric %q: %w", metricName, dynamo.ErrInvalidArgument)
		}
		trial := Trial{Params: params, Value: val}
		trials = append(trials, trial)
		if val < best.Value {
			best = trial
		}
		return nil
	})
	return best, trials, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	evaluate func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return evaluate(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, evaluate); err != nil {
			return err
		}
	}
	return nil
}

// Package automation runs batches of scenes: scripted scenarios, parameter
// sweeps and seeded ensembles.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/dynamo"
	"github.com/san-kum/flipsim/internal/experiment"
	"github.com/san-kum/flipsim/internal/metrics"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a registered scene and overrides the listed
// settings. Zero values keep the scene's setting.
type ScenarioStep struct {
	Scene        string  `yaml:"scene"`
	Solver       string  `yaml:"solver"`
	Pressure     string  `yaml:"pressure"`
	LinearSolver string  `yaml:"linear_solver"`
	Resolution   int     `yaml:"resolution"`
	Frames       int     `yaml:"frames"`
	PICBlending  float64 `yaml:"pic_blending"`
	Viscosity    float64 `yaml:"viscosity"`
	SaveAs       string  `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step or sweep point.
type StepResult struct {
	Label  string
	Value  float64
	Frames int
	Final  metrics.Snapshot
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps: %w", scenario.Name, dynamo.ErrInvalidArgument)
	}
	return &scenario, nil
}

func (s ScenarioStep) apply(cfg *config.Config) {
	if s.Solver != "" {
		cfg.Solver.Kind = s.Solver
	}
	if s.Pressure != "" {
		cfg.Solver.Pressure = s.Pressure
	}
	if s.LinearSolver != "" {
		cfg.Solver.LinearSolver = s.LinearSolver
	}
	if s.Resolution > 0 {
		cfg.Grid.Resolution = [3]int{s.Resolution, s.Resolution, s.Resolution}
	}
	if s.Frames > 0 {
		cfg.Run.Frames = s.Frames
	}
	if s.PICBlending > 0 {
		cfg.Solver.PICBlending = s.PICBlending
	}
	if s.Viscosity > 0 {
		cfg.Solver.Viscosity = s.Viscosity
	}
}

func run(ctx context.Context, cfg *config.Config, registry *experiment.Registry, logger *slog.Logger) (*experiment.Result, error) {
	exp, err := experiment.New(cfg, registry, logger)
	if err != nil {
		return nil, err
	}
	return exp.Run(ctx, nil)
}

// RunScenario executes the steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("scenario step", slog.Int("step", i+1), slog.Int("of", len(scenario.Steps)), slog.String("scene", step.Scene))

		cfg, err := registry.GetScene(step.Scene)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		step.apply(cfg)

		result, err := run(ctx, cfg, registry, logger)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		label := step.SaveAs
		if label == "" {
			label = fmt.Sprintf("%s#%d", step.Scene, i+1)
		}
		results = append(results, StepResult{Label: label, Frames: result.Frames, Final: result.Final()})
	}
	return results, nil
}

// sweepParams maps a parameter name to its setter.
var sweepParams = map[string]func(*config.Config, float64){
	"pic_blending": func(c *config.Config, v float64) { c.Solver.PICBlending = v },
	"viscosity":    func(c *config.Config, v float64) { c.Solver.Viscosity = v },
	"max_cfl":      func(c *config.Config, v float64) { c.Solver.MaxCFL = v },
	"tolerance":    func(c *config.Config, v float64) { c.Solver.Tolerance = v },
}

// SweepParams lists the names RunSweep accepts.
func SweepParams() []string {
	names := make([]string, 0, len(sweepParams))
	for name := range sweepParams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetParam assigns one named sweep parameter on cfg.
func SetParam(cfg *config.Config, name string, value float64) error {
	set, ok := sweepParams[name]
	if !ok {
		return fmt.Errorf("sweep parameter %q: %w", name, dynamo.ErrInvalidArgument)
	}
	set(cfg, value)
	return nil
}

// ParameterSweep runs Base once per evenly spaced value of ParamName in
// [ParamMin, ParamMax].
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *slog.Logger) ([]StepResult, error) {
	set, ok := sweepParams[sweep.ParamName]
	if !ok {
		return nil, fmt.Errorf("sweep parameter %q: %w", sweep.ParamName, dynamo.ErrInvalidArgument)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep steps %d: %w", sweep.NumSteps, dynamo.ErrInvalidArgument)
	}
	if logger == nil {
		logger = slog.Default()
	}

	step := 0.0
	if sweep.NumSteps > 1 {
		step = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]StepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		value := sweep.ParamMin + float64(i)*step
		cfg := sweep.Base.Clone()
		set(cfg, value)

		result, err := run(ctx, cfg, registry, logger)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, value, err)
		}
		results = append(results, StepResult{
			Label:  sweep.ParamName,
			Value:  value,
			Frames: result.Frames,
			Final:  result.Final(),
		})
		logger.Info("sweep point", slog.Int("point", i+1), slog.Int("of", sweep.NumSteps), slog.Float64(sweep.ParamName, value))
	}
	return results, nil
}

// EnsembleConfig reruns Base with jittered emitters, one seed per trial.
type EnsembleConfig struct {
	Base      *config.Config
	NumTrials int
	Jitter    float64
	SeedStart int64
	// Workers caps concurrent trials. Zero runs them all at once.
	Workers int
}

type EnsembleResult struct {
	TrialID int
	Seed    int64
	Final   metrics.Snapshot
	// Stable is false when kinetic energy became non-finite.
	Stable bool
}

// RunEnsemble runs the trials concurrently. Each trial gets its own
// solver with a single worker thread.
func RunEnsemble(ctx context.Context, cfg *EnsembleConfig, registry *experiment.Registry, logger *slog.Logger) ([]EnsembleResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("ensemble trials %d: %w", cfg.NumTrials, dynamo.ErrInvalidArgument)
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]EnsembleResult, cfg.NumTrials)
	g, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		trial := trial
		seed := cfg.SeedStart + int64(trial)
		trialCfg := cfg.Base.Clone()
		trialCfg.Solver.Threads = 1
		for i := range trialCfg.Scene.Emitters {
			trialCfg.Scene.Emitters[i].Jitter = cfg.Jitter
			trialCfg.Scene.Emitters[i].Seed = seed
		}

		g.Go(func() error {
			result, err := run(ctx, trialCfg, registry, logger)
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}
			final := result.Final()
			ke, _ := final.Get("kinetic_energy")
			results[trial] = EnsembleResult{
				TrialID: trial,
				Seed:    seed,
				Final:   final,
				Stable:  dynamo.IsFinite(ke),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EnsembleStats counts stable and unstable trials.
func EnsembleStats(results []EnsembleResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

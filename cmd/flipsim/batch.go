package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/flipsim/internal/automation"
	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/experiment"
	"github.com/san-kum/flipsim/internal/metrics"
	"github.com/spf13/cobra"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	trials    int
	jitter    float64
	seedStart int64
	workers   int
)

func batchCommand() *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "run scenarios, sweeps and ensembles",
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario (yaml)",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "sweep one solver parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "pic_blending", fmt.Sprintf("parameter %v", automation.SweepParams()))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&frames, "frames", 0, "frames per run")
	sweepCmd.Flags().IntVar(&resolution, "resolution", 0, "cubic grid resolution")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [scene]",
		Short: "rerun a scene with jittered emitters",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	ensembleCmd.Flags().IntVar(&trials, "trials", 8, "number of trials")
	ensembleCmd.Flags().Float64Var(&jitter, "jitter", 0.5, "emitter jitter in [0, 1]")
	ensembleCmd.Flags().Int64Var(&seedStart, "seed", 1, "seed of the first trial")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "concurrent trials (0 runs all at once)")
	ensembleCmd.Flags().IntVar(&frames, "frames", 0, "frames per run")
	ensembleCmd.Flags().IntVar(&resolution, "resolution", 0, "cubic grid resolution")

	batchCmd.AddCommand(scenarioCmd, sweepCmd, ensembleCmd)
	return batchCmd
}

func scaledScene(cmd *cobra.Command, registry *experiment.Registry, name string) (*config.Config, error) {
	cfg, err := registry.GetScene(name)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("frames") {
		cfg.Run.Frames = frames
	}
	if cmd.Flags().Changed("resolution") {
		cfg.Grid.Resolution = [3]int{resolution, resolution, resolution}
	}
	return cfg, cfg.Validate()
}

func printResults(label string, results []automation.StepResult) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFRAMES\tPARTICLES\tKINETIC\tDRIFT\tMAX DIV\n", label)
	for _, r := range results {
		name := r.Label
		if label == "VALUE" {
			name = fmt.Sprintf("%.4g", r.Value)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", name, r.Frames,
			metric(r.Final, "particles"), metric(r.Final, "kinetic_energy"),
			metric(r.Final, "energy_drift"), metric(r.Final, "max_divergence"))
	}
	return w.Flush()
}

func metric(snap metrics.Snapshot, name string) string {
	v, ok := snap.Get(name)
	if !ok {
		return "-"
	}
	if name == "particles" {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.4g", v)
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx, stop := signalContext()
	defer stop()

	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry(), logger)
	if len(results) > 0 {
		if perr := printResults("STEP", results); perr != nil {
			return perr
		}
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	base, err := scaledScene(cmd, registry, args[0])
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx, stop := signalContext()
	defer stop()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      base,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}, registry, logger)
	if len(results) > 0 {
		fmt.Printf("sweep of %s on %s\n\n", sweepParam, args[0])
		if perr := printResults("VALUE", results); perr != nil {
			return perr
		}
	}
	return err
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	base, err := scaledScene(cmd, registry, args[0])
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx, stop := signalContext()
	defer stop()

	results, err := automation.RunEnsemble(ctx, &automation.EnsembleConfig{
		Base:      base,
		NumTrials: trials,
		Jitter:    jitter,
		SeedStart: seedStart,
		Workers:   workers,
	}, registry, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tPARTICLES\tKINETIC\tMAX DIV\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%v\n", r.TrialID, r.Seed,
			metric(r.Final, "particles"), metric(r.Final, "kinetic_energy"),
			metric(r.Final, "max_divergence"), r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	stable, unstable := automation.EnsembleStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	return nil
}

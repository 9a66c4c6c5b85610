package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/flipsim/internal/experiment"
	"github.com/san-kum/flipsim/internal/optim"
	"github.com/spf13/cobra"
)

var (
	tuneParams []string
	tuneMetric string
)

func tuneCommand() *cobra.Command {
	tuneCmd := &cobra.Command{
		Use:     "tune [scene]",
		Short:   "grid search solver parameters for the lowest final metric",
		Example: `  flipsim tune dam_break --param pic_blending=0,0.05,0.2 --param max_cfl=2,5 --metric max_divergence`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTune,
	}
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_divergence", "metric to minimize")
	tuneCmd.Flags().IntVar(&frames, "frames", 0, "frames per run")
	tuneCmd.Flags().IntVar(&resolution, "resolution", 0, "cubic grid resolution")
	return tuneCmd
}

func parseParamRange(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("--param %q: want name=v1,v2", s)
	}
	var values []float64
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return "", nil, fmt.Errorf("--param %q: %w", s, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}
	names := make([]string, 0, len(tuneParams))
	ranges := make([][]float64, 0, len(tuneParams))
	for _, p := range tuneParams {
		name, values, err := parseParamRange(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

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

	fmt.Printf("searching %d combinations on %s for the lowest %s\n\n", gs.Combinations(), args[0], tuneMetric)
	best, trials, err := gs.Search(ctx, base, registry, logger, tuneMetric)
	if err != nil {
		return err
	}

	sort.Slice(trials, func(i, j int) bool { return trials[i].Value < trials[j].Value })
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(tuneMetric))
	for _, tr := range trials {
		for _, name := range names {
			fmt.Fprintf(w, "%g\t", tr.Params[name])
		}
		fmt.Fprintf(w, "%.4g\n", tr.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: %v (%s = %.4g)\n", best.Params, tuneMetric, best.Value)
	return nil
}

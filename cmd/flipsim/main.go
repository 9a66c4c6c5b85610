package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/san-kum/flipsim/internal/config"
	"github.com/san-kum/flipsim/internal/experiment"
	"github.com/san-kum/flipsim/internal/export"
	"github.com/san-kum/flipsim/internal/storage"
	"github.com/san-kum/flipsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool
	logFile string

	configFile   string
	frames       int
	resolution   int
	solverKind   string
	pressureKind string
	linearSolver string
	picBlending  float64
	threads      int
	outputEvery  int
	live         bool
	noSave       bool
	theme        string

	plotMetric string
	plotWidth  int
	plotHeight int

	benchFrames int

	svgFrame  int
	svgView   string
	svgMetric string
	svgOut    string
	svgWidth  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "flipsim",
		Short:        "hybrid particle/grid fluid simulator",
		SilenceUsage: true,
		RunE:         runInteractive,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".flipsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "ocean", "color theme")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and store its frames",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().IntVar(&frames, "frames", 0, "number of frames")
	runCmd.Flags().IntVar(&resolution, "resolution", 0, "cubic grid resolution")
	runCmd.Flags().StringVar(&solverKind, "solver", "", "pic or flip")
	runCmd.Flags().StringVar(&pressureKind, "pressure", "", "fractional or blocked")
	runCmd.Flags().StringVar(&linearSolver, "linear-solver", "", "iccg, cg, jacobi, gauss_seidel or multigrid")
	runCmd.Flags().Float64Var(&picBlending, "pic-blending", -1, "FLIP to PIC blending factor in [0, 1]")
	runCmd.Flags().IntVar(&threads, "threads", 0, "worker threads (0 uses every CPU)")
	runCmd.Flags().IntVar(&outputEvery, "output-every", -1, "dump particles and level set every n frames")
	runCmd.Flags().BoolVar(&live, "live", false, "show the run in a terminal UI")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write a run directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot metric histories of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotMetric, "metric", "", "plot only this metric")
	plotCmd.Flags().IntVar(&plotWidth, "width", 70, "chart width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "chart height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [dump]",
		Short: "summarize a particle or grid dump",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectDump,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenes and solver choices",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "time PIC and FLIP at several resolutions",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScene,
	}
	benchCmd.Flags().IntVar(&benchFrames, "frames", 10, "frames per measurement")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render a particle dump or a metric history as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSVG,
	}
	svgCmd.Flags().IntVar(&svgFrame, "frame", 0, "dumped frame to render")
	svgCmd.Flags().StringVar(&svgView, "view", "side", "side or top")
	svgCmd.Flags().StringVar(&svgMetric, "metric", "", "render this metric history instead of particles")
	svgCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default stdout)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 600, "image width")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, inspectCmd, svgCmd, presetsCmd, benchCmd, tuneCommand(), batchCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger writes text logs to stderr or --log-file. quiet discards them
// unless --log-file is set, so a full-screen UI is not overwritten.
func newLogger(quiet bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var out io.Writer = os.Stderr
	closer := func() {}
	switch {
	case logFile != "":
		f, err := os.Create(logFile)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, func() { f.Close() }
	case quiet:
		out = io.Discard
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closer, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// loadConfig resolves the scene argument or --config, then applies the
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command, args []string, registry *experiment.Registry) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case configFile != "":
		cfg, err = config.Load(configFile)
	case len(args) > 0:
		cfg, err = registry.GetScene(args[0])
	default:
		cfg, err = registry.GetScene("dam_break")
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Run.Frames = frames
	}
	if flags.Changed("resolution") {
		cfg.Grid.Resolution = [3]int{resolution, resolution, resolution}
	}
	if flags.Changed("solver") {
		cfg.Solver.Kind = solverKind
	}
	if flags.Changed("pressure") {
		cfg.Solver.Pressure = pressureKind
	}
	if flags.Changed("linear-solver") {
		cfg.Solver.LinearSolver = linearSolver
	}
	if flags.Changed("pic-blending") {
		cfg.Solver.PICBlending = picBlending
	}
	if flags.Changed("threads") {
		cfg.Solver.Threads = threads
	}
	if flags.Changed("output-every") {
		cfg.Run.OutputEvery = outputEvery
	}
	return cfg, cfg.Validate()
}

func runScene(cmd *cobra.Command, args []string) error {
	viz.SetTheme(theme)
	registry := experiment.NewRegistry()
	cfg, err := loadConfig(cmd, args, registry)
	if err != nil {
		return err
	}
	return execute(cfg, registry, live, !noSave)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	viz.SetTheme(theme)
	registry := experiment.NewRegistry()
	choice, err := viz.RunPicker(registry.ListScenes())
	if err != nil {
		return err
	}
	if !choice.Confirmed {
		return nil
	}
	cfg, err := registry.GetScene(choice.Scene)
	if err != nil {
		return err
	}
	choice.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return execute(cfg, registry, true, true)
}

// execute runs cfg, optionally behind the live view, and stores the result.
func execute(cfg *config.Config, registry *experiment.Registry, showLive, save bool) error {
	logger, closeLog, err := newLogger(showLive)
	if err != nil {
		return err
	}
	defer closeLog()

	exp, err := experiment.New(cfg, registry, logger)
	if err != nil {
		return err
	}

	var run *storage.Run
	var observe experiment.Observer
	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		run, err = st.Create(cfg)
		if err != nil {
			return err
		}
		observe = run.Observer(cfg.Run.OutputEvery)
	}

	ctx, stop := signalContext()
	defer stop()

	var result *experiment.Result
	if showLive {
		result, err = viz.Follow(ctx, exp, observe)
	} else {
		result, err = exp.Run(ctx, observe)
	}
	stopped := errors.Is(err, context.Canceled)
	if err != nil && !stopped {
		if run != nil && result != nil {
			_ = run.Finish(storage.Metadata(cfg, result))
		}
		return err
	}

	if run != nil {
		if err := run.Finish(storage.Metadata(cfg, result)); err != nil {
			return err
		}
	}

	title := fmt.Sprintf("%s · %s · %d frames in %v", cfg.Scene.Name, cfg.Solver.Kind, result.Frames, result.Elapsed.Round(time.Millisecond))
	if stopped {
		title += " (stopped)"
	}
	fmt.Println(viz.Summary(title, result.Final()))
	if run != nil {
		fmt.Printf("run id: %s\n", run.ID)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tSOLVER\tPRESSURE\tGRID\tFRAMES\tTIME\tELAPSED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s/%s\t%dx%dx%d\t%d\t%s\t%.2fs\n",
			run.ID,
			run.Scene,
			run.Solver,
			run.Pressure,
			run.LinearSolver,
			run.Resolution[0], run.Resolution[1], run.Resolution[2],
			run.Frames,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Elapsed,
		)
	}
	return w.Flush()
}

func frameSeries(records []storage.FrameRecord) map[string][]float64 {
	series := make(map[string][]float64)
	for _, r := range records {
		series["particles"] = append(series["particles"], float64(r.Particles))
		series["kinetic_energy"] = append(series["kinetic_energy"], r.KineticEnergy)
		series["energy_drift"] = append(series["energy_drift"], r.EnergyDrift)
		series["max_divergence"] = append(series["max_divergence"], r.MaxDivergence)
		series["pressure_residual"] = append(series["pressure_residual"], r.PressureResidual)
		series["pressure_iterations"] = append(series["pressure_iterations"], float64(r.PressureIterations))
	}
	return series
}

func plotRun(cmd *cobra.Command, args []string) error {
	viz.SetTheme(theme)
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("run %s has no frames", args[0])
	}

	series := frameSeries(records)
	names := make([]string, 0, len(series))
	if plotMetric != "" {
		if _, ok := series[plotMetric]; !ok {
			return fmt.Errorf("unknown metric %q", plotMetric)
		}
		names = append(names, plotMetric)
	} else {
		for name := range series {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	fmt.Printf("run: %s\nscene: %s (%s)\nframes: %d\n\n", meta.ID, meta.Scene, meta.Solver, len(records))
	fmt.Println(viz.PlotAll(names, series, viz.PlotOptions{Width: plotWidth, Height: plotHeight}))
	return nil
}

func inspectDump(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	// Grid dumps carry a header that particle dumps lack, so try the grid
	// layout first and fall back.
	if g, err := storage.ReadGrid(f); err == nil && len(g.Data) > 0 {
		lo, hi := g.Data[0], g.Data[0]
		inside := 0
		for _, v := range g.Data {
			lo, hi = min(lo, v), max(hi, v)
			if v < 0 {
				inside++
			}
		}
		fmt.Printf("grid %dx%dx%d spacing %v origin %v\n", g.Resolution.X, g.Resolution.Y, g.Resolution.Z, g.Spacing, g.Origin)
		fmt.Printf("range [%g, %g], %d negative samples\n", lo, hi, inside)
		return nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	pos, err := storage.ReadParticles(f)
	if err != nil {
		return fmt.Errorf("%s is neither a grid nor a particle dump: %w", args[0], err)
	}
	fmt.Printf("%d particles\n", len(pos))
	if len(pos) == 0 {
		return nil
	}
	lo, hi := pos[0], pos[0]
	for _, p := range pos {
		lo.X, lo.Y, lo.Z = min(lo.X, p.X), min(lo.Y, p.Y), min(lo.Z, p.Z)
		hi.X, hi.Y, hi.Z = max(hi.X, p.X), max(hi.Y, p.Y), max(hi.Z, p.Z)
	}
	fmt.Printf("bounds %v - %v\n", lo, hi)
	return nil
}

func renderSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	out := io.Writer(os.Stdout)
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if svgMetric != "" {
		records, err := st.LoadFrames(args[0])
		if err != nil {
			return err
		}
		values, ok := frameSeries(records)[svgMetric]
		if !ok {
			return fmt.Errorf("unknown metric %q", svgMetric)
		}
		_, err = io.WriteString(out, export.SeriesToSVG(values, svgWidth, svgWidth/2, "#00a8cc"))
		return err
	}

	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(storage.ParticlesPath(st.Dir(args[0]), svgFrame))
	if err != nil {
		return fmt.Errorf("frame %d was not dumped: %w", svgFrame, err)
	}
	defer f.Close()
	positions, err := storage.ReadParticles(f)
	if err != nil {
		return err
	}

	plane := viz.PlaneXY
	if svgView == "top" {
		plane = viz.PlaneXZ
	}
	lower, upper := cfg.Bounds()
	style := export.DefaultParticleStyle()
	style.Width = svgWidth
	return export.ParticlesToSVG(out, positions, lower, upper, plane, style)
}

func listPresets(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENE\tEMITTERS\tCOLLIDERS\tFRAMES")
	for _, name := range registry.ListScenes() {
		cfg, err := registry.GetScene(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", name, len(cfg.Scene.Emitters), len(cfg.Scene.Colliders), cfg.Run.Frames)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\npressure solvers: %v\nlinear solvers: %v\nthemes: %v\n",
		registry.ListPressureSolvers(), registry.ListLinearSolvers(), viz.ThemeNames())
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	base, err := registry.GetScene(args[0])
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("benchmarking %s, %d frames\n\n", args[0], benchFrames)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tGRID\tPARTICLES\tTIME\tFRAMES/SEC\tMAX DIV")

	for _, res := range []int{16, 24, 32} {
		for _, kind := range []string{"pic", "flip"} {
			cfg := base.Clone()
			cfg.Grid.Resolution = [3]int{res, res, res}
			cfg.Solver.Kind = kind
			cfg.Run.Frames = benchFrames

			exp, err := experiment.New(cfg, registry, logger)
			if err != nil {
				return err
			}
			result, err := exp.Run(ctx, nil)
			if err != nil {
				return err
			}
			final := result.Final()
			particles, _ := final.Get("particles")
			div, _ := final.Get("max_divergence")
			fmt.Fprintf(w, "%s\t%d³\t%d\t%v\t%.2f\t%.3g\n",
				kind, res, int(particles), result.Elapsed.Round(time.Millisecond),
				float64(result.Frames)/result.Elapsed.Seconds(), div)
		}
	}
	return w.Flush()
}

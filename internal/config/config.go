// Package config loads simulation scenes from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/san-kum/flipsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultResolution    = 32
	DefaultDomainWidth   = 1.0
	DefaultFPS           = 60.0
	DefaultFrames        = 120
	DefaultMaxCFL        = 5.0
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-6
)

type Config struct {
	Grid   GridConfig   `yaml:"grid"`
	Solver SolverConfig `yaml:"solver"`
	Scene  SceneConfig  `yaml:"scene"`
	Run    RunConfig    `yaml:"run"`
}

type GridConfig struct {
	Resolution [3]int `yaml:"resolution"`
	// DomainWidth is the extent along x. Cells are cubes.
	DomainWidth float64    `yaml:"domain_width"`
	Origin      [3]float64 `yaml:"origin"`
}

type SolverConfig struct {
	Kind         string     `yaml:"kind"`
	PICBlending  float64    `yaml:"pic_blending"`
	MaxCFL       float64    `yaml:"max_cfl"`
	Gravity      [3]float64 `yaml:"gravity"`
	Viscosity    float64    `yaml:"viscosity"`
	ClosedDomain []string   `yaml:"closed_domain"`
	Integrator   string     `yaml:"integrator"`
	Threads      int        `yaml:"threads"`

	Pressure      string          `yaml:"pressure"`
	LinearSolver  string          `yaml:"linear_solver"`
	MaxIterations int             `yaml:"max_iterations"`
	Tolerance     float64         `yaml:"tolerance"`
	Multigrid     MultigridConfig `yaml:"multigrid"`
}

type MultigridConfig struct {
	Levels           int     `yaml:"levels"`
	RestrictionIters int     `yaml:"restriction_iters"`
	CorrectionIters  int     `yaml:"correction_iters"`
	CoarsestIters    int     `yaml:"coarsest_iters"`
	FinalIters       int     `yaml:"final_iters"`
	SOR              float64 `yaml:"sor"`
	RedBlack         bool    `yaml:"red_black"`
}

type SceneConfig struct {
	Name      string           `yaml:"name"`
	Emitters  []EmitterConfig  `yaml:"emitters"`
	Colliders []ColliderConfig `yaml:"colliders"`
}

// ShapeConfig describes a box (lower, upper), a sphere (center, radius)
// or a plane (normal, point).
type ShapeConfig struct {
	Type   string     `yaml:"type"`
	Lower  [3]float64 `yaml:"lower,omitempty"`
	Upper  [3]float64 `yaml:"upper,omitempty"`
	Center [3]float64 `yaml:"center,omitempty"`
	Radius float64    `yaml:"radius,omitempty"`
	Normal [3]float64 `yaml:"normal,omitempty"`
	Point  [3]float64 `yaml:"point,omitempty"`
}

type EmitterConfig struct {
	Shape ShapeConfig `yaml:"shape"`
	// Spacing is in cells. Zero uses half a cell.
	Spacing      float64    `yaml:"spacing"`
	Jitter       float64    `yaml:"jitter"`
	Velocity     [3]float64 `yaml:"velocity"`
	MaxParticles int        `yaml:"max_particles"`
	OneShot      bool       `yaml:"one_shot"`
	Seed         int64      `yaml:"seed"`
}

type ColliderConfig struct {
	Shape    ShapeConfig `yaml:"shape"`
	Friction float64     `yaml:"friction"`
	Velocity [3]float64  `yaml:"velocity"`
}

type RunConfig struct {
	Frames int     `yaml:"frames"`
	FPS    float64 `yaml:"fps"`
	// OutputEvery writes particle and grid state every n frames. Zero
	// disables state output.
	OutputEvery int `yaml:"output_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Resolution:  [3]int{DefaultResolution, DefaultResolution, DefaultResolution},
			DomainWidth: DefaultDomainWidth,
		},
		Solver: SolverConfig{
			Kind:          "flip",
			PICBlending:   0.05,
			MaxCFL:        DefaultMaxCFL,
			Gravity:       [3]float64{0, -9.8, 0},
			ClosedDomain:  []string{"all"},
			Integrator:    "midpoint",
			Pressure:      "fractional",
			LinearSolver:  "iccg",
			MaxIterations: DefaultMaxIterations,
			Tolerance:     DefaultTolerance,
			Multigrid: MultigridConfig{
				Levels:           4,
				RestrictionIters: 5,
				CorrectionIters:  5,
				CoarsestIters:    20,
				FinalIters:       20,
				SOR:              1.5,
				RedBlack:         true,
			},
		},
		Scene: SceneConfig{Name: "dam_break"},
		Run: RunConfig{
			Frames: DefaultFrames,
			FPS:    DefaultFPS,
		},
	}
}

// Load reads path over DefaultConfig. A scene without emitters takes
// them from the preset of the same name.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Scene.Emitters) == 0 {
		if p := GetPreset(cfg.Scene.Name); p != nil {
			cfg.Scene.Emitters = p.Scene.Emitters
			if len(cfg.Scene.Colliders) == 0 {
				cfg.Scene.Colliders = p.Scene.Colliders
			}
		}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Spacing is the edge length of a grid cell.
func (c *Config) Spacing() float64 {
	if c.Grid.Resolution[0] <= 0 {
		return 0
	}
	return c.Grid.DomainWidth / float64(c.Grid.Resolution[0])
}

// Bounds is the box covered by the grid.
func (c *Config) Bounds() (lower, upper r3.Vec) {
	h := c.Spacing()
	res, o := c.Grid.Resolution, c.Grid.Origin
	lower = r3.Vec{X: o[0], Y: o[1], Z: o[2]}
	upper = r3.Add(lower, r3.Vec{X: float64(res[0]) * h, Y: float64(res[1]) * h, Z: float64(res[2]) * h})
	return lower, upper
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Solver.ClosedDomain = append([]string(nil), c.Solver.ClosedDomain...)
	out.Scene.Emitters = append([]EmitterConfig(nil), c.Scene.Emitters...)
	out.Scene.Colliders = append([]ColliderConfig(nil), c.Scene.Colliders...)
	return &out
}

var (
	solverKinds   = []string{"pic", "flip"}
	pressureKinds = []string{"fractional", "blocked"}
	linearSolvers = []string{"iccg", "cg", "jacobi", "gauss_seidel", "multigrid"}
	shapeTypes    = []string{"box", "sphere", "plane"}
)

func oneOf(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), dynamo.ErrInvalidArgument)
}

// Validate reports the first setting that cannot produce a simulation.
// Integrator and closed-domain names are checked where they are parsed.
func (c *Config) Validate() error {
	for i, n := range c.Grid.Resolution {
		if n <= 0 {
			return fmt.Errorf("grid resolution[%d] = %d: %w", i, n, dynamo.ErrInvalidResolution)
		}
	}
	if !(c.Grid.DomainWidth > 0) {
		return invalid("grid domain_width %g", c.Grid.DomainWidth)
	}

	s := c.Solver
	if !oneOf(s.Kind, solverKinds) {
		return fmt.Errorf("solver kind %q: %w", s.Kind, dynamo.ErrUnknownSolver)
	}
	if !oneOf(s.Pressure, pressureKinds) {
		return fmt.Errorf("pressure solver %q: %w", s.Pressure, dynamo.ErrUnknownSolver)
	}
	if !oneOf(s.LinearSolver, linearSolvers) {
		return fmt.Errorf("linear solver %q: %w", s.LinearSolver, dynamo.ErrUnknownSolver)
	}
	if s.LinearSolver == "multigrid" && s.Pressure != "blocked" {
		return invalid("multigrid needs the blocked pressure solver")
	}
	if !(s.MaxCFL > 0) {
		return invalid("solver max_cfl %g", s.MaxCFL)
	}
	if s.PICBlending < 0 || s.PICBlending > 1 {
		return invalid("solver pic_blending %g outside [0, 1]", s.PICBlending)
	}
	if s.Viscosity < 0 {
		return invalid("solver viscosity %g", s.Viscosity)
	}
	if s.MaxIterations <= 0 || !(s.Tolerance > 0) {
		return invalid("solver max_iterations %d tolerance %g", s.MaxIterations, s.Tolerance)
	}

	for i, e := range c.Scene.Emitters {
		if !oneOf(e.Shape.Type, shapeTypes) {
			return invalid("emitter %d shape %q", i, e.Shape.Type)
		}
		if e.Spacing < 0 {
			return invalid("emitter %d spacing %g", i, e.Spacing)
		}
	}
	for i, col := range c.Scene.Colliders {
		if !oneOf(col.Shape.Type, shapeTypes) {
			return invalid("collider %d shape %q", i, col.Shape.Type)
		}
	}

	if c.Run.Frames <= 0 {
		return invalid("run frames %d", c.Run.Frames)
	}
	if !(c.Run.FPS > 0) {
		return invalid("run fps %g", c.Run.FPS)
	}
	if c.Run.OutputEvery < 0 {
		return invalid("run output_every %d", c.Run.OutputEvery)
	}
	return nil
}

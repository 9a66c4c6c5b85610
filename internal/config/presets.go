package config

import "sort"

var Presets = map[string]*Config{
	"dam_break": {
		Scene: SceneConfig{
			Name: "dam_break",
			Emitters: []EmitterConfig{{
				Shape:   ShapeConfig{Type: "box", Lower: [3]float64{0, 0, 0}, Upper: [3]float64{0.25, 0.5, 1}},
				OneShot: true,
			}},
		},
		Run: RunConfig{Frames: 120, FPS: 60},
	},
	"water_drop": {
		Scene: SceneConfig{
			Name: "water_drop",
			Emitters: []EmitterConfig{
				{
					Shape:   ShapeConfig{Type: "box", Lower: [3]float64{0, 0, 0}, Upper: [3]float64{1, 0.25, 1}},
					OneShot: true,
				},
				{
					Shape:   ShapeConfig{Type: "sphere", Center: [3]float64{0.5, 0.7, 0.5}, Radius: 0.15},
					OneShot: true,
				},
			},
		},
		Run: RunConfig{Frames: 90, FPS: 60},
	},
	"column": {
		Scene: SceneConfig{
			Name: "column",
			Emitters: []EmitterConfig{{
				Shape:   ShapeConfig{Type: "box", Lower: [3]float64{0.4, 0, 0.4}, Upper: [3]float64{0.6, 0.75, 0.6}},
				OneShot: true,
			}},
			Colliders: []ColliderConfig{{
				Shape: ShapeConfig{Type: "sphere", Center: [3]float64{0.5, 0.9, 0.5}, Radius: 0.05},
			}},
		},
		Run: RunConfig{Frames: 60, FPS: 60},
	},
}

// GetPreset returns the defaults overlaid with the named scene, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Scene = p.Scene
	cfg.Scene.Emitters = append([]EmitterConfig(nil), p.Scene.Emitters...)
	cfg.Scene.Colliders = append([]ColliderConfig(nil), p.Scene.Colliders...)
	cfg.Run = p.Run
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package viz renders fluid runs in the terminal.
//
// The package draws particles on a Braille [Canvas], plots metric
// histories with asciigraph and styles summaries with lipgloss. [Model] is
// a Bubble Tea program that follows a running simulation frame by frame:
//
//   - [Model]: live view fed by an experiment observer through a channel
//   - [Picker]: scene and solver selection menu
//   - [Camera]: orbit projection of particles for the 3D view
//
// # Key Bindings
//
//	Space - Freeze/unfreeze the display
//	V     - Cycle side, top and orbit views
//	X/Y   - Orbit the camera
//	+/-   - Zoom
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	Q     - Stop the run and quit
package viz

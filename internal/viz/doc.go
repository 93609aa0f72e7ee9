// Package viz provides a terminal live view of a running simulation.
//
// The view is a Bubble Tea program that advances a [sim.Driver] a few
// steps per frame and shows:
//
//   - the selected field, block-averaged and shaded with the current [Theme]
//   - the radial power profile of that field as an ASCII chart
//   - step, time, mean and range of the field
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	Tab   - Switch between G and R
//	T     - Cycle color themes
//	C     - Toggle color blocks / ASCII shades
//	+/-   - Double or halve steps per frame
//	Q     - Quit
package viz

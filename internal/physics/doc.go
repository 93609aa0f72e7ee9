// Package physics provides the local reaction kinetics of the gas
// (activator) and radiation (inhibitor) fields.
//
// [StonerTuring] evaluates the right-hand side of the reaction–diffusion
// system one cell at a time; the grid-wide update lives in the
// integrators package.
package physics

// Package grid holds the periodic field storage and the two stencil
// operators every other stage is built on: [Laplacian] and [Sample].
package grid

// Package advection moves fields along a prescribed rotational velocity
// field using semi-Lagrangian backtracking.
//
// Backtracking samples the previous field at departure points instead of
// differencing gradients, so the step size is not limited by the advective
// CFL number. Rotation profiles are pure functions of position:
//
//	rot := advection.NewRotation(advection.ProfileInverse, 0.05, 1.0, cx, cy)
//	adv, _ := advection.New(rot, advection.BacktrackEuler)
//	_ = adv.Advect(next, field, dt)
package advection

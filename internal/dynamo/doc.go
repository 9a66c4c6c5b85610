// Package dynamo provides the core primitives shared by every solver of the
// fluid simulation:
//
//   - [Context]: execution settings such as the worker count
//   - [Context.ParallelFor] and friends: chunked data-parallel loops
//   - [Frame]: animation frame index and interval
//   - sentinel errors and [SimulationError]
//
// # Example
//
//	ctx := dynamo.NewContext(0)
//	ctx.ParallelFor3(nx, ny, nz, func(i, j, k int) {
//		out.Set(i, j, k, in.At(i, j, k)*2)
//	})
//
// # Thread Safety
//
// Parallel loops only hand disjoint index ranges to workers. Solvers are
// NOT thread-safe; one goroutine drives a simulation at a time.
package dynamo

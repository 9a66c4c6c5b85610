// Package fdm provides the linear algebra behind the pressure projection:
// the 7-point symmetric matrix stored as one [MatrixRow] per cell, BLAS-like
// operations over cell-shaped vectors and iterative solvers.
//
// Only the positive-direction coefficients (right, up, front) are stored.
// The negative-direction coefficient of a row is read from the neighbor's
// row, which keeps the matrix symmetric by construction.
//
// Available solvers:
//
//   - [CGSolver]: conjugate gradient
//   - [ICCGSolver]: conjugate gradient with incomplete Cholesky preconditioning
//   - [JacobiSolver]: Jacobi relaxation
//   - [GaussSeidelSolver]: Gauss-Seidel with optional SOR and red-black ordering
//   - [MGSolver]: geometric multigrid V-cycles over an [MGLinearSystem]
package fdm

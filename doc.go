// Package bifold computes double-folded optical potentials for
// nucleus-nucleus scattering.
//
// The projectile and target densities are folded with an M3Y
// nucleon-nucleon interaction in momentum space: each factor is taken to q
// space with a spherical Fourier-Bessel transform, the product is formed
// there and transformed back to the separation R. The exchange part is
// either zero-range or finite-range, the latter through a self-consistent
// local-momentum iteration over the density matrix expansion.
//
// # Usage
//
//	bifold config init bifold.yaml
//	bifold run -c bifold.yaml --db runs.db --out u.dat
//	bifold list --db runs.db
//	bifold show <id> --db runs.db --compare <other-id>
//
// # Package Structure
//
//   - core: meshes, sampled functions and their records
//   - special: spherical Bessel functions
//   - kernels: Simpson and Filon quadrature, origin correction, moments
//   - calculus: derivatives and spline smoothing
//   - transform: concurrent 1D and 2D Fourier-Bessel drivers
//   - shape: parametrised and tabulated radial shapes
//   - interaction: M3Y interactions and density-dependent families
//   - folding: direct, exchange and Coulomb folding
//   - model: calculation results and their gob encoding
//   - store: SQLite archive of runs
//   - config, logging: viper configuration and zap loggers
//   - cmd/bifold: the command-line tool
package bifold

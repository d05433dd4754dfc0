// Package interp provides fractional interpolation kernels used by the
// rate transposer of the time-stretch engine.
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite (default)
package interp

package kernels

import "math"

// Moments returns the volume integrals of f on the mesh x:
// vol2 = 4π∫ f·x^(L+2) dx, vol4 = 4π∫ f·x^(2L+4) dx and their ratio
// msr = vol4/vol2 (0 when vol2 vanishes).
func Moments(x, f []float64, l int) (vol2, vol4, msr float64, err error) {
	if err := checkSamples(f, x); err != nil {
		return 0, 0, 0, err
	}
	i2 := make([]float64, len(x))
	i4 := make([]float64, len(x))
	for i, xi := range x {
		p := math.Pow(xi, float64(l+2))
		i2[i] = f[i] * p
		i4[i] = i2[i] * p
	}
	dx := x[1] - x[0]
	vol2 = 4 * math.Pi * simpson(i2, dx)
	vol4 = 4 * math.Pi * simpson(i4, dx)
	if vol2 != 0 {
		msr = vol4 / vol2
	}
	return vol2, vol4, msr, nil
}

package kernels

// OriginValue extrapolates f linearly from indices 1 and 2 to x[0]. On a
// mesh anchored at the origin this is f[1] - slope·x[1].
func OriginValue(x, f []float64) float64 {
	slope := (f[2] - f[1]) / (x[2] - x[1])
	return f[1] + slope*(x[0]-x[1])
}

// OriginCorrect overwrites f[0] with OriginValue. Applying it twice is the
// same as applying it once. Slices shorter than 3 are left untouched.
func OriginCorrect(x, f []float64) {
	if len(f) < 3 || len(x) < 3 {
		return
	}
	f[0] = OriginValue(x, f)
}

// TailValue is the mirrored rule for the last index: the line through the
// two preceding samples, evaluated at x[n-1].
func TailValue(x, f []float64) float64 {
	n := len(f)
	slope := (f[n-3] - f[n-2]) / (x[n-3] - x[n-2])
	return f[n-2] + slope*(x[n-1]-x[n-2])
}

// TailCorrect overwrites the last sample of f with TailValue.
func TailCorrect(x, f []float64) {
	if len(f) < 3 || len(x) < 3 {
		return
	}
	f[len(f)-1] = TailValue(x, f)
}

// Package metrics compares a computed potential against a reference one.
//
// Every measure returns the mean of the per-point errors, their population
// standard deviation and the per-point errors themselves.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when reference and computed values differ
// in length.
var ErrLengthMismatch = errors.New("reference and computed values differ in length")

// Result holds an aggregated error measure.
type Result struct {
	Mean  float64   `json:"mean" yaml:"mean"`
	Std   float64   `json:"std" yaml:"std"`
	Point []float64 `json:"-" yaml:"-"`
}

// Stdev returns the mean and population standard deviation of data.
func Stdev(data []float64) (mean, std float64) {
	return stat.PopMeanStdDev(data, nil)
}

func reduce(point []float64) Result {
	mean, std := Stdev(point)
	return Result{Mean: mean, Std: std, Point: point}
}

func check(ref, got []float64) error {
	if len(ref) != len(got) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(ref), len(got))
	}
	if len(ref) == 0 {
		return fmt.Errorf("%w: empty input", ErrLengthMismatch)
	}
	return nil
}

// MAFE is the mean absolute fractional error |1 - got/ref|.
func MAFE(ref, got []float64) (Result, error) {
	if err := check(ref, got); err != nil {
		return Result{}, err
	}
	point := make([]float64, len(ref))
	for i := range ref {
		point[i] = math.Abs(1 - got[i]/ref[i])
	}
	return reduce(point), nil
}

// MAPE is MAFE expressed in percent.
func MAPE(ref, got []float64) (Result, error) {
	r, err := MAFE(ref, got)
	if err != nil {
		return Result{}, err
	}
	r.Mean *= 100
	r.Std *= 100
	for i := range r.Point {
		r.Point[i] *= 100
	}
	return r, nil
}

// MSE is the mean squared error (ref - got)².
func MSE(ref, got []float64) (Result, error) {
	if err := check(ref, got); err != nil {
		return Result{}, err
	}
	point := make([]float64, len(ref))
	for i := range ref {
		d := ref[i] - got[i]
		point[i] = d * d
	}
	return reduce(point), nil
}

// RMSE is the square root of MSE; Std is the square root of the MSE
// standard deviation.
func RMSE(ref, got []float64) (Result, error) {
	r, err := MSE(ref, got)
	if err != nil {
		return Result{}, err
	}
	r.Mean = math.Sqrt(r.Mean)
	r.Std = math.Sqrt(r.Std)
	return r, nil
}

// WMSE is the weighted mean squared error ((ref - got)/(ref + got))².
func WMSE(ref, got []float64) (Result, error) {
	if err := check(ref, got); err != nil {
		return Result{}, err
	}
	point := make([]float64, len(ref))
	for i := range ref {
		w := (ref[i] - got[i]) / (ref[i] + got[i])
		point[i] = w * w
	}
	return reduce(point), nil
}

// Summary bundles the measures reported when comparing two runs.
type Summary struct {
	MAPE Result `json:"mape" yaml:"mape"`
	RMSE Result `json:"rmse" yaml:"rmse"`
	WMSE Result `json:"wmse" yaml:"wmse"`
}

// Compare computes MAPE, RMSE and WMSE of got against ref.
func Compare(ref, got []float64) (Summary, error) {
	var s Summary
	var err error
	if s.MAPE, err = MAPE(ref, got); err != nil {
		return Summary{}, err
	}
	if s.RMSE, err = RMSE(ref, got); err != nil {
		return Summary{}, err
	}
	if s.WMSE, err = WMSE(ref, got); err != nil {
		return Summary{}, err
	}
	return s, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/kernels"
	"github.com/mkarakoc/BiFold/transform"
)

var (
	perfTest    string
	perfPoints  int
	perfIter    int
	perfWorkers int
)

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Time the transform drivers",
	Long: `Times the Fourier-Bessel transform and the two-dimensional FQS and GRS
drivers with both quadrature methods on a Gaussian test function.`,
	RunE: runPerf,
}

func init() {
	perfCmd.Flags().StringVar(&perfTest, "test", "all", "Test type: all, fourier, grid")
	perfCmd.Flags().IntVar(&perfPoints, "points", 201, "Mesh points")
	perfCmd.Flags().IntVar(&perfIter, "iter", 20, "Number of iterations")
	perfCmd.Flags().IntVar(&perfWorkers, "workers", runtime.NumCPU(), "Concurrent grid tasks")
}

func runPerf(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if perfPoints < 3 || perfIter < 1 {
		return fmt.Errorf("need at least 3 points and 1 iteration")
	}
	fmt.Fprintf(w, "BiFold Performance Analysis\n")
	fmt.Fprintf(w, "===========================\n")
	fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "CPUs: %d, workers: %d\n", runtime.NumCPU(), perfWorkers)
	fmt.Fprintf(w, "Mesh: %s points, %s iterations\n\n", humanize.Comma(int64(perfPoints)), humanize.Comma(int64(perfIter)))

	switch perfTest {
	case "all":
		if err := perfFourier(w); err != nil {
			return err
		}
		return perfGrid(cmdContext(cmd), w)
	case "fourier":
		return perfFourier(w)
	case "grid":
		return perfGrid(cmdContext(cmd), w)
	}
	return fmt.Errorf("unknown test type: %s", perfTest)
}

// perfMeshes spans [0, 10] fm and [0, 6] fm⁻¹ with perfPoints points each.
func perfMeshes() (r, q, f []float64, err error) {
	r, err = core.NewMesh(core.Zero, 10, 10/float64(perfPoints-1))
	if err != nil {
		return nil, nil, nil, err
	}
	q, err = core.NewMesh(core.Zero, 6, 6/float64(perfPoints-1))
	if err != nil {
		return nil, nil, nil, err
	}
	f = make([]float64, len(r))
	for i, ri := range r {
		f[i] = 0.4229 * math.Exp(-0.7024*ri*ri)
	}
	return r, q, f, nil
}

func rate(n int64, d time.Duration) string {
	return humanize.SIWithDigits(float64(n)/d.Seconds(), 2, "integrals/s")
}

func perfFourier(w io.Writer) error {
	fmt.Fprintf(w, "Fourier-Bessel Transform\n")
	fmt.Fprintf(w, "------------------------\n")
	r, q, f, err := perfMeshes()
	if err != nil {
		return err
	}
	for _, method := range kernels.Methods() {
		engine, err := transform.NewEngine(&transform.EngineOptions{Workers: perfWorkers, Method: method}, logger)
		if err != nil {
			return err
		}
		for _, order := range perfOrders(method) {
			start := time.Now()
			for i := 0; i < perfIter; i++ {
				if _, err := engine.Fourier(f, r, q, order); err != nil {
					return err
				}
			}
			elapsed := time.Since(start)
			fmt.Fprintf(w, "%-8s l=%d:  %v/op (%s)\n", method, order,
				elapsed/time.Duration(perfIter), rate(int64(len(q)*perfIter), elapsed))
		}
	}
	fmt.Fprintf(w, "\n")
	return nil
}

// perfOrders lists the Bessel orders method can transform.
func perfOrders(method kernels.Method) []int {
	if method == kernels.MethodFilon {
		return []int{0}
	}
	return []int{0, 2}
}

func perfGrid(ctx context.Context, w io.Writer) error {
	fmt.Fprintf(w, "Two-dimensional Drivers\n")
	fmt.Fprintf(w, "-----------------------\n")
	r, q, f, err := perfMeshes()
	if err != nil {
		return err
	}
	kf := make([]float64, len(r))
	for i := range kf {
		kf[i] = 1.2
	}
	for _, method := range kernels.Methods() {
		engine, err := transform.NewEngine(&transform.EngineOptions{Workers: perfWorkers, Method: method, EnableStats: true}, logger)
		if err != nil {
			return err
		}
		start := time.Now()
		fqs, err := engine.FQS(ctx, f, r, kf, r, q)
		if err != nil {
			return err
		}
		fqsTime := time.Since(start)

		start = time.Now()
		if _, err := engine.GRS(ctx, fqs, r, r, q, 0); err != nil {
			return err
		}
		grsTime := time.Since(start)

		stats := engine.Stats()
		fmt.Fprintf(w, "%-8s FQS: %v  GRS: %v  (%s integrals, %s)\n", method, fqsTime, grsTime,
			humanize.Comma(stats.Integrals), rate(stats.Integrals, fqsTime+grsTime))
	}
	fmt.Fprintf(w, "\n")
	return nil
}

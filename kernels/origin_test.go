package kernels

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkarakoc/BiFold/core"
)

func TestOriginCorrectLinear(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 2, 0.5)
	f := evalOn(x, func(r float64) float64 { return 3 - 2*r })
	f[0] = 1e6

	OriginCorrect(x, f)
	assert.InDelta(t, 3-2*x[0], f[0], 1e-12)
}

func TestOriginCorrectIdempotent(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(core.Zero, 3, 0.1)
	f := evalOn(x, func(r float64) float64 { return 1 / (1 + r*r) })
	f[0] = -7

	OriginCorrect(x, f)
	once := append([]float64(nil), f...)
	OriginCorrect(x, f)
	assert.Equal(t, once, f)
}

func TestOriginValueAtOrigin(t *testing.T) {
	t.Parallel()
	// anchored at 0 the rule reduces to f[1] - slope·x[1]
	x := []float64{0, 0.5, 1}
	f := []float64{99, 2, 3}
	slope := (f[2] - f[1]) / (x[2] - x[1])
	assert.Equal(t, f[1]-slope*x[1], OriginValue(x, f))
}

func TestTailCorrect(t *testing.T) {
	t.Parallel()
	x := core.MustMesh(0, 2, 0.25)
	f := evalOn(x, func(r float64) float64 { return 0.5*r + 1 })
	last := f[len(f)-1]
	f[len(f)-1] = 0

	TailCorrect(x, f)
	assert.InDelta(t, last, f[len(f)-1], 1e-12)
}

func TestCorrectionsIgnoreShortSlices(t *testing.T) {
	t.Parallel()
	f := []float64{1, 2}
	OriginCorrect([]float64{0, 1}, f)
	TailCorrect([]float64{0, 1}, f)
	assert.Equal(t, []float64{1, 2}, f)
}

func TestScratchPool(t *testing.T) {
	t.Parallel()
	pool := NewScratchPool(8, 2)

	buf := pool.Get(5)
	assert.Len(t, buf, 5)
	assert.GreaterOrEqual(t, cap(buf), 8)
	pool.Put(buf)

	again := pool.Get(3)
	assert.Len(t, again, 3)

	big := pool.Get(32)
	assert.Len(t, big, 32)

	// undersized buffers are dropped
	pool.Put(make([]float64, 2))
}

func TestScratchPoolConcurrent(t *testing.T) {
	t.Parallel()
	pool := NewScratchPool(16, 0)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				buf := pool.Get(16)
				buf[0] = float64(i)
				pool.Put(buf)
			}
		}()
	}
	wg.Wait()
}

package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMesh(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		min, max float64
		step     float64
		wantLen  int
		wantLast float64
	}{
		{name: "density mesh", min: Zero, max: 10, step: 0.05, wantLen: 201, wantLast: 10 + Zero},
		{name: "momentum mesh", min: Zero, max: 3, step: 0.02, wantLen: 151, wantLast: 3 + Zero},
		{name: "even count is extended", min: 0, max: 1, step: 0.2, wantLen: 7, wantLast: 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := NewMesh(tt.min, tt.max, tt.step)
			require.NoError(t, err)
			assert.Len(t, x, tt.wantLen)
			assert.InDelta(t, tt.min, x[0], 1e-15)
			assert.InDelta(t, tt.wantLast, x[len(x)-1], 1e-9)
			assert.NoError(t, ValidateMesh(x))
		})
	}
}

func TestNewMeshBadRange(t *testing.T) {
	t.Parallel()
	_, err := NewMesh(1, 0, 0.1)
	assert.ErrorIs(t, err, ErrBadMeshRange)
	_, err = NewMesh(0, 1, 0)
	assert.ErrorIs(t, err, ErrBadMeshRange)
}

func TestValidateMesh(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		x    []float64
		want error
	}{
		{name: "short", x: []float64{0, 1}, want: ErrShortMesh},
		{name: "even", x: []float64{0, 1, 2, 3}, want: ErrEvenMesh},
		{name: "decreasing", x: []float64{2, 1, 0}, want: ErrNotIncreasing},
		{name: "repeated", x: []float64{0, 1, 1, 2, 3}, want: ErrNotIncreasing},
		{name: "non-uniform", x: []float64{0, 1, 2.5}, want: ErrNonUniformMesh},
		{name: "valid", x: []float64{0, 0.5, 1, 1.5, 2}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMesh(tt.x)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateMesh() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateAxis(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateAxis([]float64{1}))
	assert.NoError(t, ValidateAxis([]float64{0, 0.3, 2}))
	assert.ErrorIs(t, ValidateAxis(nil), ErrShortMesh)
	assert.ErrorIs(t, ValidateAxis([]float64{0, 0}), ErrNotIncreasing)
}

func TestFuncValidate(t *testing.T) {
	t.Parallel()
	mesh := []float64{0, 1, 2}

	assert.ErrorIs(t, Func{}.Validate(mesh), ErrEmptyFunc)
	assert.ErrorIs(t, Func{Values: []float64{1, 2}}.Validate(mesh), ErrLengthMismatch)
	assert.ErrorIs(t, Func{Values: []float64{1, math.NaN(), 2}}.Validate(mesh), ErrNonFinite)
	assert.NoError(t, Func{Values: []float64{1, 2, 3}}.Validate(mesh))
	assert.NoError(t, Func{Values: []float64{1, 2}}.Validate(nil))
}

func TestFuncCloneIsDeep(t *testing.T) {
	t.Parallel()
	f := Func{
		Values: []float64{1, 2, 3},
		Info:   []Record{{Name: "rho", Params: map[string]float64{"a": 1}}},
	}

	c := f.Clone()
	c.Values[0] = 42
	c.Info[0].Params["a"] = 7
	c.Info[0].Name = "other"

	assert.Equal(t, 1.0, f.Values[0])
	assert.Equal(t, 1.0, f.Info[0].Params["a"])
	assert.Equal(t, "rho", f.Name())
}

func TestFuncScaleKeepsRecords(t *testing.T) {
	t.Parallel()
	f := Func{Values: []float64{1, -2}, Info: []Record{{Name: "v", Vol2: 3}}}

	s := f.Scale(2)
	assert.Equal(t, []float64{2, -4}, s.Values)
	assert.Equal(t, []float64{1, -2}, f.Values)
	assert.Equal(t, f.Info, s.Info)
}

func TestCombine(t *testing.T) {
	t.Parallel()
	a := Func{Info: []Record{{Name: "a"}}}
	b := Func{Info: []Record{{Name: "b"}, {Name: "c"}}}

	out := Combine([]float64{1}, a, b)
	require.Len(t, out.Info, 3)
	assert.Equal(t, "a", out.Info[0].Name)
	assert.Equal(t, "c", out.Info[2].Name)
	assert.Equal(t, "", Func{}.Name())
}

func TestSamplesRoundTrip(t *testing.T) {
	t.Parallel()
	values := []float64{0, -1.5, math.Pi, 1e-300, math.MaxFloat64}

	data := EncodeSamples(values)
	assert.Len(t, data, SampleHeaderSize+8*len(values))

	got, err := DecodeSamples(data)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestDecodeSamplesErrors(t *testing.T) {
	t.Parallel()
	data := EncodeSamples([]float64{1, 2, 3})

	_, err := DecodeSamples(data[:4])
	assert.ErrorIs(t, err, ErrShortBuffer)

	corrupt := append([]byte(nil), data...)
	corrupt[len(corrupt)-1] ^= 0xFF
	_, err = DecodeSamples(corrupt)
	assert.ErrorIs(t, err, ErrChecksum)

	badMagic := append([]byte(nil), data...)
	badMagic[0] = 0
	_, err = DecodeSamples(badMagic)
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = DecodeSamples(data[:len(data)-8])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func BenchmarkValidateMesh(b *testing.B) {
	x := MustMesh(Zero, 20, 0.01)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateMesh(x)
	}
}

func BenchmarkEncodeSamples(b *testing.B) {
	x := MustMesh(Zero, 20, 0.01)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EncodeSamples(x)
	}
}

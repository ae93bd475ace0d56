package interaction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/shape"
)

var s = core.MustMesh(core.Zero, 10, 0.05)

func TestParseNN(t *testing.T) {
	t.Parallel()
	nn, err := ParseNN(" Paris ")
	require.NoError(t, err)
	assert.Equal(t, Paris, nn)
	assert.Equal(t, "reid", Reid.String())
	_, err = ParseNN("argonne")
	assert.ErrorIs(t, err, ErrUnknownInteraction)
}

func TestDirectVolume(t *testing.T) {
	t.Parallel()
	v, err := Reid.Direct(s)
	require.NoError(t, err)
	assert.Equal(t, "m3y_reid_d", v.Name())
	require.Len(t, v.Info, 3)

	want := 4 * math.Pi * (7999.0/4/16 - 2134.25/2.5/6.25)
	assert.InEpsilon(t, want, v.Info[0].Vol2, 1e-3)
	assert.Less(t, v.Info[0].Vol2, 0.0)

	// sum of the parts
	assert.InDelta(t, v.Info[1].Vol2+v.Info[2].Vol2, v.Info[0].Vol2, 1e-9)
}

func TestExchangeFR(t *testing.T) {
	t.Parallel()
	for _, nn := range []NN{Reid, Paris} {
		v, err := nn.ExchangeFR(s)
		require.NoError(t, err)
		assert.Len(t, v.Info, 4, nn.String())
		assert.Equal(t, "m3y_"+nn.String()+"_ex_fr", v.Name())
	}
	_, err := NN(5).Direct(s)
	assert.ErrorIs(t, err, ErrUnknownInteraction)
}

func TestJ00AndEnergyFactor(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, -276*(1-0.005*10), Reid.J00(40, 4), 1e-12)
	assert.InDelta(t, -590*(1-0.002*10), Paris.J00(40, 4), 1e-12)
	assert.InDelta(t, 0.98, Reid.EnergyFactor(40, 4), 1e-12)
	assert.InDelta(t, 0.97, Paris.EnergyFactor(40, 4), 1e-12)

	zr, err := Reid.ExchangeZR(s, 40, 4)
	require.NoError(t, err)
	assert.Equal(t, Reid.J00(40, 4), zr.Values[0])
	assert.Zero(t, zr.Values[len(s)-1])
	assert.Equal(t, "m3y_reid_ex_zr", zr.Name())
}

func TestLookupFamily(t *testing.T) {
	t.Parallel()
	fam, err := LookupFamily(Paris, "CDM3Y6")
	require.NoError(t, err)
	assert.Equal(t, Combined, fam.Kind)
	assert.Equal(t, 0.2658, fam.C)
	assert.Equal(t, "cdm3y6", fam.Name)

	_, err = LookupFamily(Reid, "bdm3y0")
	assert.ErrorIs(t, err, ErrNotImplemented)
	_, err = LookupFamily(Reid, "cdm3y1")
	assert.ErrorIs(t, err, ErrUnknownFamily)

	assert.Contains(t, FamilyNames(Reid), "ddm3y1")
	assert.Len(t, FamilyNames(Paris), 11)
}

func TestStrength(t *testing.T) {
	t.Parallel()
	di, err := LookupFamily(Reid, "dim3y")
	require.NoError(t, err)
	assert.Equal(t, 1.0, di.Strength(100, 4))

	bd, err := LookupFamily(Reid, "bdm3y1")
	require.NoError(t, err)
	assert.InDelta(t, 1.2253*(1-0.002*25), bd.Strength(100, 4), 1e-12)

	dd, err := DDM3YReid(100, 4)
	require.NoError(t, err)
	assert.True(t, dd.EnergyDependent)
	assert.Equal(t, dd.C, dd.Strength(100, 4))
	assert.Equal(t, dd.C, dd.Params(100, 4)["c"])
}

func TestDDM3YReidEnergy(t *testing.T) {
	t.Parallel()
	fam, err := DDM3YReid(0, 1)
	assert.ErrorIs(t, err, ErrEnergyRange)
	assert.Zero(t, fam.C)

	fam, err = DDM3YReid(10, 1)
	require.NoError(t, err)
	// E/A = 10 MeV
	assert.InDelta(t, 0.4218, fam.C, 1e-3)
	assert.InDelta(t, 4.2159, fam.Alpha, 1e-3)
	assert.InDelta(t, 10.2023, fam.Beta, 1e-3)

	_, err = DDM3YReid(91, 1)
	assert.ErrorIs(t, err, ErrEnergyRange)
}

func TestTerms(t *testing.T) {
	t.Parallel()
	rho, err := shape.Gaussian2(s, 0.17, 2)
	require.NoError(t, err)

	cases := map[string]int{"dim3y": 1, "ddm3y1": 2, "bdm3y2": 3}
	for name, n := range cases {
		fam, err := LookupFamily(Reid, name)
		require.NoError(t, err)
		terms, err := fam.Terms(s, rho, rho)
		require.NoError(t, err)
		assert.Len(t, terms, n, name)
		assert.Equal(t, 1.0, terms[0].Coef)
	}

	cd, err := LookupFamily(Paris, "cdm3y3")
	require.NoError(t, err)
	terms, err := cd.Terms(s, rho, rho)
	require.NoError(t, err)
	require.Len(t, terms, 4)
	assert.Equal(t, cd.Alpha, terms[1].Coef)
	assert.Equal(t, -cd.Gamma, terms[2].Coef)
	assert.Equal(t, "rho_bd", terms[2].P.Name())
	assert.Equal(t, 1.0, terms[2].P.Info[0].Params["n"])
	assert.InDelta(t, rho.Values[20]*rho.Values[20], terms[3].T.Values[20], 1e-15)
}

func TestDensityExp(t *testing.T) {
	t.Parallel()
	rho, err := shape.Gaussian2(s, 0.17, 2)
	require.NoError(t, err)
	dd, err := DensityExp(s, rho, 3)
	require.NoError(t, err)
	v := rho.Values[10]
	assert.InDelta(t, v*math.Exp(-3*v), dd.Values[10], 1e-15)
	assert.Equal(t, 3.0, dd.Info[0].Params["beta"])
}

func TestCoulombUCS(t *testing.T) {
	t.Parallel()
	const e2 = 1.44
	u, err := CoulombUCS(s, 4, 2, 8, e2)
	require.NoError(t, err)

	q2 := 16 * e2
	at := func(r float64) float64 { return u.Values[int(math.Round(r/0.05))] }
	assert.InDelta(t, q2/8, at(8), 1e-9)
	assert.InDelta(t, q2*(3-0.25)/8, at(2), 1e-9)
	// continuous at rc
	assert.InDelta(t, q2/4, at(4), 1e-9)
	assert.InDelta(t, 1.5*q2/4, u.Values[0], 2e-3)

	_, err = CoulombUCS(s, 0, 2, 8, e2)
	assert.ErrorIs(t, err, shape.ErrBadParameters)
}

func TestCoulombNN(t *testing.T) {
	t.Parallel()
	v, err := CoulombNN(s, 1.44)
	require.NoError(t, err)
	assert.InDelta(t, 1.44/5, v.Values[100], 1e-9)
}

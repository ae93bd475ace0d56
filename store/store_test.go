package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func sampleCalculation(name string, created time.Time) *model.Calculation {
	r := core.MustMesh(core.Zero, 2, 0.5)
	q := core.MustMesh(core.Zero, 1, 0.5)
	c := model.NewCalculation(model.Reaction{Name: name, ZProj: 2, AProj: 4, ZTarg: 20, ATarg: 40, ELab: 141.7}, "filon", r, q)
	c.CreatedAt = created
	c.Add(
		&model.Potential{
			Name: "u_dim3y_reid_d",
			Info: core.Record{Name: "u_dim3y_reid_d", Renorm: 1, Vol2: -1234.5, Vol4: -20000, MSR: 16.2,
				Params: map[string]float64{"strength": 1}},
			UR:     []float64{-60, -55.5, -40.25, -20, -8.125},
			UQ:     []float64{-1234.5, -900, -300},
			Inputs: []core.Record{{Name: "gaussian2", Renorm: 1, Vol2: 4}},
		},
		&model.Potential{
			Name: "u_coul_ucs",
			Info: core.Record{Name: "u_coul_ucs", Renorm: 1},
			UR:   []float64{17, 16.5, 15, 13, 11},
		},
	)
	return c
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"busy_timeout", "5000"},
	}
	for _, tt := range tests {
		t.Run(tt.pragma, func(t *testing.T) {
			var got string
			require.NoError(t, s.conn.GetContext(ctx, &got, "PRAGMA "+tt.pragma))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	c := sampleCalculation("4He+40Ca", time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC))
	require.NoError(t, s.SaveCalculation(ctx, c))

	got, err := s.LoadCalculation(ctx, c.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	// saving again replaces the run
	c.Potentials = c.Potentials[:1]
	require.NoError(t, s.SaveCalculation(ctx, c))
	got, err = s.LoadCalculation(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Potentials, 1)
}

func TestLoadMissing(t *testing.T) {
	s := openStore(t)
	_, err := s.LoadCalculation(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteRun(context.Background(), uuid.New()), ErrNotFound)
}

func TestSaveRejectsInvalid(t *testing.T) {
	s := openStore(t)
	c := sampleCalculation("bad", time.Now().UTC())
	c.Potentials[0].UR = c.Potentials[0].UR[:2]
	assert.ErrorIs(t, s.SaveCalculation(context.Background(), c), core.ErrLengthMismatch)
}

func TestListAndDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, name := range []string{"first", "second", "third"} {
		c := sampleCalculation(name, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.SaveCalculation(ctx, c))
		ids = append(ids, c.ID)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].Name)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, 2, runs[0].Potentials)
	assert.Equal(t, "filon", runs[0].Method)

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	require.NoError(t, s.DeleteRun(ctx, ids[0]))
	runs, err = s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	_, err = s.LoadCalculation(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPackCompresses(t *testing.T) {
	s := openStore(t)
	values := make([]float64, 4096)
	blob := s.pack(values)
	assert.Less(t, len(blob), len(core.EncodeSamples(values))/10)

	got, err := s.unpack(blob)
	require.NoError(t, err)
	assert.Equal(t, values, got)

	_, err = s.unpack([]byte("not zstd"))
	assert.Error(t, err)
}

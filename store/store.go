// Package store archives folding calculations in a SQLite database.
//
// A run row holds the reaction and meshes; each potential is a row of
// its own with the sample arrays stored as zstd-compressed blobs of the
// core sample encoding.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mkarakoc/BiFold/core"
	"github.com/mkarakoc/BiFold/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps a SQLite connection.
type Store struct {
	conn   *sqlx.DB
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	logger *zap.Logger
}

// Open opens or creates the database at path. Use ":memory:" for a
// throwaway store.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection keeps ":memory:" databases alive across calls
	conn.SetMaxOpenConns(1)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	s := &Store{conn: conn, enc: enc, dec: dec, logger: logger.Named("store")}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the codecs and the connection.
func (s *Store) Close() error {
	s.dec.Close()
	encErr := s.enc.Close()
	return errors.Join(s.conn.Close(), encErr)
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		name TEXT NOT NULL,
		z_proj REAL NOT NULL,
		a_proj REAL NOT NULL,
		z_targ REAL NOT NULL,
		a_targ REAL NOT NULL,
		e_lab REAL NOT NULL,
		method TEXT NOT NULL,
		r_mesh BLOB NOT NULL,
		q_mesh BLOB
	);

	CREATE TABLE IF NOT EXISTS potentials (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		vol2 REAL NOT NULL,
		msr REAL NOT NULL,
		info_json TEXT NOT NULL,
		inputs_json TEXT NOT NULL,
		u_r BLOB NOT NULL,
		u_q BLOB,
		PRIMARY KEY (run_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.conn.ExecContext(ctx, schema)
	return err
}

func (s *Store) pack(values []float64) []byte {
	if values == nil {
		return nil
	}
	return s.enc.EncodeAll(core.EncodeSamples(values), nil)
}

func (s *Store) unpack(blob []byte) ([]float64, error) {
	if blob == nil {
		return nil, nil
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return core.DecodeSamples(raw)
}

// SaveCalculation writes c, replacing a run with the same ID.
func (s *Store) SaveCalculation(ctx context.Context, c *model.Calculation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := c.ID.String()
	if _, err := tx.ExecContext(ctx, "DELETE FROM potentials WHERE run_id = ?", id); err != nil {
		return err
	}
	r := c.Reaction
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(id, created_at, name, z_proj, a_proj, z_targ, a_targ, e_lab, method, r_mesh, q_mesh)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.CreatedAt.UTC().Format(timeLayout), r.Name, r.ZProj, r.AProj, r.ZTarg, r.ATarg, r.ELab,
		c.Method, s.pack(c.R), s.pack(c.Q)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO potentials
		(run_id, seq, name, vol2, msr, info_json, inputs_json, u_r, u_q)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range c.Potentials {
		info, err := json.Marshal(p.Info)
		if err != nil {
			return err
		}
		inputs, err := json.Marshal(p.Inputs)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, id, i, p.Name, p.Info.Vol2, p.Info.MSR,
			string(info), string(inputs), s.pack(p.UR), s.pack(p.UQ)); err != nil {
			return fmt.Errorf("insert potential %s: %w", p.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debug("saved run", zap.String("id", id), zap.Int("potentials", len(c.Potentials)))
	return nil
}

type runRow struct {
	ID        string  `db:"id"`
	CreatedAt string  `db:"created_at"`
	Name      string  `db:"name"`
	ZProj     float64 `db:"z_proj"`
	AProj     float64 `db:"a_proj"`
	ZTarg     float64 `db:"z_targ"`
	ATarg     float64 `db:"a_targ"`
	ELab      float64 `db:"e_lab"`
	Method    string  `db:"method"`
	RMesh     []byte  `db:"r_mesh"`
	QMesh     []byte  `db:"q_mesh"`
}

type potentialRow struct {
	Name   string `db:"name"`
	Info   string `db:"info_json"`
	Inputs string `db:"inputs_json"`
	UR     []byte `db:"u_r"`
	UQ     []byte `db:"u_q"`
}

// LoadCalculation reads the run with the given ID.
func (s *Store) LoadCalculation(ctx context.Context, id uuid.UUID) (*model.Calculation, error) {
	var row runRow
	err := s.conn.GetContext(ctx, &row, "SELECT * FROM runs WHERE id = ?", id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	created, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("run %s: created_at: %w", id, err)
	}
	c := &model.Calculation{
		ID:        id,
		CreatedAt: created,
		Reaction: model.Reaction{
			Name: row.Name, ZProj: row.ZProj, AProj: row.AProj,
			ZTarg: row.ZTarg, ATarg: row.ATarg, ELab: row.ELab,
		},
		Method: row.Method,
	}
	if c.R, err = s.unpack(row.RMesh); err != nil {
		return nil, fmt.Errorf("run %s: R mesh: %w", id, err)
	}
	if c.Q, err = s.unpack(row.QMesh); err != nil {
		return nil, fmt.Errorf("run %s: q mesh: %w", id, err)
	}

	var rows []potentialRow
	if err := s.conn.SelectContext(ctx, &rows,
		"SELECT name, info_json, inputs_json, u_r, u_q FROM potentials WHERE run_id = ? ORDER BY seq", id.String()); err != nil {
		return nil, err
	}
	for _, pr := range rows {
		p := model.Potential{Name: pr.Name}
		if err := json.Unmarshal([]byte(pr.Info), &p.Info); err != nil {
			return nil, fmt.Errorf("potential %s: %w", pr.Name, err)
		}
		if err := json.Unmarshal([]byte(pr.Inputs), &p.Inputs); err != nil {
			return nil, fmt.Errorf("potential %s: %w", pr.Name, err)
		}
		if p.UR, err = s.unpack(pr.UR); err != nil {
			return nil, fmt.Errorf("potential %s: %w", pr.Name, err)
		}
		if p.UQ, err = s.unpack(pr.UQ); err != nil {
			return nil, fmt.Errorf("potential %s: %w", pr.Name, err)
		}
		c.Potentials = append(c.Potentials, p)
	}
	return c, nil
}

// Run is one line of ListRuns.
type Run struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Name       string
	ELab       float64
	Method     string
	Potentials int
}

// ListRuns returns the most recent runs first. limit <= 0 lists all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT r.id, r.created_at, r.name, r.e_lab, r.method, COUNT(p.name) AS potentials
		FROM runs r LEFT JOIN potentials p ON p.run_id = r.id
		GROUP BY r.id ORDER BY r.created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var rows []struct {
		ID         string  `db:"id"`
		CreatedAt  string  `db:"created_at"`
		Name       string  `db:"name"`
		ELab       float64 `db:"e_lab"`
		Method     string  `db:"method"`
		Potentials int     `db:"potentials"`
	}
	if err := s.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, fmt.Errorf("run id %q: %w", r.ID, err)
		}
		created, err := time.Parse(timeLayout, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("run %s: created_at: %w", r.ID, err)
		}
		runs = append(runs, Run{
			ID: id, CreatedAt: created, Name: r.Name, ELab: r.ELab,
			Method: r.Method, Potentials: r.Potentials,
		})
	}
	return runs, nil
}

// DeleteRun removes a run and its potentials.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM potentials WHERE run_id = ?", id.String()); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

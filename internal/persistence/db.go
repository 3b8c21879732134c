// Package persistence stores recorded replays and finished session results
// in SQLite.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/signalsfoundry/fleetsim/internal/replay"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("persistence: not found")

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS replays (
		id TEXT PRIMARY KEY,
		scenario_id INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		cycles INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		replay_id TEXT,
		scenario_id INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		units INTEGER NOT NULL,
		decisions INTEGER NOT NULL,
		digest TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_replays_scenario ON replays(scenario_id);
	CREATE INDEX IF NOT EXISTS idx_results_scenario ON results(scenario_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// ReplayInfo describes a stored replay without its stream.
type ReplayInfo struct {
	ID         string
	ScenarioID int
	Seed       uint32
	Cycles     uint64
	CreatedAt  time.Time
}

type replayRow struct {
	ID         string `db:"id"`
	ScenarioID int    `db:"scenario_id"`
	Seed       int64  `db:"seed"`
	Cycles     int64  `db:"cycles"`
	Data       []byte `db:"data"`
	CreatedAt  int64  `db:"created_at"`
}

func (r replayRow) info() ReplayInfo {
	return ReplayInfo{
		ID:         r.ID,
		ScenarioID: r.ScenarioID,
		Seed:       uint32(r.Seed),
		Cycles:     uint64(r.Cycles),
		CreatedAt:  time.Unix(0, r.CreatedAt).UTC(),
	}
}

// SaveReplay encodes d and stores it under a fresh ID.
func (db *DB) SaveReplay(ctx context.Context, d *replay.Data) (string, error) {
	blob, err := replay.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("save replay: %w", err)
	}
	id := uuid.NewString()
	_, err = db.conn.ExecContext(ctx, `INSERT INTO replays
		(id, scenario_id, seed, cycles, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, d.ScenarioID, int64(d.Seed), int64(d.Cycles()), blob, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("save replay: %w", err)
	}
	return id, nil
}

// LoadReplay decodes the replay stored under id.
func (db *DB) LoadReplay(ctx context.Context, id string) (*replay.Data, error) {
	var row replayRow
	err := db.conn.GetContext(ctx, &row, `SELECT id, scenario_id, seed, cycles, data, created_at
		FROM replays WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("replay %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", id, err)
	}
	d, err := replay.Unmarshal(row.Data)
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", id, err)
	}
	return d, nil
}

// ListReplays returns replays of scenarioID, newest first.
func (db *DB) ListReplays(ctx context.Context, scenarioID int) ([]ReplayInfo, error) {
	var rows []replayRow
	err := db.conn.SelectContext(ctx, &rows, `SELECT id, scenario_id, seed, cycles, created_at
		FROM replays WHERE scenario_id = ? ORDER BY created_at DESC, id`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("list replays: %w", err)
	}
	out := make([]ReplayInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.info())
	}
	return out, nil
}

// Result is the summary of one finished session.
type Result struct {
	SessionID  string
	ReplayID   string // empty when the session was not recorded
	ScenarioID int
	Outcome    string
	Units      int64
	Decisions  int64
	Digest     uint64
	CreatedAt  time.Time
}

type resultRow struct {
	SessionID  string         `db:"session_id"`
	ReplayID   sql.NullString `db:"replay_id"`
	ScenarioID int            `db:"scenario_id"`
	Outcome    string         `db:"outcome"`
	Units      int64          `db:"units"`
	Decisions  int64          `db:"decisions"`
	Digest     string         `db:"digest"`
	CreatedAt  int64          `db:"created_at"`
}

// SaveResult appends r. A zero CreatedAt is stamped with the current time.
func (db *DB) SaveResult(ctx context.Context, r Result) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	replayID := sql.NullString{String: r.ReplayID, Valid: r.ReplayID != ""}
	_, err := db.conn.ExecContext(ctx, `INSERT INTO results
		(session_id, replay_id, scenario_id, outcome, units, decisions, digest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, replayID, r.ScenarioID, r.Outcome, r.Units, r.Decisions,
		formatDigest(r.Digest), r.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// RecentResults returns up to limit results, newest first.
func (db *DB) RecentResults(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []resultRow
	err := db.conn.SelectContext(ctx, &rows, `SELECT session_id, replay_id, scenario_id, outcome,
		units, decisions, digest, created_at
		FROM results ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	out := make([]Result, 0, len(rows))
	for _, row := range rows {
		digest, err := strconv.ParseUint(row.Digest, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("recent results: digest %q: %w", row.Digest, err)
		}
		out = append(out, Result{
			SessionID:  row.SessionID,
			ReplayID:   row.ReplayID.String,
			ScenarioID: row.ScenarioID,
			Outcome:    row.Outcome,
			Units:      row.Units,
			Decisions:  row.Decisions,
			Digest:     digest,
			CreatedAt:  time.Unix(0, row.CreatedAt).UTC(),
		})
	}
	return out, nil
}

// digests are full uint64s; SQLite integers are signed.
func formatDigest(d uint64) string { return fmt.Sprintf("%016x", d) }

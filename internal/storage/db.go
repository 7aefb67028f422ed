package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"floatclock/internal/clock"
)

// LastPreset is saved on exit and restored on start.
const LastPreset = "last"

// DB wraps SQLite database
type DB struct {
	db *sql.DB
}

// Preset is a named look: animation settings plus a theme.
type Preset struct {
	Name      string         `json:"name"`
	Theme     string         `json:"theme"`
	Settings  clock.Settings `json:"settings"`
	UpdatedAt int64          `json:"updated_at"`
}

// Session records one run of the clock.
type Session struct {
	ID          int64
	Mode        string // "tui" or "headless"
	StartedAt   int64
	EndedAt     int64
	Transitions int
	Cycles      int
	Frames      int64
}

// NewDB creates a new database connection
func NewDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// _pragma=journal_mode(WAL) & _pragma=synchronous(NORMAL)
	dsn := path
	if !strings.Contains(path, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	log.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS presets (
		name TEXT PRIMARY KEY,
		theme TEXT NOT NULL,
		settings TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL,
		transitions INTEGER NOT NULL DEFAULT 0,
		cycles INTEGER NOT NULL DEFAULT 0,
		frames INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	`

	_, err := db.Exec(schema)
	return err
}

// SavePreset inserts or replaces a preset
func (d *DB) SavePreset(p *Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset name is empty")
	}
	blob, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("encode preset %s: %w", p.Name, err)
	}
	if p.UpdatedAt == 0 {
		p.UpdatedAt = Now()
	}
	_, err = d.db.Exec(`
		INSERT OR REPLACE INTO presets (name, theme, settings, updated_at)
		VALUES (?, ?, ?, ?)`,
		p.Name, p.Theme, string(blob), p.UpdatedAt)
	return err
}

// GetPreset retrieves a preset by name. A missing preset is (nil, nil).
func (d *DB) GetPreset(name string) (*Preset, error) {
	var (
		p    Preset
		blob string
	)
	err := d.db.QueryRow(`
		SELECT name, theme, settings, updated_at
		FROM presets WHERE name = ?`, name).Scan(&p.Name, &p.Theme, &blob, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(blob), &p.Settings); err != nil {
		return nil, fmt.Errorf("decode preset %s: %w", name, err)
	}
	return &p, nil
}

// ListPresets returns every preset ordered by name
func (d *DB) ListPresets() ([]*Preset, error) {
	rows, err := d.db.Query(`
		SELECT name, theme, settings, updated_at
		FROM presets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		var (
			p    Preset
			blob string
		)
		if err := rows.Scan(&p.Name, &p.Theme, &blob, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(blob), &p.Settings); err != nil {
			log.Warn().Err(err).Str("preset", p.Name).Msg("skipping unreadable preset")
			continue
		}
		presets = append(presets, &p)
	}
	return presets, rows.Err()
}

// DeletePreset removes a preset
func (d *DB) DeletePreset(name string) error {
	_, err := d.db.Exec("DELETE FROM presets WHERE name = ?", name)
	return err
}

// InsertSession logs a finished run
func (d *DB) InsertSession(s *Session) error {
	res, err := d.db.Exec(`
		INSERT INTO sessions (mode, started_at, ended_at, transitions, cycles, frames)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Mode, s.StartedAt, s.EndedAt, s.Transitions, s.Cycles, s.Frames)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

// GetRecentSessions retrieves the most recent runs
func (d *DB) GetRecentSessions(limit int) ([]*Session, error) {
	rows, err := d.db.Query(`
		SELECT id, mode, started_at, ended_at, transitions, cycles, frames
		FROM sessions ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Mode, &s.StartedAt, &s.EndedAt, &s.Transitions, &s.Cycles, &s.Frames); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// GetUptimeStats returns aggregate run stats
func (d *DB) GetUptimeStats() (runs int, total time.Duration, transitions int, err error) {
	var secs int64
	err = d.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(ended_at - started_at), 0),
			COALESCE(SUM(transitions), 0)
		FROM sessions`).Scan(&runs, &secs, &transitions)
	total = time.Duration(secs) * time.Second
	return
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// Now returns current Unix timestamp (helper)
func Now() int64 {
	return time.Now().Unix()
}

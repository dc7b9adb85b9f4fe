// Package journal persists combat events to sqlite for after-the-fact
// statistics. It is write-only from the simulation's point of view.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"tank-arena/internal/config"
	"tank-arena/internal/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at DATETIME NOT NULL,
	ended_at DATETIME,
	duration REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	match_id INTEGER NOT NULL REFERENCES matches(id),
	event_type TEXT NOT NULL,
	tick INTEGER NOT NULL,
	sim_time REAL NOT NULL,
	slot INTEGER NOT NULL DEFAULT 0,
	target TEXT NOT NULL DEFAULT '',
	x REAL NOT NULL,
	y REAL NOT NULL,
	z REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_match ON events(match_id, event_type);
`

// SlotSummary counts one player's events in a match.
type SlotSummary struct {
	Shots     int
	HitsTaken int
	Deaths    int
	Respawns  int
}

// Journal implements sim.EventSink. Record hands events to a background
// writer that commits them in batches.
type Journal struct {
	db      *sql.DB
	log     zerolog.Logger
	matchID int64
	started time.Time

	events    chan sim.Event
	flushReq  chan chan struct{}
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	flushInterval time.Duration
	batchSize     int

	dropped atomic.Uint64
	written atomic.Uint64
}

// Open creates or opens the database at c.Path, starts a new match row and
// the background writer.
func Open(c config.JournalConfig, log zerolog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", c.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", c.Path, err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migrate: %w", err)
	}

	started := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO matches (started_at) VALUES (?)`, started.Format(time.RFC3339Nano))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("journal start match: %w", err)
	}
	matchID, err := res.LastInsertId()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("journal match id: %w", err)
	}

	buf := c.BufferSize
	if buf <= 0 {
		buf = 1000
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	j := &Journal{
		db:            db,
		log:           log,
		matchID:       matchID,
		started:       started,
		events:        make(chan sim.Event, buf),
		flushReq:      make(chan chan struct{}),
		stop:          make(chan struct{}),
		flushInterval: c.FlushInterval,
		batchSize:     c.BatchSize,
	}
	j.wg.Add(1)
	go j.writer()
	log.Info().Str("path", c.Path).Int64("match", matchID).Msg("journal open")
	return j, nil
}

func (j *Journal) MatchID() int64 { return j.matchID }

// Record enqueues e. It never blocks: when the buffer is full the event is
// dropped and counted.
func (j *Journal) Record(e sim.Event) {
	select {
	case j.events <- e:
	default:
		j.dropped.Add(1)
	}
}

// Stats returns events committed and events dropped at the buffer.
func (j *Journal) Stats() (written, dropped uint64) {
	return j.written.Load(), j.dropped.Load()
}

func (j *Journal) writer() {
	defer j.wg.Done()

	batch := make([]sim.Event, 0, j.batchSize)
	ticker := time.NewTicker(j.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-j.events:
			batch = append(batch, e)
			if len(batch) >= j.batchSize {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				j.flush(batch)
				batch = batch[:0]
			}
		case done := <-j.flushReq:
			batch = j.drain(batch)
			j.flush(batch)
			batch = batch[:0]
			close(done)
		case <-j.stop:
			j.flush(j.drain(batch))
			return
		}
	}
}

// drain appends every event already buffered.
func (j *Journal) drain(batch []sim.Event) []sim.Event {
	for {
		select {
		case e := <-j.events:
			batch = append(batch, e)
		default:
			return batch
		}
	}
}

// Flush commits every event recorded so far. It blocks until the writer is
// done or ctx ends.
func (j *Journal) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case j.flushReq <- done:
	case <-j.stop:
		return errors.New("journal closed")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Journal) flush(events []sim.Event) {
	if len(events) == 0 {
		return
	}
	tx, err := j.db.Begin()
	if err != nil {
		j.log.Error().Err(err).Msg("journal begin")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO events
		(match_id, event_type, tick, sim_time, slot, target, x, y, z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		j.log.Error().Err(err).Msg("journal prepare")
		return
	}
	defer stmt.Close()

	for _, e := range events {
		target := ""
		if e.Type == sim.EventImpact {
			target = e.Target.String()
		}
		_, err := stmt.Exec(j.matchID, string(e.Type), int64(e.Tick), e.Time, int(e.Slot), target,
			e.Position.X(), e.Position.Y(), e.Position.Z())
		if err != nil {
			j.log.Error().Err(err).Str("type", string(e.Type)).Msg("journal insert")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		j.log.Error().Err(err).Int("events", len(events)).Msg("journal commit")
		return
	}
	j.written.Add(uint64(len(events)))
}

// Summary returns per-slot counts of the events committed for matchID.
// Impacts carry the slot of the tank that was hit. Events still buffered
// are not included until they are flushed.
func (j *Journal) Summary(matchID int64) (map[sim.Slot]SlotSummary, error) {
	rows, err := j.db.Query(`
		SELECT slot, event_type, COUNT(*) FROM events
		WHERE match_id = ? AND slot > 0
		GROUP BY slot, event_type
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("journal summary: %w", err)
	}
	defer rows.Close()

	out := make(map[sim.Slot]SlotSummary)
	for rows.Next() {
		var (
			slot  int
			typ   string
			count int
		)
		if err := rows.Scan(&slot, &typ, &count); err != nil {
			return nil, fmt.Errorf("journal summary scan: %w", err)
		}
		s := out[sim.Slot(slot)]
		switch sim.EventType(typ) {
		case sim.EventFired:
			s.Shots += count
		case sim.EventImpact:
			s.HitsTaken += count
		case sim.EventDeath:
			s.Deaths += count
		case sim.EventRespawn:
			s.Respawns += count
		}
		out[sim.Slot(slot)] = s
	}
	return out, rows.Err()
}

// Close flushes buffered events, stamps the match end and closes the
// database. It is safe to call more than once.
func (j *Journal) Close() error {
	j.closeOnce.Do(func() {
		close(j.stop)
		j.wg.Wait()

		ended := time.Now().UTC()
		_, err := j.db.Exec(`UPDATE matches SET ended_at = ?, duration = ? WHERE id = ?`,
			ended.Format(time.RFC3339Nano), ended.Sub(j.started).Seconds(), j.matchID)
		if err != nil {
			j.log.Error().Err(err).Msg("journal end match")
		}
		j.closeErr = j.db.Close()
	})
	return j.closeErr
}

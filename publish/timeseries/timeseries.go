// Package timeseries delivers readings to a TimescaleDB hypertable.
//
// The connection is established lazily and re-checked on every
// delivery, so a store that is down at process start (or goes down
// later) degrades to dropped rows for that store only and recovers
// without a restart.
package timeseries

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"

	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/message"
	"github.com/c360/fieldbridge/publish"
)

// DefaultTable is the hypertable readings are inserted into.
const DefaultTable = "readings"

// Sink inserts one row per reading.
type Sink struct {
	dsn   string
	table string

	mu sync.Mutex
	db *sql.DB
}

// New creates the time-series sink. No connection is attempted here;
// the first Deliver opens it.
func New(dsn, table string) *Sink {
	if table == "" {
		table = DefaultTable
	}
	return &Sink{dsn: dsn, table: table}
}

var _ publish.Sink = (*Sink)(nil)

// Name identifies the sink in logs and metrics.
func (s *Sink) Name() string { return "timeseries" }

// Deliver inserts the reading. Connection problems are reported as sink
// errors and the connection is rebuilt on the next delivery.
func (s *Sink) Deliver(ctx context.Context, r *message.Reading) error {
	db, err := s.conn(ctx)
	if err != nil {
		return errors.NewSinkError(s.Name(), err)
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(time, device_id, object_type, object_instance, semantic_name, value, quality, units)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, s.table)

	_, err = db.ExecContext(ctx, query,
		r.Timestamp, r.DeviceID, r.ObjectType, r.ObjectInstance,
		r.SemanticName, r.Value, r.Quality, r.Units)
	if err != nil {
		s.dropConn()
		return errors.NewSinkError(s.Name(), err)
	}
	return nil
}

// conn returns the live connection, opening and pinging one if needed.
func (s *Sink) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	db, err := sql.Open("postgres", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open timeseries store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("timeseries store unreachable: %w", err)
	}

	db.SetMaxOpenConns(4)
	s.db = db
	return db, nil
}

func (s *Sink) dropConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}

// Close releases the store connection if one is open.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

package pointstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/pkg/timestamp"
)

// schema bootstraps the configuration store so the gateway starts
// cleanly against an empty database. Population is an external concern.
const schema = `
CREATE TABLE IF NOT EXISTS devices (
	id              INTEGER PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL,
	port            INTEGER NOT NULL DEFAULT 47808,
	enabled         INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS points (
	device_id       INTEGER NOT NULL REFERENCES devices(id),
	object_type     TEXT NOT NULL,
	object_instance INTEGER NOT NULL,
	semantic_name   TEXT NOT NULL DEFAULT '',
	display_name    TEXT NOT NULL DEFAULT '',
	units           TEXT NOT NULL DEFAULT '',
	writable        INTEGER NOT NULL DEFAULT 0,
	min_value       REAL,
	max_value       REAL,
	poll_interval_s INTEGER NOT NULL DEFAULT 60,
	qos             INTEGER NOT NULL DEFAULT 0,
	publish_enabled INTEGER NOT NULL DEFAULT 1,
	last_value      REAL,
	last_poll_time  TEXT,
	PRIMARY KEY (device_id, object_type, object_instance)
);
`

// snapshotQuery loads every point of every enabled device in one joined
// query; per-device follow-up queries would turn snapshot refresh into
// a per-refresh query storm on larger sites.
const snapshotQuery = `
SELECT
	d.id, d.name, d.address, d.port,
	p.object_type, p.object_instance,
	p.semantic_name, p.display_name, p.units,
	p.writable, p.min_value, p.max_value,
	p.poll_interval_s, p.qos, p.publish_enabled,
	p.last_value, p.last_poll_time
FROM devices d
JOIN points p ON p.device_id = d.id
WHERE d.enabled = 1
ORDER BY d.id, p.object_type, p.object_instance
`

// Store is the sqlite-backed configuration and latest-value store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the store at path and bootstraps
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Store", "Open", "open database")
	}

	// sqlite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY between the accessor refresh and the latest sink.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapFatal(err, "Store", "Open", "bootstrap schema")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSnapshot reads the full device/point configuration in a single
// joined query and returns it as an immutable snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, snapshotQuery)
	if err != nil {
		return nil, errors.WrapTransient(errors.ErrStoreUnavailable, "Store", "LoadSnapshot",
			fmt.Sprintf("query configuration: %v", err))
	}
	defer rows.Close()

	snap := emptySnapshot()
	snap.LoadedAt = time.Now().UTC()

	for rows.Next() {
		var (
			dev          Device
			pt           Point
			writable     int
			publish      int
			minVal       sql.NullFloat64
			maxVal       sql.NullFloat64
			pollSeconds  int64
			qos          int
			lastValue    sql.NullFloat64
			lastPollTime sql.NullString
		)

		if err := rows.Scan(
			&dev.ID, &dev.Name, &dev.Address, &dev.Port,
			&pt.Object.Type, &pt.Object.Instance,
			&pt.SemanticName, &pt.DisplayName, &pt.Units,
			&writable, &minVal, &maxVal,
			&pollSeconds, &qos, &publish,
			&lastValue, &lastPollTime,
		); err != nil {
			return nil, errors.WrapInvalid(err, "Store", "LoadSnapshot", "scan point row")
		}

		if _, ok := snap.Devices[dev.ID]; !ok {
			d := dev
			d.Enabled = true
			snap.Devices[dev.ID] = &d
		}

		pt.DeviceID = dev.ID
		pt.Writable = writable != 0
		pt.PublishEnabled = publish != 0
		pt.PollInterval = time.Duration(pollSeconds) * time.Second
		pt.QoS = byte(qos)
		if minVal.Valid {
			v := minVal.Float64
			pt.MinValue = &v
		}
		if maxVal.Valid {
			v := maxVal.Float64
			pt.MaxValue = &v
		}
		if lastValue.Valid {
			v := lastValue.Float64
			pt.LastValue = &v
		}
		if lastPollTime.Valid && lastPollTime.String != "" {
			if ts := timestamp.Parse(lastPollTime.String); !ts.IsZero() {
				pt.LastPollTime = &ts
			}
		}

		p := pt
		snap.Points[p.Key()] = &p
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WrapTransient(err, "Store", "LoadSnapshot", "iterate point rows")
	}

	return snap, nil
}

// UpdateLatest writes the latest-value cache columns for a point.
func (s *Store) UpdateLatest(ctx context.Context, key PointKey, value float64, ts time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE points SET last_value = ?, last_poll_time = ?
		 WHERE device_id = ? AND object_type = ? AND object_instance = ?`,
		value, timestamp.Format(ts),
		key.DeviceID, key.Object.Type, key.Object.Instance,
	)
	if err != nil {
		return errors.WrapTransient(errors.ErrStoreUnavailable, "Store", "UpdateLatest",
			fmt.Sprintf("update point %s: %v", key, err))
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return errors.WrapInvalid(errors.ErrPointNotFound, "Store", "UpdateLatest",
			fmt.Sprintf("point %s not in store", key))
	}

	return nil
}

// UpsertDevice inserts or replaces a device row.
func (s *Store) UpsertDevice(ctx context.Context, dev *Device) error {
	enabled := 0
	if dev.Enabled {
		enabled = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (id, name, address, port, enabled)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, address = excluded.address,
			port = excluded.port, enabled = excluded.enabled`,
		dev.ID, dev.Name, dev.Address, dev.Port, enabled,
	)
	if err != nil {
		return errors.WrapTransient(err, "Store", "UpsertDevice",
			fmt.Sprintf("upsert device %d", dev.ID))
	}
	return nil
}

// UpsertPoint inserts or replaces a point row. The latest-value cache
// columns are preserved on update.
func (s *Store) UpsertPoint(ctx context.Context, pt *Point) error {
	writable := 0
	if pt.Writable {
		writable = 1
	}
	publish := 0
	if pt.PublishEnabled {
		publish = 1
	}

	var minVal, maxVal any
	if pt.MinValue != nil {
		minVal = *pt.MinValue
	}
	if pt.MaxValue != nil {
		maxVal = *pt.MaxValue
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO points (
			device_id, object_type, object_instance,
			semantic_name, display_name, units,
			writable, min_value, max_value,
			poll_interval_s, qos, publish_enabled
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(device_id, object_type, object_instance) DO UPDATE SET
			semantic_name = excluded.semantic_name,
			display_name = excluded.display_name,
			units = excluded.units,
			writable = excluded.writable,
			min_value = excluded.min_value,
			max_value = excluded.max_value,
			poll_interval_s = excluded.poll_interval_s,
			qos = excluded.qos,
			publish_enabled = excluded.publish_enabled`,
		pt.DeviceID, pt.Object.Type, pt.Object.Instance,
		pt.SemanticName, pt.DisplayName, pt.Units,
		writable, minVal, maxVal,
		int64(pt.PollInterval/time.Second), pt.QoS, publish,
	)
	if err != nil {
		return errors.WrapTransient(err, "Store", "UpsertPoint",
			fmt.Sprintf("upsert point %s", pt.Key()))
	}
	return nil
}

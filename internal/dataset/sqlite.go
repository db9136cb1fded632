package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/analytics"
)

// SQLiteLoader reads the raw tables from a local SQLite file with the same
// factory_minutes / downtime_events / spc_samples schema as the MySQL source.
// SQLite has no native time type, so timestamps are stored as text.
type SQLiteLoader struct {
	db   *sql.DB
	path string
}

func NewSQLiteLoader(path string) (*SQLiteLoader, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteLoader{db: db, path: path}, nil
}

func (l *SQLiteLoader) Describe() string { return "sqlite:" + l.path }

func (l *SQLiteLoader) Close() error { return l.db.Close() }

// Ping reports backend reachability for the status endpoint.
func (l *SQLiteLoader) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

func (l *SQLiteLoader) Load(ctx context.Context) (*Dataset, error) {
	minutes, err := l.loadMinutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("factory_minutes: %w", err)
	}

	var downtime []analytics.DowntimeEvent
	rows, err := l.db.QueryContext(ctx, `SELECT machine, cause, minutes FROM downtime_events;`)
	if err != nil {
		return nil, fmt.Errorf("downtime_events: %w", err)
	}
	for rows.Next() {
		var ev analytics.DowntimeEvent
		if err := rows.Scan(&ev.Machine, &ev.Cause, &ev.Minutes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("downtime_events: %w", err)
		}
		downtime = append(downtime, ev)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("downtime_events: %w", err)
	}
	rows.Close()

	var spc []analytics.SPCSample
	rows, err = l.db.QueryContext(ctx, `SELECT machine, xbar, r FROM spc_samples;`)
	if err != nil {
		return nil, fmt.Errorf("spc_samples: %w", err)
	}
	for rows.Next() {
		var s analytics.SPCSample
		if err := rows.Scan(&s.Machine, &s.Xbar, &s.R); err != nil {
			rows.Close()
			return nil, fmt.Errorf("spc_samples: %w", err)
		}
		spc = append(spc, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("spc_samples: %w", err)
	}
	rows.Close()

	return New(l.Describe(), minutes, downtime, spc), nil
}

func (l *SQLiteLoader) loadMinutes(ctx context.Context) ([]analytics.MinuteRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT ts, machine, shift, is_running, units, good_units
FROM factory_minutes
ORDER BY ts;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analytics.MinuteRecord
	for rows.Next() {
		var rec analytics.MinuteRecord
		var rawTS string
		var running int64
		if err := rows.Scan(&rawTS, &rec.Machine, &rec.Shift, &running, &rec.Units, &rec.GoodUnits); err != nil {
			return nil, err
		}
		ts, err := parseTimestamp(rawTS)
		if err != nil {
			return nil, err
		}
		rec.Timestamp = ts
		rec.IsRunning = running != 0
		rec.Day = ts.Format("2006-01-02")
		out = append(out, rec)
	}
	return out, rows.Err()
}

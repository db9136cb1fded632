package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/analytics"
	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/config"
)

// MySQLLoader reads the raw tables from a MySQL database holding the
// factory_minutes, downtime_events and spc_samples tables.
type MySQLLoader struct {
	db           *sql.DB
	queryTimeout time.Duration
	dbName       string
}

func NewMySQLLoader(cfg config.Config) (*MySQLLoader, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBConnTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &MySQLLoader{db: db, queryTimeout: cfg.DBQueryTimeout, dbName: cfg.DBName}, nil
}

func (l *MySQLLoader) Describe() string { return "mysql:" + l.dbName }

func (l *MySQLLoader) Close() error { return l.db.Close() }

// Ping reports backend reachability for the status endpoint.
func (l *MySQLLoader) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.queryTimeout)
	defer cancel()
	return l.db.PingContext(ctx)
}

func (l *MySQLLoader) Load(ctx context.Context) (*Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, l.queryTimeout)
	defer cancel()

	minutes, err := l.loadMinutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("factory_minutes: %w", err)
	}
	downtime, err := l.loadDowntime(ctx)
	if err != nil {
		return nil, fmt.Errorf("downtime_events: %w", err)
	}
	spc, err := l.loadSPC(ctx)
	if err != nil {
		return nil, fmt.Errorf("spc_samples: %w", err)
	}

	return New(l.Describe(), minutes, downtime, spc), nil
}

func (l *MySQLLoader) loadMinutes(ctx context.Context) ([]analytics.MinuteRecord, error) {
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
		var running int64
		if err := rows.Scan(&rec.Timestamp, &rec.Machine, &rec.Shift, &running, &rec.Units, &rec.GoodUnits); err != nil {
			return nil, err
		}
		rec.IsRunning = running != 0
		rec.Day = rec.Timestamp.Format("2006-01-02")
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (l *MySQLLoader) loadDowntime(ctx context.Context) ([]analytics.DowntimeEvent, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT machine, cause, minutes
FROM downtime_events;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analytics.DowntimeEvent
	for rows.Next() {
		var ev analytics.DowntimeEvent
		if err := rows.Scan(&ev.Machine, &ev.Cause, &ev.Minutes); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (l *MySQLLoader) loadSPC(ctx context.Context) ([]analytics.SPCSample, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT machine, xbar, r
FROM spc_samples;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analytics.SPCSample
	for rows.Next() {
		var s analytics.SPCSample
		if err := rows.Scan(&s.Machine, &s.Xbar, &s.R); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

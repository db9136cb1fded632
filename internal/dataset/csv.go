package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/analytics"
)

// Raw table file names as published by the data repository.
const (
	MinuteLogFile   = "factory_data.csv"
	DowntimeLogFile = "downtime_pareto.csv"
	SPCLogFile      = "spc_xbar_r.csv"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// DecodeMinuteLog reads the minutely production log. The day column is
// optional; when absent it is derived from the parsed timestamp.
func DecodeMinuteLog(r io.Reader) ([]analytics.MinuteRecord, error) {
	rows, cols, err := readTable(r, "timestamp", "machine", "shift", "is_running", "units", "good_units")
	if err != nil {
		return nil, fmt.Errorf("minute log: %w", err)
	}

	dayCol, hasDay := cols["day"]
	out := make([]analytics.MinuteRecord, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTimestamp(row[cols["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("minute log row %d: %w", i+2, err)
		}
		running, err := parseBool01(row[cols["is_running"]])
		if err != nil {
			return nil, fmt.Errorf("minute log row %d: is_running: %w", i+2, err)
		}
		units, err := parseInt(row[cols["units"]])
		if err != nil {
			return nil, fmt.Errorf("minute log row %d: units: %w", i+2, err)
		}
		good, err := parseInt(row[cols["good_units"]])
		if err != nil {
			return nil, fmt.Errorf("minute log row %d: good_units: %w", i+2, err)
		}

		day := ts.Format("2006-01-02")
		if hasDay {
			if v := strings.TrimSpace(row[dayCol]); v != "" {
				day = v
			}
		}

		out = append(out, analytics.MinuteRecord{
			Timestamp: ts,
			Machine:   strings.TrimSpace(row[cols["machine"]]),
			Shift:     strings.TrimSpace(row[cols["shift"]]),
			Day:       day,
			IsRunning: running,
			Units:     units,
			GoodUnits: good,
		})
	}
	return out, nil
}

// DecodeDowntimeLog reads the per-event downtime table.
func DecodeDowntimeLog(r io.Reader) ([]analytics.DowntimeEvent, error) {
	rows, cols, err := readTable(r, "machine", "cause", "minutes")
	if err != nil {
		return nil, fmt.Errorf("downtime log: %w", err)
	}

	out := make([]analytics.DowntimeEvent, 0, len(rows))
	for i, row := range rows {
		minutes, err := parseFloat(row[cols["minutes"]])
		if err != nil {
			return nil, fmt.Errorf("downtime log row %d: minutes: %w", i+2, err)
		}
		out = append(out, analytics.DowntimeEvent{
			Machine: strings.TrimSpace(row[cols["machine"]]),
			Cause:   strings.TrimSpace(row[cols["cause"]]),
			Minutes: minutes,
		})
	}
	return out, nil
}

// DecodeSPCLog reads the x-bar/R sample table. The R column is accepted as
// either "r" or "R" after header normalization.
func DecodeSPCLog(r io.Reader) ([]analytics.SPCSample, error) {
	rows, cols, err := readTable(r, "machine", "xbar", "r")
	if err != nil {
		return nil, fmt.Errorf("spc log: %w", err)
	}

	out := make([]analytics.SPCSample, 0, len(rows))
	for i, row := range rows {
		xbar, err := parseFloat(row[cols["xbar"]])
		if err != nil {
			return nil, fmt.Errorf("spc log row %d: xbar: %w", i+2, err)
		}
		rng, err := parseFloat(row[cols["r"]])
		if err != nil {
			return nil, fmt.Errorf("spc log row %d: r: %w", i+2, err)
		}
		out = append(out, analytics.SPCSample{
			Machine: strings.TrimSpace(row[cols["machine"]]),
			Xbar:    xbar,
			R:       rng,
		})
	}
	return out, nil
}

// readTable reads a full CSV table and verifies the required columns exist.
// Header names are matched case-insensitively with surrounding quotes and
// whitespace stripped. Missing columns fail fast here, at load time.
func readTable(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(h, `"`, "")))
		if name != "" {
			cols[name] = i
		}
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read error: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, cols, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}

func parseBool01(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "t", "yes":
		return true, nil
	case "0", "false", "f", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("unparseable boolean %q", raw)
}

func parseInt(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Some exports write integral counts as floats.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0, err
		}
		return int64(f), nil
	}
	return v, nil
}

func parseFloat(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/analytics"
)

// Loader produces a fresh immutable snapshot of the three raw tables.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
	Describe() string
}

// CSVLoader reads the raw tables as CSV files, either from a local
// directory or from an HTTP base URL (e.g. a GitHub raw path).
type CSVLoader struct {
	dir     string
	baseURL string
	http    *http.Client
}

// NewCSVLoader builds a loader for a directory and/or base URL; the base
// URL wins when both are set.
func NewCSVLoader(dir, baseURL string, fetchTimeout time.Duration) *CSVLoader {
	return &CSVLoader{
		dir:     strings.TrimSpace(dir),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: fetchTimeout},
	}
}

func (l *CSVLoader) Describe() string {
	if l.baseURL != "" {
		return "csv:" + l.baseURL
	}
	return "csv:" + l.dir
}

func (l *CSVLoader) Load(ctx context.Context) (*Dataset, error) {
	var minutes []analytics.MinuteRecord
	var downtime []analytics.DowntimeEvent
	var spc []analytics.SPCSample

	if err := l.readFile(ctx, MinuteLogFile, func(r io.Reader) error {
		var err error
		minutes, err = DecodeMinuteLog(r)
		return err
	}); err != nil {
		return nil, err
	}
	if err := l.readFile(ctx, DowntimeLogFile, func(r io.Reader) error {
		var err error
		downtime, err = DecodeDowntimeLog(r)
		return err
	}); err != nil {
		return nil, err
	}
	if err := l.readFile(ctx, SPCLogFile, func(r io.Reader) error {
		var err error
		spc, err = DecodeSPCLog(r)
		return err
	}); err != nil {
		return nil, err
	}

	return New(l.Describe(), minutes, downtime, spc), nil
}

func (l *CSVLoader) readFile(ctx context.Context, name string, decode func(io.Reader) error) error {
	if l.baseURL != "" {
		return l.fetch(ctx, name, decode)
	}

	f, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()
	return decode(f)
}

func (l *CSVLoader) fetch(ctx context.Context, name string, decode func(io.Reader) error) error {
	url := l.baseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/csv, text/plain")

	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("fetch %s: unexpected status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return decode(resp.Body)
}

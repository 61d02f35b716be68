// Package report reads the CSV result file written by the latency
// measurement tool (CloudflareSpeedTest "result.csv") into records
// sorted by latency.
//
// The expected layout is a header row followed by one row per address:
//
//	IP 地址,已发送,已接收,丢包率,平均延迟,下载速度 (MB/s)
//	104.16.1.1,4,4,0.00,151.23,0.00
//
// Only column 0 (address) and column 4 (average latency in ms) are used.
package report

import (
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/edgepick/edgepick/region"
)

// SentinelLatency is used for rows where the latency column is missing
// or can't be parsed. Such rows sort after every measured address.
const SentinelLatency = 9999.0

const (
	addressColumn = 0
	latencyColumn = 4
)

// Record is one measured address.
type Record struct {
	Address string
	Latency float64
	Region  region.Code

	Source string // report file, empty when read from a stream
	Row    int    // 1-based data row, header excluded
}

// Report is the parsed content of one or more result files.
type Report struct {
	// Records are sorted by ascending latency; ties keep input order.
	Records []Record

	Malformed int // rows kept with SentinelLatency
	Skipped   int // rows without an address
}

// Len returns the number of records.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

// Load parses a report from r.
func Load(r io.Reader) (*Report, error) {
	rep, err := read(r, "")
	if err != nil {
		return nil, err
	}
	rep.sort()
	return rep, nil
}

// LoadFile parses the report at path.
func LoadFile(path string) (*Report, error) {
	rep, err := readFile(path)
	if err != nil {
		return nil, err
	}
	rep.sort()
	return rep, nil
}

// LoadFiles reads several reports concurrently and merges them. Records
// from earlier paths win latency ties over later ones.
func LoadFiles(ctx context.Context, paths ...string) (*Report, error) {
	ctx, span := otel.Tracer("report").Start(ctx, "LoadFiles")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("paths", paths))

	parts := make([]*Report, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := readFile(path)
			if err != nil {
				return err
			}
			parts[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	merged := &Report{}
	for _, p := range parts {
		merged.Records = append(merged.Records, p.Records...)
		merged.Malformed += p.Malformed
		merged.Skipped += p.Skipped
	}
	merged.sort()

	span.SetAttributes(attribute.Int("records", len(merged.Records)))

	return merged, nil
}

func readFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rep, err := read(f, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rep, nil
}

func read(r io.Reader, source string) (*Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	rep := &Report{}

	// header
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return rep, nil
		}
		return nil, err
	}

	row := 0
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row++

		if len(fields) == 0 {
			rep.Skipped++
			continue
		}
		addr := strings.TrimSpace(fields[addressColumn])
		if addr == "" {
			rep.Skipped++
			continue
		}

		latency, ok := parseLatency(fields)
		if !ok {
			rep.Malformed++
		}

		rep.Records = append(rep.Records, Record{
			Address: addr,
			Latency: latency,
			Region:  region.Classify(addr),
			Source:  source,
			Row:     row,
		})
	}

	return rep, nil
}

func parseLatency(fields []string) (float64, bool) {
	if len(fields) <= latencyColumn {
		return SentinelLatency, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[latencyColumn]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return SentinelLatency, false
	}
	return v, true
}

func (r *Report) sort() {
	slices.SortStableFunc(r.Records, func(a, b Record) int {
		return cmp.Compare(a.Latency, b.Latency)
	})
}

package refdata

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/yegors/procroute/internal/procdb"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// decompress wraps r in a gzip or zstd reader when its first bytes carry
// the matching magic number. Plain text is passed through.
func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return br, func() {}, nil
	}
}

// ReadTable parses CSV (optionally gzip or zstd compressed) into a table.
// The first record is the header. Rows may be ragged and quotes are read
// leniently, since reference exports are not always well formed.
func ReadTable(r io.Reader) (procdb.Table, error) {
	plain, closeFn, err := decompress(r)
	if err != nil {
		return procdb.Table{}, err
	}
	defer closeFn()

	cr := csv.NewReader(plain)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return procdb.Table{}, procdb.ErrEmptyTable
	}
	if err != nil {
		return procdb.Table{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := procdb.Table{Columns: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return procdb.Table{}, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// CSVSource reads each family from a CSV file on disk
type CSVSource struct {
	Paths map[procdb.Family]string
}

// NewCSVSource creates a CSV source
func NewCSVSource(dpPath, starPath string) *CSVSource {
	return &CSVSource{Paths: map[procdb.Family]string{
		procdb.DP:   dpPath,
		procdb.STAR: starPath,
	}}
}

// Name implements Source
func (s *CSVSource) Name() string {
	return "csv"
}

// Fetch implements Source
func (s *CSVSource) Fetch(ctx context.Context, f procdb.Family) (procdb.Table, error) {
	if err := ctx.Err(); err != nil {
		return procdb.Table{}, err
	}
	path := s.Paths[f]
	if path == "" {
		return procdb.Table{}, fmt.Errorf("no %s reference file configured", f)
	}

	file, err := os.Open(path)
	if err != nil {
		return procdb.Table{}, fmt.Errorf("failed to open %s reference file: %w", f, err)
	}
	defer file.Close()

	table, err := ReadTable(file)
	if err != nil {
		return procdb.Table{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

// Files returns the configured file paths, for watching
func (s *CSVSource) Files() []string {
	var files []string
	for _, f := range procdb.Families {
		if p := s.Paths[f]; p != "" {
			files = append(files, p)
		}
	}
	return files
}

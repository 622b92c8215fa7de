package chain

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// MinDaysToExpiry is the floor applied to ingested expiries so that
// same-day contracts still carry a full day of time value.
const MinDaysToExpiry = 1.0

// Format identifies the on-disk encoding of a chain file.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

type LoadOptions struct {
	// AsOf is the valuation date used to turn expiry dates into days. Zero means today.
	AsOf              time.Time
	DefaultSymbol     string
	DefaultVolatility float64
	// PercentIVCutoff marks values above it as percentage quotes (25 == 0.25).
	PercentIVCutoff float64
	MinVolatility   float64
	MaxVolatility   float64
	MaxFileSizeMB   int
}

func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		DefaultVolatility: 0.20,
		PercentIVCutoff:   10,
		MinVolatility:     0.01,
		MaxVolatility:     2.0,
		MaxFileSizeMB:     100,
	}
}

func (o LoadOptions) asOf() time.Time {
	if o.AsOf.IsZero() {
		return time.Now()
	}
	return o.AsOf
}

// LoadResult holds the contracts read from one source plus the rows that
// were skipped along the way.
type LoadResult struct {
	Path      string
	Contracts []OptionContract
	Issues    []Issue
}

type FileLoader struct {
	opts   LoadOptions
	logger *zap.Logger
}

func NewFileLoader(opts LoadOptions, logger *zap.Logger) *FileLoader {
	return &FileLoader{opts: opts, logger: logger}
}

// DetectFormat derives the encoding from the file name. A trailing .zst
// marks zstd compression of the inner format.
func DetectFormat(path string) (Format, bool, error) {
	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, ".zst")
	name = strings.TrimSuffix(name, ".zst")

	switch filepath.Ext(name) {
	case ".csv":
		return FormatCSV, compressed, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, compressed, nil
	default:
		return "", compressed, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func (l *FileLoader) Load(path string) (*LoadResult, error) {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat chain file: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	if limit := int64(l.opts.MaxFileSizeMB) << 20; limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chain file: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if compressed {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	result, err := l.Read(r, format)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	result.Path = path

	l.logger.Info("loaded chain",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Bool("compressed", compressed),
		zap.Int("contracts", len(result.Contracts)),
		zap.Int("skipped", len(result.Issues)),
	)
	for _, issue := range result.Issues {
		l.logger.Debug("skipped row", zap.String("issue", issue.String()))
	}

	return result, nil
}

// Read decodes a chain from r in the given format.
func (l *FileLoader) Read(r io.Reader, format Format) (*LoadResult, error) {
	var (
		records []Record
		lines   []int
		err     error
	)
	switch format {
	case FormatCSV:
		records, lines, err = readCSV(r)
	case FormatJSONL:
		records, lines, err = readJSONL(r)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Contracts: make([]OptionContract, 0, len(records))}
	for i, rec := range records {
		c, err := rec.ToContract(l.opts)
		if err != nil {
			result.Issues = append(result.Issues, Issue{
				Index:  i,
				Line:   lines[i],
				Symbol: rec.Symbol,
				Reason: err.Error(),
			})
			continue
		}
		result.Contracts = append(result.Contracts, c)
	}
	return result, nil
}

// rowsReader replays already-parsed CSV rows to gocsv.
type rowsReader struct {
	rows [][]string
	pos  int
}

func (r *rowsReader) Read() ([]string, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.pos:]
	r.pos = len(r.rows)
	return rest, nil
}

func readCSV(r io.Reader) ([]Record, []int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}

	present := make(map[string]bool, len(rows[0]))
	for i, col := range rows[0] {
		rows[0][i] = NormalizeColumn(col)
		present[rows[0][i]] = true
	}
	if err := checkColumns(present); err != nil {
		return nil, nil, err
	}

	var records []Record
	if len(rows) > 1 {
		if err := gocsv.UnmarshalCSV(&rowsReader{rows: rows}, &records); err != nil {
			return nil, nil, fmt.Errorf("decoding csv rows: %w", err)
		}
	}

	lines := make([]int, len(records))
	for i := range lines {
		lines[i] = i + 2
	}
	return records, lines, nil
}

func readJSONL(r io.Reader) ([]Record, []int, error) {
	scanner := bufio.NewScanner(r)

	// Increase buffer size for large lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var (
		records []Record
		lines   []int
		present = make(map[string]bool)
		lineNum = 0
	)
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		var rec Record
		for k, v := range raw {
			col := NormalizeColumn(k)
			present[col] = true
			rec.set(col, jsonText(v))
		}
		records = append(records, rec)
		lines = append(lines, lineNum)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}
	if err := checkColumns(present); err != nil {
		return nil, nil, err
	}
	return records, lines, nil
}

func jsonText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/download"
)

// DefaultWorkers is used when a row leaves the workers column empty.
const DefaultWorkers = 4

// ErrMissingColumn means the header lacks the url column.
var ErrMissingColumn = errors.New("batch file has no url column")

// Row is one drama to download.
type Row struct {
	Line        int
	URL         string
	Name        string
	BaseOutput  string
	DownloadAll bool
	Episodes    string
	Workers     int
}

// Request converts the row to a download request. Empty columns fall back
// to settings.
func (r Row) Request(settings *config.Settings) download.Request {
	req := download.NewRequest(settings, r.URL)
	req.Name = r.Name
	req.DownloadAll = r.DownloadAll
	req.Episodes = r.Episodes
	if r.BaseOutput != "" {
		req.BaseOutput = r.BaseOutput
	}
	if r.Workers > 0 {
		req.Workers = r.Workers
	}
	return req
}

// ReadFile parses the CSV file at path.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads CSV with the header
//
//	url,name,base_output,download_all,episode_list,workers
//
// Only url is required. Column order is free and names are case
// insensitive. Rows without a url are skipped.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["url"]; !ok {
		return nil, ErrMissingColumn
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := Row{
			Line:        line,
			URL:         field("url"),
			Name:        field("name"),
			BaseOutput:  field("base_output"),
			DownloadAll: parseBool(field("download_all")),
			Episodes:    field("episode_list"),
			Workers:     DefaultWorkers,
		}
		if row.URL == "" {
			continue
		}
		if w := field("workers"); w != "" {
			n, err := strconv.Atoi(w)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("line %d: invalid workers %q", line, w)
			}
			row.Workers = n
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// Runner runs one download. download.Manager implements it.
type Runner interface {
	Run(ctx context.Context, req download.Request) (*download.Summary, error)
}

// Result is the outcome of one row.
type Result struct {
	Row     Row
	Summary *download.Summary
	Err     error
}

// Run downloads rows one after another. A failing row does not stop the
// batch; a cancelled context or cancelled run does.
func Run(ctx context.Context, runner Runner, settings *config.Settings, rows []Row, logger *slog.Logger) []Result {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		logger.Info("Batch row", "line", row.Line, "url", row.URL)

		summary, err := runner.Run(ctx, row.Request(settings))
		if err != nil {
			logger.Error("Batch row failed", "line", row.Line, "url", row.URL, "error", err)
		}
		results = append(results, Result{Row: row, Summary: summary, Err: err})

		if summary != nil && summary.Cancelled {
			break
		}
	}
	return results
}

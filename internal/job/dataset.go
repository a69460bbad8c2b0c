package job

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

// ErrNoHeader is returned for a dataset without a header row.
var ErrNoHeader = errors.New("dataset has no header row")

// datasetDoc is the JSON dataset layout.
type datasetDoc struct {
	Headers []string           `json:"headers"`
	Rows    [][]core.CellValue `json:"rows"`
}

// LoadDataset reads a .json or .csv dataset. Other extensions are read as
// CSV. Files over MaxFileSize are rejected.
func LoadDataset(path string) (core.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	r := &sizeLimitReader{r: f, max: MaxFileSize}
	var ds core.Dataset
	if strings.EqualFold(filepath.Ext(path), ".json") {
		ds, err = DecodeJSONDataset(r)
	} else {
		ds, err = ParseCSVReader(r)
	}
	if err != nil {
		return core.Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// DecodeJSONDataset reads {"headers": [...], "rows": [[...], ...]}.
func DecodeJSONDataset(r io.Reader) (core.Dataset, error) {
	var doc datasetDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return core.Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	if len(doc.Headers) == 0 {
		return core.Dataset{}, ErrNoHeader
	}
	return core.Dataset{Headers: doc.Headers, Rows: doc.Rows}, nil
}

// ParseCSV reads a CSV export held in memory.
func ParseCSV(data []byte) (core.Dataset, error) {
	return ParseCSVReader(bytes.NewReader(data))
}

// ParseCSVReader reads a CSV export record by record. The first non-empty
// record is the header. Cells are cleaned of spreadsheet artifacts and
// kept as text; blank records are dropped.
func ParseCSVReader(src io.Reader) (core.Dataset, error) {
	r := csv.NewReader(newTextReader(src))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	var ds core.Dataset
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.Dataset{}, fmt.Errorf("parse csv: %w", err)
		}
		if isEmptyRecord(rec) {
			continue
		}
		if ds.Headers == nil {
			ds.Headers = make([]string, len(rec))
			for i, h := range rec {
				ds.Headers[i] = core.CleanCell(h)
			}
			continue
		}
		row := make([]core.CellValue, len(rec))
		for i, v := range rec {
			row[i] = core.Text(core.CleanCell(v))
		}
		ds.Rows = append(ds.Rows, row)
	}
	if ds.Headers == nil {
		return core.Dataset{}, ErrNoHeader
	}
	return ds, nil
}

func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package domainrank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/serpdex/internal/domain"
)

func loadCSV(path string) (map[string]float64, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	return readCSV(f)
}

func readCSV(r io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	domIdx, rankIdx := -1, -1
	for i, name := range header {
		switch normalizeColumn(name) {
		case domainColumn:
			domIdx = i
		case rankColumn:
			rankIdx = i
		}
	}
	if domIdx < 0 || rankIdx < 0 {
		return nil, fmt.Errorf("missing Domain or Open Page Rank column in header %v: %w", header, domain.ErrValidation)
	}

	ranks := make(map[string]float64)
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		rank, err := strconv.ParseFloat(strings.TrimSpace(rec[rankIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: rank %q: %w", row, rec[rankIdx], domain.ErrValidation)
		}
		if err := checkEntry(ranks, row, rec[domIdx], rank); err != nil {
			return nil, err
		}
	}
	return ranks, nil
}

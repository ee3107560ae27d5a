package domainrank

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/serpdex/internal/domain"
)

func loadParquet(path string) (map[string]float64, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	domIdx, rankIdx := -1, -1
	for i, col := range pf.Schema().Columns() {
		if len(col) == 0 {
			continue
		}
		switch normalizeColumn(col[0]) {
		case domainColumn:
			domIdx = i
		case rankColumn:
			rankIdx = i
		}
	}
	if domIdx < 0 || rankIdx < 0 {
		return nil, fmt.Errorf("missing Domain or Open Page Rank column: %w", domain.ErrValidation)
	}

	ranks := make(map[string]float64)
	row := 0
	buf := make([]parquet.Row, 512)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := range n {
				row++
				host, rank, err := rowEntry(buf[i], domIdx, rankIdx)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", row, err)
				}
				if err := checkEntry(ranks, row, host, rank); err != nil {
					return nil, err
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return ranks, nil
}

func rowEntry(row parquet.Row, domIdx, rankIdx int) (string, float64, error) {
	var (
		host    string
		rank    float64
		hasRank bool
	)
	for _, v := range row {
		switch v.Column() {
		case domIdx:
			if !v.IsNull() {
				host = v.String()
			}
		case rankIdx:
			if v.IsNull() {
				return "", 0, fmt.Errorf("null rank: %w", domain.ErrValidation)
			}
			r, err := numericValue(v)
			if err != nil {
				return "", 0, err
			}
			rank, hasRank = r, true
		}
	}
	if !hasRank {
		return "", 0, fmt.Errorf("missing rank: %w", domain.ErrValidation)
	}
	return host, rank, nil
}

func numericValue(v parquet.Value) (float64, error) {
	switch v.Kind() {
	case parquet.Double:
		return v.Double(), nil
	case parquet.Float:
		return float64(v.Float()), nil
	case parquet.Int32:
		return float64(v.Int32()), nil
	case parquet.Int64:
		return float64(v.Int64()), nil
	case parquet.ByteArray:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil {
			return 0, fmt.Errorf("rank %q: %w", v.String(), domain.ErrValidation)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported rank type %s: %w", v.Kind(), domain.ErrValidation)
	}
}

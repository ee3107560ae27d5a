// Package domainrank loads the domain-authority side file into an immutable rank table.
//
// The file has a "Domain" and an "Open Page Rank" column and may be CSV or Parquet.
// Column names match case-insensitively, ignoring spaces and underscores, so
// "open_page_rank" works too. Any bad row fails the load.
package domainrank

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/serpdex/internal/domain"
	"github.com/kailas-cloud/serpdex/internal/domain/authority"
)

const (
	domainColumn = "domain"
	rankColumn   = "openpagerank"
)

// Load reads the side file at path. The format follows the extension.
func Load(path string) (*authority.RankTable, error) {
	var (
		ranks map[string]float64
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		ranks, err = loadCSV(path)
	case ".parquet":
		ranks, err = loadParquet(path)
	default:
		return nil, fmt.Errorf("domain rank file %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("domain rank file %s: %w", path, err)
	}

	table, err := authority.NewRankTable(ranks)
	if err != nil {
		return nil, fmt.Errorf("domain rank file %s: %w", path, err)
	}
	return table, nil
}

func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "_", "").Replace(name)
}

func checkEntry(ranks map[string]float64, row int, host string, rank float64) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("row %d: empty domain: %w", row, domain.ErrValidation)
	}
	if !authority.ValidRank(rank) {
		return fmt.Errorf("row %d: invalid rank %v for %q: %w", row, rank, host, domain.ErrValidation)
	}
	ranks[host] = rank
	return nil
}

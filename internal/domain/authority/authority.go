// Package authority holds the static domain-authority data used to reweight results.
package authority

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/serpdex/internal/domain"
)

// RankTable maps a host name to a non-negative authority rank. Immutable once built.
type RankTable struct {
	ranks map[string]float64
}

// NewRankTable copies ranks into an immutable table.
func NewRankTable(ranks map[string]float64) (*RankTable, error) {
	m := make(map[string]float64, len(ranks))
	for host, rank := range ranks {
		if host == "" {
			return nil, fmt.Errorf("empty domain: %w", domain.ErrValidation)
		}
		if !ValidRank(rank) {
			return nil, fmt.Errorf("invalid rank %v for %q: %w", rank, host, domain.ErrValidation)
		}
		m[host] = rank
	}
	return &RankTable{ranks: m}, nil
}

// ValidRank reports whether rank is a finite non-negative number.
func ValidRank(rank float64) bool {
	return !math.IsNaN(rank) && !math.IsInf(rank, 0) && rank >= 0
}

// ValidImportance reports whether importance lies in [0, 1]. NaN is rejected.
func ValidImportance(importance float64) bool {
	return importance >= 0 && importance <= 1
}

// Rank returns the rank of host, 0 when unknown.
func (t *RankTable) Rank(host string) float64 {
	if t == nil {
		return 0
	}
	return t.ranks[host]
}

// Len returns the number of hosts in the table.
func (t *RankTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ranks)
}

// Module is either disabled or enabled with an importance weight and a rank table.
// The zero value is disabled.
type Module struct {
	enabled    bool
	importance float64
	table      *RankTable
}

// Disabled returns a module that refuses to rerank.
func Disabled() Module { return Module{} }

// Enabled returns a module blending scores with importance in [0, 1].
func Enabled(importance float64, table *RankTable) (Module, error) {
	if !ValidImportance(importance) {
		return Module{}, fmt.Errorf("importance must be in [0, 1], got %v: %w", importance, domain.ErrValidation)
	}
	if table == nil {
		return Module{}, fmt.Errorf("rank table is required: %w", domain.ErrValidation)
	}
	return Module{enabled: true, importance: importance, table: table}, nil
}

// IsEnabled reports whether the module is configured.
func (m Module) IsEnabled() bool { return m.enabled }

// Importance returns the blend weight of the authority rank.
func (m Module) Importance() float64 { return m.importance }

// Table returns the rank table, nil when disabled.
func (m Module) Table() *RankTable { return m.table }

// HostOf extracts the host of rawURL: the segment between "://" and the next "/".
func HostOf(rawURL string) (string, error) {
	_, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return "", fmt.Errorf("no scheme separator in %q", rawURL)
	}
	host, _, _ := strings.Cut(rest, "/")
	if host == "" {
		return "", fmt.Errorf("empty host in %q", rawURL)
	}
	return host, nil
}

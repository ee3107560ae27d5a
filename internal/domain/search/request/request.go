package request

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/serpdex/internal/domain"
)

// Default stage limits. Anything above MaxLimitFactor times a default is rejected.
const (
	DefaultBroad        = 1000
	DefaultDeduped      = 100
	DefaultHierarchical = 25
	DefaultFinal        = 10

	MaxLimitFactor = 3

	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
)

// Limits holds the per-stage result counts.
type Limits struct {
	Broad        int
	Deduped      int
	Hierarchical int
	Final        int
}

// DefaultLimits returns the stage limits used when a request leaves them unset.
func DefaultLimits() Limits {
	return Limits{
		Broad:        DefaultBroad,
		Deduped:      DefaultDeduped,
		Hierarchical: DefaultHierarchical,
		Final:        DefaultFinal,
	}
}

// Request is a validated search query.
type Request struct {
	query       string
	limits      Limits
	urlContains []string
}

// New validates the query and its limits. Callers start from DefaultLimits and
// override what the client sent; values below 1 or above MaxLimitFactor times
// the default are rejected.
func New(query string, limits Limits, urlContains []string) (*Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrValidation)
	}
	if len(query) > MaxQueryLength {
		return nil, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrValidation)
	}

	def := DefaultLimits()
	checks := []struct {
		name string
		val  int
		def  int
	}{
		{"limit_broad_results", limits.Broad, def.Broad},
		{"limit_deduped_url_results", limits.Deduped, def.Deduped},
		{"limit_hierarchical_url_results", limits.Hierarchical, def.Hierarchical},
		{"limit_final_results", limits.Final, def.Final},
	}
	for _, c := range checks {
		if c.val < 1 {
			return nil, fmt.Errorf("%s must be positive: %w", c.name, domain.ErrValidation)
		}
		if c.val > MaxLimitFactor*c.def {
			return nil, fmt.Errorf("%s exceeds %d times its default value: %w",
				c.name, MaxLimitFactor, domain.ErrValidation)
		}
	}

	// An empty entry is kept: every URL contains it.
	filters := slices.Clone(urlContains)

	return &Request{query: query, limits: limits, urlContains: filters}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Limits returns the resolved stage limits.
func (r *Request) Limits() Limits { return r.limits }

// URLContains returns the URL substring filters; empty means no filtering.
func (r *Request) URLContains() []string { return r.urlContains }

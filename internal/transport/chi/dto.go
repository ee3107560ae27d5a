package chi

// ErrorCode is the machine-readable error identifier of an API response.
type ErrorCode string

// API error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeEmbeddingFailure ErrorCode = "embedding_failure"
	ErrorCodeStoreUnavailable ErrorCode = "store_unavailable"
	ErrorCodeStageTimeout     ErrorCode = "stage_timeout"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /search. Absent limits fall back to server defaults.
type SearchRequest struct {
	Query                       string   `json:"query"`
	LimitBroadResults           *int     `json:"limit_broad_results,omitempty"`
	LimitDedupedURLResults      *int     `json:"limit_deduped_url_results,omitempty"`
	LimitHierarchicalURLResults *int     `json:"limit_hierarchical_url_results,omitempty"`
	LimitFinalResults           *int     `json:"limit_final_results,omitempty"`
	LimitFinalPagerankResults   *int     `json:"limit_final_pagerank_results,omitempty"`
	URLContainsFilter           []string `json:"url_contains_filter,omitempty"`
}

// SearchParams are the query parameters of GET /search.
type SearchParams struct {
	Query                       string
	LimitBroadResults           *int
	LimitDedupedURLResults      *int
	LimitHierarchicalURLResults *int
	LimitFinalResults           *int
	LimitFinalPagerankResults   *int
	URLContainsFilter           *[]string
}

// SearchResultItem is one ranked result.
type SearchResultItem struct {
	Score    float64 `json:"score"`
	URL      string  `json:"url"`
	Title    *string `json:"title"`
	Dataset  *string `json:"dataset"`
	Metadata any     `json:"metadata"`
	Text     string  `json:"text"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

package client

// Query is a search request. Nil limits use the server defaults.
type Query struct {
	Text              string
	BroadLimit        *int
	DedupedLimit      *int
	HierarchicalLimit *int
	FinalLimit        *int
	URLContains       []string
}

// Int returns a pointer to v, for Query limits.
func Int(v int) *int { return &v }

// Result is one ranked search hit.
type Result struct {
	Score    float64        `json:"score"`
	URL      string         `json:"url"`
	Title    *string        `json:"title"`
	Dataset  *string        `json:"dataset"`
	Metadata map[string]any `json:"metadata"`
	Text     string         `json:"text"`
}

// Health is the server's dependency report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type searchRequest struct {
	Query                       string   `json:"query"`
	LimitBroadResults           *int     `json:"limit_broad_results,omitempty"`
	LimitDedupedURLResults      *int     `json:"limit_deduped_url_results,omitempty"`
	LimitHierarchicalURLResults *int     `json:"limit_hierarchical_url_results,omitempty"`
	LimitFinalResults           *int     `json:"limit_final_results,omitempty"`
	URLContainsFilter           []string `json:"url_contains_filter,omitempty"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

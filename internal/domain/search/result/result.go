package result

import "strings"

// Result is a single ranked hit: a URL with its best text and score.
// Values are immutable; stages derive new ones via WithScore.
type Result struct {
	score    float64
	url      string
	title    *string
	dataset  *string
	metadata any
	text     string
}

// New creates a search result. Text is normalized once here.
func New(score float64, url string, title, dataset *string, metadata any, text string) Result {
	return Result{
		score:    score,
		url:      url,
		title:    title,
		dataset:  dataset,
		metadata: metadata,
		text:     NormalizeText(text, title),
	}
}

// WithScore returns a copy of r carrying a new score.
func (r Result) WithScore(score float64) Result {
	r.score = score
	return r
}

// Score returns the relevance score.
func (r Result) Score() float64 { return r.score }

// URL returns the document URL.
func (r Result) URL() string { return r.url }

// Title returns the page title, nil when unknown.
func (r Result) Title() *string { return r.title }

// Dataset returns the source dataset tag, nil when unknown.
func (r Result) Dataset() *string { return r.dataset }

// Metadata returns the pass-through metadata blob.
func (r Result) Metadata() any { return r.metadata }

// Text returns the normalized text.
func (r Result) Text() string { return r.text }

const titleSeparators = ":-| \t\r\n"

// NormalizeText trims text and drops leading copies of the title along with
// the separator run after each ("Intro: hello" -> "hello"). The output never
// starts with the title, so normalizing it again is a no-op.
func NormalizeText(text string, title *string) string {
	text = strings.TrimSpace(text)
	if title == nil || *title == "" {
		return text
	}
	for {
		rest, ok := strings.CutPrefix(text, *title)
		if !ok {
			return text
		}
		text = strings.TrimSpace(strings.TrimLeft(rest, titleSeparators))
	}
}

package types

// WebSource is one web search result captured during generation.
type WebSource struct {
	Title       string `json:"title,omitempty"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet,omitempty"`
	DisplayLink string `json:"displayLink,omitempty"`
}

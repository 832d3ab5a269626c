package types

// SearchRequest is the body sent to the backend search endpoint
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResult represents a synthesized answer returned by the backend
type SearchResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Source is a single citation backing an answer
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// StateResponse is the JSON snapshot of a session's page state
type StateResponse struct {
	Status string        `json:"status"`
	Query  string        `json:"query,omitempty"`
	Result *SearchResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// internal/search/models.go
package search

// Result carries the validated source links and the human-readable
// reasoning text built from them.
type Result struct {
	Sources   []string `json:"sources"`
	Reasoning string   `json:"reasoning"`
}

type searchItem struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

package search

// Result is a single permit search hit.
type Result struct {
	PermitNumber string `json:"permitNumber"`
	DocType      string `json:"docType"`
	Status       string `json:"status"`
	Plant        string `json:"plant"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
}

// Query describes a permit search request.
type Query struct {
	Text          string
	FilterDocType string // empty = all variants
	FilterStatus  string
	FilterPlant   string
	Limit         int
	Offset        int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// PermitRecord is the data we index for a permit.
type PermitRecord struct {
	PermitNumber  string `json:"permitNumber"`
	DocType       string `json:"docType"`
	Status        string `json:"status"`
	Plant         string `json:"plant"`
	Location      string `json:"location"`
	EquipmentName string `json:"equipmentName"`
	Description   string `json:"description"`
}

// Searcher can execute a full-text permit search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

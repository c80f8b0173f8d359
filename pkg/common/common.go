package common

// Sentinel is the placeholder stored wherever the extraction service could
// not fill a slot: an empty sentence span, a triplet with no subject found,
// and so on. Downstream consumers rely on every field being non-empty.
const Sentinel = "Not Found"

// Article is one bibliographic text unit. Articles are identified externally
// by their PMC accession number and internally by a generated public ID.
//
// Vector holds the embedding of the article content, computed when the
// article is saved. An article whose Vector is nil still exists but does not
// participate in similarity search.
type Article struct {
	PublicID string   `json:"id"`
	PMCID    string   `json:"pmc_id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Journal  string   `json:"journal"`
	Abstract string   `json:"abstract"`
	DOI      string   `json:"doi"`
	ISSN     string   `json:"issn"`
	Year     string   `json:"year"`
	Volume   string   `json:"volume"`
	Issue    string   `json:"issue"`
	Pages    string   `json:"pages"`
	URL      string   `json:"url"`
	Content  string   `json:"content"`
	Path     string   `json:"path"`
	Vector   []float32 `json:"vector,omitempty"`
}

// User is an account holder. The username doubles as the ownership
// scope (path) of everything the user imports.
type User struct {
	PublicID     string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Triplet is one extracted fact. Missing slots carry the Sentinel value,
// never the empty string.
type Triplet struct {
	Subject  string `json:"subject"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

// AnalyzedSentence is one sentence of one article after fact extraction.
// Only sentences that yielded at least one triplet are ever materialized.
//
// Vector is the sentence embedding; it is nil when the embedding service
// failed for this sentence, in which case the sentence is still kept.
type AnalyzedSentence struct {
	Text     string    `json:"sentence_text"`
	Vector   []float32 `json:"sentence_text_vector,omitempty"`
	Triplets []Triplet `json:"triplets"`
}

// AnalysisRun is the persisted result of analyzing one article once: the
// article it came from, the scope it belongs to, and every fact-bearing
// sentence in segmentation order. It is the unit written to and read from
// the fact store.
type AnalysisRun struct {
	PublicID     string             `json:"id"`
	ArticleID    string             `json:"article_id"`
	ArticleTitle string             `json:"article_title"`
	Path         string             `json:"path"`
	Sentences    []AnalyzedSentence `json:"data_analysis"`
}

// TripletCount reports the total number of triplets across all sentences.
func (r *AnalysisRun) TripletCount() int {
	n := 0
	for _, s := range r.Sentences {
		n += len(s.Triplets)
	}
	return n
}

// PageInfo describes the position of one page inside a paginated result
// set. TotalPages is computed from the store's total count, not from the
// number of records the page happened to return.
type PageInfo struct {
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// NewPageInfo computes pagination metadata for a result set of totalItems
// records viewed through pages of pageSize.
func NewPageInfo(totalItems, pageSize, currentPage int) PageInfo {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}
	return PageInfo{
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: currentPage,
	}
}

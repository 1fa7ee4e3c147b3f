package index

// Chunk is a paragraph-sized passage of the source document.
type Chunk struct {
	// Text is the trimmed passage as extracted from the page.
	Text string `json:"text"`

	// NormalizedText is Text after textnorm.Normalize. The vector space is
	// fitted on this field.
	NormalizedText string `json:"normalized_text"`

	// Page is the 1-based page the passage came from.
	Page int `json:"page"`
}

// Match is a retrieved chunk together with its cosine similarity to the query.
type Match struct {
	Chunk
	Score float64 `json:"score"`
}

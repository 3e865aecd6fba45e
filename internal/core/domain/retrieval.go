package domain

// Embedding is one query or passage embedding as returned by the embedding
// service: a fixed-width dense vector plus a sparse lexical vector keyed by
// vocabulary index.
type Embedding struct {
	Dense  []float32       `json:"dense"`
	Sparse map[int]float32 `json:"sparse"`
}

// AttachmentContext is one attachment-derived chunk carried into the answer
// context. Multiple chunks of the same attachment produce multiple entries.
type AttachmentContext struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// DocumentContext is the chunk-merged representation of a parent document
// returned to the answer-composition layer. Content holds the matched body
// chunk; AttachmentContexts hold matched attachment chunks in hit order.
type DocumentContext struct {
	Document           Document            `json:"document"`
	AttachmentContexts []AttachmentContext `json:"attachments"`
}

// Answer is the composed response with its cited sources.
type Answer struct {
	Text    string            `json:"text"`
	Sources []DocumentContext `json:"sources"`
}

// RerankResult is one scored candidate from the cross-encoder rerank service,
// indexed into the candidate list that was sent.
type RerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

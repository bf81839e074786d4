// Package backend is the client side of the chat/search contract served by the
// retrieval backend (or by the duetd gateway in front of it).
package backend

// Metadata is the retrieved passage and its provenance.
type Metadata struct {
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
}

// Result is one retrieved passage. Reranked results may also carry
// RerankScore and ScoreSpread; backends that omit them leave the pointers nil.
type Result struct {
	ID          string   `json:"id"`
	Score       float64  `json:"score"`
	Metadata    Metadata `json:"metadata"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
	ScoreSpread *float64 `json:"score_spread,omitempty"`
}

// DisplayScore is the score a results view should rank by: the rerank score
// when the backend supplied one, otherwise the raw similarity score.
func (r Result) DisplayScore() float64 {
	if r.RerankScore != nil {
		return *r.RerankScore
	}
	return r.Score
}

// ChatRequest is the body of a chat call.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// ChatReply carries both answer variants. The result sets are optional;
// older backends only send the two strings.
type ChatReply struct {
	VectorResponse   string   `json:"vectorResponse"`
	RerankedResponse string   `json:"rerankedResponse"`
	VectorResults    []Result `json:"vectorResults,omitempty"`
	RerankedResults  []Result `json:"rerankedResults,omitempty"`
}

// SearchRequest is the body of a search call.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchResponse is the results-only payload. Latency is whatever the
// backend reports for its index query.
type SearchResponse struct {
	VectorResults   []Result `json:"vector_results"`
	RerankedResults []Result `json:"reranked_results"`
	Latency         float64  `json:"latency"`
}

// chatWire mirrors ChatReply with pointer fields so missing answers can be
// told apart from empty ones.
type chatWire struct {
	VectorResponse   *string  `json:"vectorResponse"`
	RerankedResponse *string  `json:"rerankedResponse"`
	VectorResults    []Result `json:"vectorResults"`
	RerankedResults  []Result `json:"rerankedResults"`
}

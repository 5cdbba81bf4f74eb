package relevance

// SeedFile is a basket member the engine added, with its preliminary score.
type SeedFile struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// FilePreview is a file accepted into the prompt.
type FilePreview struct {
	Path       string  `json:"path"`
	Score      float64 `json:"score"`
	Tokens     int     `json:"tokens"`
	TotalLines int     `json:"totalLines"`
	ShownLines int     `json:"shownLines"`
	Truncated  bool    `json:"truncated"`
	Text       string  `json:"text,omitempty"`
}

// Result is the outcome of one recalculation.
type Result struct {
	RequestID          string             `json:"requestId"`
	GraphVersion       int64              `json:"graphVersion"`
	Keywords           []string           `json:"keywords"`
	UserSelected       []string           `json:"userSelected"`
	HeuristicSeedFiles []SeedFile         `json:"heuristicSeedFiles"`
	AllNeighbors       []ScoredFile       `json:"allNeighbors"`
	PromptNeighbors    []string           `json:"promptNeighbors"`
	Previews           []FilePreview      `json:"previews"`
	PromptTokens       int                `json:"promptTokens"`
	Scores             map[string]float64 `json:"scores"`
}

// WithoutPreviewText returns a copy of r whose previews carry no text.
func (r *Result) WithoutPreviewText() *Result {
	out := *r
	out.Previews = make([]FilePreview, len(r.Previews))
	for i, p := range r.Previews {
		p.Text = ""
		out.Previews[i] = p
	}
	return &out
}

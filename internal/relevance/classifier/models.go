// internal/relevance/classifier/models.go
package classifier

const (
	StageLexical = "lexical"
	StageLLM     = "llm"
)

// Verdict is the in/out-of-domain decision for one question.
type Verdict struct {
	Relevant    bool   `json:"relevant"`
	Explanation string `json:"explanation"`
	Stage       string `json:"stage"`
	Cached      bool   `json:"-"`
	// Definitive is false when the verdict came from a failed call and
	// must not be memoized.
	Definitive bool `json:"-"`
}

// Package optimization provides shared data structures for break-even results.
package optimization

// Break-even targets.
const (
	TargetConstructionOverrun = "constructionOverrun"
	TargetSalePriceChange     = "salePriceChange"
	TargetMinimumLoan         = "minimumLoan"
)

// Summary captures the result of a single break-even search.
type Summary struct {
	Target          string   `json:"target" yaml:"target"`
	Field           string   `json:"field" yaml:"field"`
	Original        float64  `json:"original" yaml:"original"`
	Value           float64  `json:"value" yaml:"value"`
	Lower           float64  `json:"lower" yaml:"lower"`
	Upper           float64  `json:"upper" yaml:"upper"`
	Floor           float64  `json:"floor" yaml:"floor"`
	Outcome         float64  `json:"outcome" yaml:"outcome"`
	Headroom        float64  `json:"headroom" yaml:"headroom"`
	Iterations      int      `json:"iterations" yaml:"iterations"`
	Converged       bool     `json:"converged" yaml:"converged"`
	Notes           []string `json:"notes,omitempty" yaml:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty" yaml:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty" yaml:"valueDisplay,omitempty"`
}

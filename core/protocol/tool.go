package protocol

// Tool describes a callable capability the reasoning engine may invoke
// mid-reasoning. Parameters is a JSON Schema object describing the input.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

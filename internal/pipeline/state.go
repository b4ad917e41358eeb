package pipeline

import (
	"encoding/json"

	"prism/internal/perspective"
	"prism/internal/prompt"
)

// Result is one perspective's output for a stage. Evaluations reuse it.
type Result struct {
	ID          string        `json:"id"`
	Perspective string        `json:"perspective"`
	Response    string        `json:"response"`
	Index       int           `json:"worldviewIndex"`
	Impact      prompt.Impact `json:"impact,omitempty"`
}

// State accumulates everything a run produced before the final stream.
// Lists are in completion order. A text field is either empty or final.
type State struct {
	BaselineResponse   string           `json:"baselineResponse"`
	Perspectives       []Result         `json:"perspectives"`
	FirstPassSynthesis string           `json:"firstPassSynthesis"`
	Evaluations        []Result         `json:"evaluations"`
	Mediation          string           `json:"mediation"`
	Mode               perspective.Mode `json:"mode"`
	IsPrismMode        bool             `json:"isPrismMode"`
}

func newState(mode perspective.Mode) *State {
	return &State{
		Perspectives: []Result{},
		Evaluations:  []Result{},
		Mode:         mode,
		IsPrismMode:  mode == perspective.ModeWorldview,
	}
}

// Snapshot returns a deep copy that later mutations of s cannot reach.
func (s *State) Snapshot() State {
	out := *s
	out.Perspectives = append(make([]Result, 0, len(s.Perspectives)), s.Perspectives...)
	out.Evaluations = append(make([]Result, 0, len(s.Evaluations)), s.Evaluations...)
	return out
}

// JSON encodes the state in the shape clients and storage expect.
func (s State) JSON() (json.RawMessage, error) {
	return json.Marshal(s)
}

// ParseState decodes a stored state document.
func ParseState(raw []byte) (State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, err
	}
	if s.Mode == "" && s.IsPrismMode {
		s.Mode = perspective.ModeWorldview
	}
	return s, nil
}

// byIndex returns the results' responses in registry order.
func byIndex(results []Result, n int) []string {
	out := make([]string, n)
	for _, r := range results {
		if r.Index >= 0 && r.Index < n {
			out[r.Index] = r.Response
		}
	}
	return out
}

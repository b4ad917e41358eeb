package pipeline

import "fmt"

// Phase is a state of the run machine. Phases advance strictly in order;
// Failed can be entered from any of them.
type Phase int

const (
	PhaseInit Phase = iota
	PhasePerspectives
	PhaseBaselineAndFirstSynthesis
	PhaseEvaluation
	PhaseMediation
	PhaseFinalSynthesis
	PhaseDone
	PhaseFailed
)

var phaseNames = [...]string{
	PhaseInit:                      "init",
	PhasePerspectives:              "perspectives",
	PhaseBaselineAndFirstSynthesis: "baseline-and-first-synthesis",
	PhaseEvaluation:                "evaluation",
	PhaseMediation:                 "mediation",
	PhaseFinalSynthesis:            "final-synthesis",
	PhaseDone:                      "done",
	PhaseFailed:                    "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Progress notes shown to clients; the "(k/5)" prefix is read by the UI.
const (
	NotePerspectives   = "(1/5) Getting responses per perspective"
	NoteSynthesis      = "(2/5) Synthesizing the responses"
	NoteEvaluation     = "(3/5) Evaluating the first pass response"
	NoteMediation      = "(4/5) Mediating the responses"
	NoteFinalSynthesis = "(5/5) Synthesizing final response"
)

// Model call stages, used as the llm phase tag on each request context.
const (
	StagePerspective = "perspective"
	StageBaseline    = "baseline"
	StageSynthesis   = "synthesis"
	StageEvaluation  = "evaluation"
	StageMediation   = "mediation"
	StageFinal       = "final"
)

func (r *run) enter(next Phase) {
	if next != PhaseFailed && next != r.phase+1 {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", r.phase, next))
	}
	r.phase = next
}

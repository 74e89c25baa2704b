package domain

import "time"

// Phase is the lifecycle position of a pipeline.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseReady      Phase = "ready"
	PhaseSaving     Phase = "saving"
	PhaseSaved      Phase = "saved"
	PhaseFailed     Phase = "failed"
)

// Stage names one externally serviced step.
type Stage string

const (
	StageClassify   Stage = "classify"
	StageGenerate   Stage = "generate"
	StageIllustrate Stage = "illustrate"
	StagePersist    Stage = "persist"
)

// PipelineState is a snapshot of the orchestrator.
//
// Word, Language, Haiku and Image form the Ready payload; they stay populated
// through Saving and Saved so a failed save can return to Ready unchanged.
type PipelineState struct {
	Phase    Phase       `json:"phase"`
	Run      uint64      `json:"run"`
	Word     string      `json:"word,omitempty"`
	Language Language    `json:"language,omitempty"`
	Haiku    Haiku       `json:"haiku,omitempty"`
	Image    ImageHandle `json:"image,omitempty"`

	// Outcomes records how each stage of the last completed run resolved.
	Outcomes map[Stage]OutcomeKind `json:"outcomes,omitempty"`

	FailedStage Stage  `json:"failed_stage,omitempty"`
	Reason      string `json:"reason,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (s PipelineState) HasPayload() bool {
	return s.Word != "" && len(s.Haiku) > 0
}

// Clone returns a copy that shares no mutable memory with s.
func (s PipelineState) Clone() PipelineState {
	out := s
	out.Haiku = s.Haiku.Clone()
	if s.Outcomes != nil {
		out.Outcomes = make(map[Stage]OutcomeKind, len(s.Outcomes))
		for stage, kind := range s.Outcomes {
			out.Outcomes[stage] = kind
		}
	}
	return out
}

// RunResult is what one generation run hands back to the orchestrator.
type RunResult struct {
	Word     string
	Language Outcome[Language]
	Haiku    Outcome[Haiku]
	Image    Outcome[ImageHandle]
}

func (r RunResult) Outcomes() map[Stage]OutcomeKind {
	return map[Stage]OutcomeKind{
		StageClassify:   r.Language.Kind,
		StageGenerate:   r.Haiku.Kind,
		StageIllustrate: r.Image.Kind,
	}
}

package synthesis

import (
	"time"

	"github.com/bhargavn/se-synth/internal/domain/semodel"
)

// RequestID identifier type, opaque, used to correlate partial failures in logs
type RequestID string

// Request is one incoming synthesis call
type Request struct {
	ID         RequestID `json:"id"`
	Prompt     string    `json:"prompt"`
	ReceivedAt time.Time `json:"received_at"`
}

// SectionStatus enum
type SectionStatus string

const (
	StatusOK          SectionStatus = "ok"
	StatusDegraded    SectionStatus = "degraded"
	StatusUnavailable SectionStatus = "unavailable"
)

// Stage of the per-request pipeline state machine
type Stage string

const (
	StageReceived     Stage = "received"
	StageRetrieving   Stage = "retrieving"
	StageComposing    Stage = "composing"
	StageReasoning    Stage = "reasoning"
	StageSynthesizing Stage = "synthesizing"
	StageVisualizing  Stage = "visualizing"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// TraceRow is one row of the traceability matrix: SD -> VR -> VM. VM fields
// are empty when the VR has no linked module.
type TraceRow struct {
	SystemName string `json:"system"`
	SDName     string `json:"sd"`
	VRText     string `json:"vr"`
	VMMethod   string `json:"vm,omitempty"`
}

// SectionStatuses carries the per-section provenance of a Result
type SectionStatuses struct {
	Design       SectionStatus `json:"system_design"`
	Requirements SectionStatus `json:"verification_requirements"`
	Traceability SectionStatus `json:"traceability"`
	Conditions   SectionStatus `json:"verification_conditions"`
	Visual       SectionStatus `json:"system_visual"`
}

// Result is the immutable value returned to the caller. It is fully built by
// the synthesizer/visualizer and never mutated afterwards.
type Result struct {
	RequestID    RequestID       `json:"request_id"`
	SystemDesign string          `json:"system_design"`
	Requirements string          `json:"verification_requirements"`
	Trace        []TraceRow      `json:"traceability"`
	Conditions   []string        `json:"verification_conditions"`
	Visual       []byte          `json:"system_visual,omitempty"` // inline SVG, nil when no entities
	Statuses     SectionStatuses `json:"statuses"`
}

// RetrievalContext is the grounding material pulled for one request: graph
// entities in graph order plus document-extracted parameters.
type RetrievalContext struct {
	Subtrees    []semodel.Subtree
	Parameters  []semodel.ExtractedParameter
	KeyConcepts []string // sorted, deduplicated candidate terms from the prompt
}

// Empty reports whether retrieval found neither entities nor parameters
func (c *RetrievalContext) Empty() bool {
	return len(c.Subtrees) == 0 && len(c.Parameters) == 0
}

// EntityCount counts all graph entities across subtrees
func (c *RetrievalContext) EntityCount() int {
	n := 0
	for _, t := range c.Subtrees {
		n += 1 + len(t.Descriptions) + len(t.Requirements) + len(t.Modules)
	}
	return n
}

// Links flattens all traceability edges across subtrees, graph order preserved
func (c *RetrievalContext) Links() []semodel.TraceabilityLink {
	var out []semodel.TraceabilityLink
	for _, t := range c.Subtrees {
		out = append(out, t.Links...)
	}
	return out
}

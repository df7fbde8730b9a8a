package synthesis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhargavn/se-synth/internal/domain/semodel"
	domain "github.com/bhargavn/se-synth/internal/domain/synthesis"
	"github.com/bhargavn/se-synth/internal/infra/ai/prompt"
)

const fullAnswer = prompt.MarkerDesign + `
The pump system regulates flow.
` + prompt.MarkerRequirements + `
- flow rate >= 10 L/min
` + prompt.MarkerTraceability + `
flow control traces to the bench test.
` + prompt.MarkerConditions + `
flow >= 10 L/min at rated speed
`

func TestSynthesizeModelSectionsOK(t *testing.T) {
	rc := retrievePump(t)
	s := &Synthesizer{}

	res := s.Synthesize("req-1", fullAnswer, true, rc, false)

	assert.Equal(t, domain.StatusOK, res.Statuses.Design)
	assert.Equal(t, domain.StatusOK, res.Statuses.Requirements)
	assert.Equal(t, "The pump system regulates flow.", res.SystemDesign)
	assert.Equal(t, "- flow rate >= 10 L/min", res.Requirements)
}

func TestSynthesizeTraceMatrixFromGraphOnly(t *testing.T) {
	rc := retrievePump(t)
	s := &Synthesizer{}

	// The model claims nonsense; the matrix must still come from the graph
	raw := prompt.MarkerTraceability + "\nWarpCore -> AntimatterTest\n"
	res := s.Synthesize("req-2", raw, true, rc, false)

	require.Len(t, res.Trace, 1)
	assert.Equal(t, domain.TraceRow{
		SystemName: "PumpSystem",
		SDName:     "flow control",
		VRText:     "flow rate >= 10 L/min",
		VMMethod:   "bench test",
	}, res.Trace[0])
	assert.Equal(t, domain.StatusOK, res.Statuses.Traceability)
}

func TestSynthesizeMissingMarkersFallBackToGraph(t *testing.T) {
	rc := retrievePump(t)
	s := &Synthesizer{}

	res := s.Synthesize("req-3", "rambling text with no markers at all", true, rc, false)

	assert.Equal(t, domain.StatusDegraded, res.Statuses.Design)
	assert.Equal(t, domain.StatusDegraded, res.Statuses.Requirements)
	assert.Contains(t, res.SystemDesign, "PumpSystem")
	assert.Contains(t, res.Requirements, "flow rate >= 10 L/min")
}

func TestSynthesizeReasoningDownFallsBackDegraded(t *testing.T) {
	rc := retrievePump(t)
	s := &Synthesizer{}

	res := s.Synthesize("req-4", "", false, rc, false)

	assert.Equal(t, domain.StatusDegraded, res.Statuses.Design)
	assert.Equal(t, domain.StatusDegraded, res.Statuses.Requirements)
	assert.NotEmpty(t, res.SystemDesign)
	assert.NotEmpty(t, res.Requirements)
}

func TestSynthesizeEmptyContextSectionsUnavailable(t *testing.T) {
	rc := &domain.RetrievalContext{}
	s := &Synthesizer{}

	res := s.Synthesize("req-5", fullAnswer, true, rc, false)

	// narrative still comes from the model
	assert.Equal(t, domain.StatusOK, res.Statuses.Design)
	// graph-derived sections have nothing to stand on
	assert.Equal(t, domain.StatusUnavailable, res.Statuses.Traceability)
	assert.Empty(t, res.Trace)
}

func TestSynthesizeConditionsFromThreshold(t *testing.T) {
	rc := retrievePump(t)
	s := &Synthesizer{}

	res := s.Synthesize("req-6", fullAnswer, true, rc, false)

	// VM1 has no formal condition, so the VR threshold is rendered
	require.Len(t, res.Conditions, 1)
	assert.Equal(t, "[VR1] measured value >= 10 L/min", res.Conditions[0])
	assert.Equal(t, domain.StatusOK, res.Statuses.Conditions)
}

func TestSynthesizeConditionsVerbatimExpression(t *testing.T) {
	g := pumpGraph()
	g.vms["VR1"] = []semodel.VerificationModule{
		{ID: "VM1", VRID: "VR1", Method: "bench test", Condition: "Q(t) >= 10 ∀ t ∈ [0, 3600]"},
	}
	rc, err := newTestRetriever(g, nil).Retrieve(context.Background(), "describe PumpSystem")
	require.NoError(t, err)

	res := (&Synthesizer{}).Synthesize("req-7", fullAnswer, true, rc, false)

	require.Len(t, res.Conditions, 1)
	assert.Equal(t, "[VR1] Q(t) >= 10 ∀ t ∈ [0, 3600]", res.Conditions[0])
}

func TestSynthesizeNoThresholdOmitsCondition(t *testing.T) {
	g := pumpGraph()
	g.vrs["SD1"] = []semodel.VerificationRequirement{
		{ID: "VR1", SDID: "SD1", Text: "pump shall be maintainable"},
	}
	g.vms["VR1"] = nil
	rc, err := newTestRetriever(g, nil).Retrieve(context.Background(), "describe PumpSystem")
	require.NoError(t, err)

	res := (&Synthesizer{}).Synthesize("req-8", fullAnswer, true, rc, false)

	assert.Empty(t, res.Conditions)
	assert.Equal(t, domain.StatusDegraded, res.Statuses.Conditions)
}

func TestSynthesizeTruncatedDowngradesModelSections(t *testing.T) {
	rc := retrievePump(t)
	res := (&Synthesizer{}).Synthesize("req-9", fullAnswer, true, rc, true)

	assert.Equal(t, domain.StatusDegraded, res.Statuses.Design)
	assert.Equal(t, domain.StatusDegraded, res.Statuses.Requirements)
}

func TestSynthesizeNeverLeavesStatusEmpty(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		rawOK bool
		rc    *domain.RetrievalContext
	}{
		{"all good", fullAnswer, true, retrievePump(t)},
		{"no model no context", "", false, &domain.RetrievalContext{}},
		{"model only", fullAnswer, true, &domain.RetrievalContext{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := (&Synthesizer{}).Synthesize("req", tc.raw, tc.rawOK, tc.rc, false)
			for _, st := range []domain.SectionStatus{
				res.Statuses.Design, res.Statuses.Requirements,
				res.Statuses.Traceability, res.Statuses.Conditions, res.Statuses.Visual,
			} {
				assert.Contains(t, []domain.SectionStatus{
					domain.StatusOK, domain.StatusDegraded, domain.StatusUnavailable,
				}, st)
			}
		})
	}
}

func TestSplitSectionsOutOfOrder(t *testing.T) {
	raw := prompt.MarkerRequirements + "\nreqs here\n" + prompt.MarkerDesign + "\ndesign here\n"
	sections := splitSections(raw)

	assert.Contains(t, sections[prompt.MarkerDesign], "design here")
	assert.Contains(t, sections[prompt.MarkerRequirements], "reqs here")
}

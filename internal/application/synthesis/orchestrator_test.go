package synthesis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhargavn/se-synth/internal/domain/reasoning"
	domain "github.com/bhargavn/se-synth/internal/domain/synthesis"
)

func newTestOrchestrator(g *fakeGraph, reasoner *fakeReasoner) *Orchestrator {
	return &Orchestrator{
		Retriever: newTestRetriever(g, nil),
		Composer:  &Composer{MaxBytes: 32 * 1024},
		Reasoner:  reasoner,
		Synth:     &Synthesizer{},
		Viz:       &Visualizer{},
		Timeout:   time.Second,
		Clock:     fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func TestOrchestratorHappyPath(t *testing.T) {
	reasoner := &fakeReasoner{answers: []string{fullAnswer}}
	o := newTestOrchestrator(pumpGraph(), reasoner)

	res, stage, err := o.Synthesize(context.Background(), "List the Verification Requirements for PumpSystem")

	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, stage)
	assert.Equal(t, 1, reasoner.calls)
	assert.Equal(t, domain.StatusOK, res.Statuses.Design)
	require.Len(t, res.Trace, 1)
	assert.NotNil(t, res.Visual)
	assert.Equal(t, domain.StatusOK, res.Statuses.Visual)
	assert.NotEmpty(t, res.RequestID)
}

func TestOrchestratorRetriesExactlyOnceThenFallsBack(t *testing.T) {
	reasoner := &fakeReasoner{errs: []error{reasoning.ErrUnavailable, reasoning.ErrUnavailable}}
	o := newTestOrchestrator(pumpGraph(), reasoner)

	res, stage, err := o.Synthesize(context.Background(), "describe PumpSystem")

	require.NoError(t, err, "non-empty context must degrade, not fail")
	assert.Equal(t, domain.StageDone, stage)
	assert.Equal(t, 2, reasoner.calls, "one initial call plus exactly one retry")
	assert.Equal(t, domain.StatusDegraded, res.Statuses.Design)
	assert.Contains(t, res.SystemDesign, "PumpSystem")
}

func TestOrchestratorRetrySucceeds(t *testing.T) {
	reasoner := &fakeReasoner{
		errs:    []error{reasoning.ErrUnavailable, nil},
		answers: []string{"", fullAnswer},
	}
	o := newTestOrchestrator(pumpGraph(), reasoner)

	res, stage, err := o.Synthesize(context.Background(), "describe PumpSystem")

	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, stage)
	assert.Equal(t, 2, reasoner.calls)
	assert.Equal(t, domain.StatusOK, res.Statuses.Design)
}

// Scenario: model reachable, but the prompt names nothing in the graph.
// The narrative comes from the model; graph-derived sections degrade.
func TestOrchestratorUnknownSystemStillUsable(t *testing.T) {
	reasoner := &fakeReasoner{answers: []string{fullAnswer}}
	o := newTestOrchestrator(pumpGraph(), reasoner)

	res, stage, err := o.Synthesize(context.Background(), "warp drive containment field header")

	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, stage)
	assert.Equal(t, domain.StatusOK, res.Statuses.Design)
	assert.Empty(t, res.Trace)
	assert.Equal(t, domain.StatusUnavailable, res.Statuses.Traceability)
	assert.Nil(t, res.Visual)
	assert.Equal(t, domain.StatusUnavailable, res.Statuses.Visual)
}

// Scenario: model down twice AND nothing retrieved -> terminal failure with
// a uniform all-unavailable result, no partial data.
func TestOrchestratorFailsOnlyWithEmptyContext(t *testing.T) {
	reasoner := &fakeReasoner{errs: []error{reasoning.ErrUnavailable, reasoning.ErrUnavailable}}
	o := newTestOrchestrator(pumpGraph(), reasoner)

	res, stage, err := o.Synthesize(context.Background(), "warp drive containment field header")

	require.ErrorIs(t, err, domain.ErrSynthesisFailed)
	assert.Equal(t, domain.StageFailed, stage)
	assert.Equal(t, 2, reasoner.calls)
	assert.Empty(t, res.SystemDesign)
	assert.Empty(t, res.Trace)
	for _, st := range []domain.SectionStatus{
		res.Statuses.Design, res.Statuses.Requirements,
		res.Statuses.Traceability, res.Statuses.Conditions, res.Statuses.Visual,
	} {
		assert.Equal(t, domain.StatusUnavailable, st)
	}
}

// archiveSpy records stores without external dependencies
type archiveSpy struct {
	stored [][]byte
	fail   error
}

func (a *archiveSpy) Store(ctx context.Context, svg []byte) (string, error) {
	if a.fail != nil {
		return "", a.fail
	}
	a.stored = append(a.stored, svg)
	return "http://archive/diagram.svg", nil
}

func TestOrchestratorArchivesDiagram(t *testing.T) {
	reasoner := &fakeReasoner{answers: []string{fullAnswer}}
	o := newTestOrchestrator(pumpGraph(), reasoner)
	spy := &archiveSpy{}
	o.Archive = spy

	res, _, err := o.Synthesize(context.Background(), "describe PumpSystem")
	require.NoError(t, err)
	require.Len(t, spy.stored, 1)
	assert.Equal(t, res.Visual, spy.stored[0])
}

func TestOrchestratorArchiveFailureDoesNotAffectResult(t *testing.T) {
	reasoner := &fakeReasoner{answers: []string{fullAnswer}}
	o := newTestOrchestrator(pumpGraph(), reasoner)
	o.Archive = &archiveSpy{fail: context.DeadlineExceeded}

	res, stage, err := o.Synthesize(context.Background(), "describe PumpSystem")
	require.NoError(t, err)
	assert.Equal(t, domain.StageDone, stage)
	assert.NotNil(t, res.Visual)
	assert.Equal(t, domain.StatusOK, res.Statuses.Visual)
}

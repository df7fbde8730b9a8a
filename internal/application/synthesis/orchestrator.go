package synthesis

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bhargavn/se-synth/internal/application"
	"github.com/bhargavn/se-synth/internal/domain/reasoning"
	domain "github.com/bhargavn/se-synth/internal/domain/synthesis"
	"github.com/bhargavn/se-synth/internal/middleware"
)

// DiagramArchive stores rendered diagrams out of band. Optional; a nil
// archive disables archiving without affecting results.
type DiagramArchive interface {
	Store(ctx context.Context, svg []byte) (string, error)
}

// Orchestrator sequences retrieve -> compose -> reason -> synthesize ->
// visualize for one request. One instance serves all requests; per-request
// state lives on the stack, so concurrent calls are independent.
type Orchestrator struct {
	Retriever *Retriever
	Composer  *Composer
	Reasoner  reasoning.Client
	Synth     *Synthesizer
	Viz       *Visualizer
	Archive   DiagramArchive
	Timeout   time.Duration
	Clock     application.Clock
}

// Synthesize runs the pipeline. The returned stage is StageDone for every
// usable (possibly degraded) result and StageFailed only when the reasoning
// model stayed unreachable after the retry AND retrieval found nothing to
// fall back on; in that case err is ErrSynthesisFailed and every section of
// the result is marked unavailable.
func (o *Orchestrator) Synthesize(ctx context.Context, promptText string) (*domain.Result, domain.Stage, error) {
	req := domain.Request{
		ID:         domain.RequestID(uuid.NewString()),
		Prompt:     promptText,
		ReceivedAt: o.Clock.Now(),
	}
	stage := domain.StageReceived
	middleware.IncrementSyntheses()

	stage = domain.StageRetrieving
	rc, err := o.Retriever.Retrieve(ctx, promptText)
	if err != nil {
		// Retrieval trouble downgrades sections, it never fails the request
		log.Printf("request=%s stage=%s degraded: %v", req.ID, stage, err)
	}

	stage = domain.StageComposing
	composed := o.Composer.Compose(promptText, rc)
	if composed.Truncated {
		log.Printf("request=%s stage=%s context truncated to fit prompt bound", req.ID, stage)
	}

	stage = domain.StageReasoning
	raw, rawOK := "", true
	raw, err = o.Reasoner.Ask(ctx, composed.Text, o.Timeout)
	if err != nil {
		// Single retry with half the context budget
		middleware.IncrementReasoningRetries()
		log.Printf("request=%s stage=%s retrying once: %v", req.ID, stage, err)
		retryPrompt := o.Composer.ComposeBounded(promptText, rc, o.Composer.MaxBytes/2)
		raw, err = o.Reasoner.Ask(ctx, retryPrompt.Text, o.Timeout)
		if err != nil {
			if rc.Empty() {
				stage = domain.StageFailed
				middleware.IncrementSynthesesFailed()
				log.Printf("request=%s stage=%s: %v", req.ID, stage, err)
				return unavailableResult(req.ID), stage, domain.ErrSynthesisFailed
			}
			rawOK = false
			log.Printf("request=%s stage=%s falling back to graph-derived sections: %v", req.ID, stage, err)
		}
	}

	stage = domain.StageSynthesizing
	res := o.Synth.Synthesize(req.ID, raw, rawOK, rc, composed.Truncated)

	stage = domain.StageVisualizing
	if svg := o.Viz.Render(rc); svg != nil {
		res.Visual = svg
		res.Statuses.Visual = domain.StatusOK
		if o.Archive != nil {
			if url, err := o.Archive.Store(ctx, svg); err != nil {
				log.Printf("request=%s diagram archive failed: %v", req.ID, err)
			} else {
				log.Printf("request=%s diagram archived at %s", req.ID, url)
			}
		}
	}

	stage = domain.StageDone
	if !rawOK || res.Statuses.Design != domain.StatusOK {
		middleware.IncrementSynthesesDegraded()
	}
	log.Printf("request=%s stage=%s design=%s requirements=%s traceability=%s conditions=%s visual=%s",
		req.ID, stage,
		res.Statuses.Design, res.Statuses.Requirements, res.Statuses.Traceability,
		res.Statuses.Conditions, res.Statuses.Visual)
	return res, stage, nil
}

// unavailableResult is the uniform FAILED payload: no partial data, every
// section explicitly unavailable.
func unavailableResult(id domain.RequestID) *domain.Result {
	return &domain.Result{
		RequestID: id,
		Statuses: domain.SectionStatuses{
			Design:       domain.StatusUnavailable,
			Requirements: domain.StatusUnavailable,
			Traceability: domain.StatusUnavailable,
			Conditions:   domain.StatusUnavailable,
			Visual:       domain.StatusUnavailable,
		},
	}
}

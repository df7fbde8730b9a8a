package synthesis

import (
	"fmt"
	"strings"

	"github.com/bhargavn/se-synth/internal/domain/semodel"
	domain "github.com/bhargavn/se-synth/internal/domain/synthesis"
	"github.com/bhargavn/se-synth/internal/infra/ai/prompt"
)

// Synthesizer converts the raw model answer plus the retrieval context into
// an immutable Result. It never fails: every section is either model-derived,
// deterministically rebuilt from the context, or explicitly unavailable.
type Synthesizer struct{}

// Synthesize builds the Result. rawOK is false when the reasoning model was
// unreachable; truncated records that grounding context was dropped to fit
// the prompt size bound.
func (s *Synthesizer) Synthesize(reqID domain.RequestID, raw string, rawOK bool, rc *domain.RetrievalContext, truncated bool) *domain.Result {
	res := &domain.Result{RequestID: reqID}

	sections := splitSections(raw)

	res.SystemDesign, res.Statuses.Design = s.textSection(
		sections[prompt.MarkerDesign], rawOK, rc, designFallback)
	res.Requirements, res.Statuses.Requirements = s.textSection(
		sections[prompt.MarkerRequirements], rawOK, rc, requirementsFallback)

	res.Trace = traceMatrix(rc)
	switch {
	case len(res.Trace) > 0:
		res.Statuses.Traceability = domain.StatusOK
	case !rc.Empty():
		res.Statuses.Traceability = domain.StatusDegraded
	default:
		res.Statuses.Traceability = domain.StatusUnavailable
	}

	res.Conditions = verificationConditions(rc)
	switch {
	case len(res.Conditions) > 0:
		res.Statuses.Conditions = domain.StatusOK
	case !rc.Empty():
		res.Statuses.Conditions = domain.StatusDegraded
	default:
		// last resort: keep the model's own conditions text, line by line
		if text := strings.TrimSpace(sections[prompt.MarkerConditions]); rawOK && text != "" {
			for _, line := range strings.Split(text, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					res.Conditions = append(res.Conditions, line)
				}
			}
			res.Statuses.Conditions = domain.StatusDegraded
		} else {
			res.Statuses.Conditions = domain.StatusUnavailable
		}
	}

	if truncated {
		if res.Statuses.Design == domain.StatusOK {
			res.Statuses.Design = domain.StatusDegraded
		}
		if res.Statuses.Requirements == domain.StatusOK {
			res.Statuses.Requirements = domain.StatusDegraded
		}
	}

	res.Statuses.Visual = domain.StatusUnavailable // set by the orchestrator after rendering
	return res
}

// textSection picks the model's text when present, else the deterministic
// context fallback, else marks the section unavailable.
func (s *Synthesizer) textSection(modelText string, rawOK bool, rc *domain.RetrievalContext, fallback func(*domain.RetrievalContext) string) (string, domain.SectionStatus) {
	if rawOK {
		if text := strings.TrimSpace(modelText); text != "" {
			return text, domain.StatusOK
		}
	}
	if !rc.Empty() {
		return fallback(rc), domain.StatusDegraded
	}
	return "", domain.StatusUnavailable
}

// splitSections locates the four expected markers in the untrusted answer and
// slices the text between them. Missing markers simply leave entries empty.
func splitSections(raw string) map[string]string {
	markers := prompt.Markers()

	type hit struct {
		marker string
		start  int // index just past the marker
		pos    int
	}
	var hits []hit
	for _, m := range markers[:] {
		if i := strings.Index(raw, m); i >= 0 {
			hits = append(hits, hit{marker: m, start: i + len(m), pos: i})
		}
	}
	// markers may arrive out of order; sort by position in the raw text
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	out := map[string]string{}
	for i, h := range hits {
		end := len(raw)
		if i+1 < len(hits) {
			end = hits[i+1].pos
		}
		out[h.marker] = raw[h.start:end]
	}
	return out
}

// designFallback enumerates retrieved systems and their descriptions
func designFallback(rc *domain.RetrievalContext) string {
	var b strings.Builder
	b.WriteString("Design summary derived from the systems-engineering graph:\n")
	for _, t := range rc.Subtrees {
		fmt.Fprintf(&b, "System %s: %s\n", t.System.Name, t.System.Description)
		for _, sd := range t.Descriptions {
			fmt.Fprintf(&b, "  - %s: %s\n", sd.Name, sd.Text)
		}
	}
	for _, p := range rc.Parameters {
		fmt.Fprintf(&b, "Parameter %s.%s = %s %s\n", p.RowKey, p.Column, p.Value, p.Unit)
	}
	return strings.TrimSpace(b.String())
}

// requirementsFallback enumerates retrieved VR texts verbatim
func requirementsFallback(rc *domain.RetrievalContext) string {
	var b strings.Builder
	b.WriteString("Verification requirements on record:\n")
	n := 0
	for _, t := range rc.Subtrees {
		for _, vr := range t.Requirements {
			fmt.Fprintf(&b, "  - [%s] %s\n", vr.ID, vr.Text)
			n++
		}
	}
	if n == 0 {
		return "No verification requirements are recorded for the retrieved systems."
	}
	return strings.TrimSpace(b.String())
}

// traceMatrix joins each retrieved SD to its linked VRs and each VR's linked
// VMs, strictly from graph edges and strictly in graph order. The reasoning
// model has no influence here.
func traceMatrix(rc *domain.RetrievalContext) []domain.TraceRow {
	var rows []domain.TraceRow
	for _, t := range rc.Subtrees {
		vrByID := map[semodel.EntityID]*semodel.VerificationRequirement{}
		for i := range t.Requirements {
			vrByID[t.Requirements[i].ID] = &t.Requirements[i]
		}
		vmByID := map[semodel.EntityID]*semodel.VerificationModule{}
		for i := range t.Modules {
			vmByID[t.Modules[i].ID] = &t.Modules[i]
		}

		for _, sd := range t.Descriptions {
			for _, l := range t.Links {
				if l.Relation != semodel.RelationVerifies || l.From != sd.ID {
					continue
				}
				vr, ok := vrByID[l.To]
				if !ok {
					continue
				}
				emitted := false
				for _, l2 := range t.Links {
					if l2.Relation != semodel.RelationSatisfies || l2.From != vr.ID {
						continue
					}
					vm, ok := vmByID[l2.To]
					if !ok {
						continue
					}
					rows = append(rows, domain.TraceRow{
						SystemName: t.System.Name,
						SDName:     sd.Name,
						VRText:     vr.Text,
						VMMethod:   vm.Method,
					})
					emitted = true
				}
				if !emitted {
					rows = append(rows, domain.TraceRow{
						SystemName: t.System.Name,
						SDName:     sd.Name,
						VRText:     vr.Text,
					})
				}
			}
		}
	}
	return rows
}

// verificationConditions emits VM formal conditions verbatim prefixed by the
// VR id; VMs without one get a condition rendered from the VR threshold.
// Requirements with neither are omitted, never invented.
func verificationConditions(rc *domain.RetrievalContext) []string {
	var out []string
	for _, t := range rc.Subtrees {
		vmsByVR := map[semodel.EntityID][]*semodel.VerificationModule{}
		for i := range t.Modules {
			vm := &t.Modules[i]
			vmsByVR[vm.VRID] = append(vmsByVR[vm.VRID], vm)
		}

		for _, vr := range t.Requirements {
			vms := vmsByVR[vr.ID]
			if len(vms) == 0 {
				if vr.Threshold != nil {
					out = append(out, thresholdCondition(&vr))
				}
				continue
			}
			for _, vm := range vms {
				switch {
				case vm.Condition != "":
					out = append(out, fmt.Sprintf("[%s] %s", vr.ID, vm.Condition))
				case vr.Threshold != nil:
					out = append(out, thresholdCondition(&vr))
				}
			}
		}
	}
	return out
}

func thresholdCondition(vr *semodel.VerificationRequirement) string {
	th := vr.Threshold
	cond := fmt.Sprintf("[%s] measured value %s %g", vr.ID, th.Comparator, th.Value)
	if th.Unit != "" {
		cond += " " + th.Unit
	}
	return cond
}

package synthesis

import (
	"context"
	"strings"
	"time"

	"github.com/bhargavn/se-synth/internal/domain/semodel"
)

// fakeGraph is an in-memory GraphReader used across the package tests
type fakeGraph struct {
	systems []semodel.System
	sds     map[semodel.EntityID][]semodel.SystemDescription
	vrs     map[semodel.EntityID][]semodel.VerificationRequirement
	vms     map[semodel.EntityID][]semodel.VerificationModule
}

func (g *fakeGraph) SystemNames(ctx context.Context) ([]string, error) {
	var out []string
	for _, s := range g.systems {
		out = append(out, s.Name)
	}
	return out, nil
}

func (g *fakeGraph) SystemByName(ctx context.Context, name string) (*semodel.System, error) {
	for _, s := range g.systems {
		if strings.EqualFold(s.Name, name) {
			sys := s
			return &sys, nil
		}
	}
	return nil, nil
}

func (g *fakeGraph) DescriptionNames(ctx context.Context) ([]semodel.NamedRef, error) {
	var out []semodel.NamedRef
	for _, s := range g.systems {
		for _, sd := range g.sds[s.ID] {
			out = append(out, semodel.NamedRef{Name: sd.Name, SystemID: s.ID})
		}
	}
	return out, nil
}

func (g *fakeGraph) Subtree(ctx context.Context, id semodel.EntityID, maxDepth, maxFanOut int) (*semodel.Subtree, error) {
	var t semodel.Subtree
	for _, s := range g.systems {
		if s.ID == id {
			t.System = s
		}
	}

	bound := func(n int) int {
		if maxFanOut > 0 && n > maxFanOut {
			return maxFanOut
		}
		return n
	}

	if maxDepth >= 1 {
		sds := g.sds[id]
		for _, sd := range sds[:bound(len(sds))] {
			t.Descriptions = append(t.Descriptions, sd)
			t.Links = append(t.Links, semodel.TraceabilityLink{From: id, To: sd.ID, Relation: semodel.RelationDescribes})
		}
	}
	if maxDepth >= 2 {
		for _, sd := range t.Descriptions {
			vrs := g.vrs[sd.ID]
			for _, vr := range vrs[:bound(len(vrs))] {
				t.Requirements = append(t.Requirements, vr)
				t.Links = append(t.Links, semodel.TraceabilityLink{From: sd.ID, To: vr.ID, Relation: semodel.RelationVerifies})
			}
		}
	}
	if maxDepth >= 3 {
		for _, vr := range t.Requirements {
			vms := g.vms[vr.ID]
			for _, vm := range vms[:bound(len(vms))] {
				t.Modules = append(t.Modules, vm)
				t.Links = append(t.Links, semodel.TraceabilityLink{From: vr.ID, To: vm.ID, Relation: semodel.RelationSatisfies})
			}
		}
	}
	return &t, nil
}

// fakeParams is an in-memory ParameterReader
type fakeParams struct {
	byKey   map[string][]semodel.ExtractedParameter // lowercased row key
	byTable map[string][]semodel.ExtractedParameter
}

func (p *fakeParams) ByRowKey(ctx context.Context, term string) ([]semodel.ExtractedParameter, error) {
	return p.byKey[strings.ToLower(term)], nil
}

func (p *fakeParams) ByTable(ctx context.Context, tableID string, limit int) ([]semodel.ExtractedParameter, error) {
	rows := p.byTable[tableID]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// fakeReasoner scripts reasoning model behavior per call
type fakeReasoner struct {
	calls   int
	answers []string // one per call
	errs    []error  // one per call, nil entries succeed
}

func (f *fakeReasoner) Ask(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.answers) {
		return f.answers[i], nil
	}
	return "", nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// pumpGraph builds the PumpSystem fixture used throughout:
// PumpSystem -> "flow control" -> "flow rate >= 10 L/min" -> "bench test"
func pumpGraph() *fakeGraph {
	return &fakeGraph{
		systems: []semodel.System{
			{ID: "S1", Name: "PumpSystem", Description: "centrifugal pump assembly"},
			{ID: "S2", Name: "ValveSystem", Description: "shutoff valve bank"},
		},
		sds: map[semodel.EntityID][]semodel.SystemDescription{
			"S1": {{ID: "SD1", SystemID: "S1", Name: "flow control", Text: "regulates output flow"}},
			"S2": {{ID: "SD2", SystemID: "S2", Name: "valve actuation", Text: "opens and closes valves"}},
		},
		vrs: map[semodel.EntityID][]semodel.VerificationRequirement{
			"SD1": {{
				ID: "VR1", SDID: "SD1", Text: "flow rate >= 10 L/min",
				Threshold: &semodel.Threshold{Comparator: ">=", Value: 10, Unit: "L/min"},
			}},
		},
		vms: map[semodel.EntityID][]semodel.VerificationModule{
			"VR1": {{ID: "VM1", VRID: "VR1", Method: "bench test"}},
		},
	}
}

func trLink(from, to string, rel semodel.Relation) semodel.TraceabilityLink {
	return semodel.TraceabilityLink{From: semodel.EntityID(from), To: semodel.EntityID(to), Relation: rel}
}

func newTestRetriever(g *fakeGraph, p *fakeParams) *Retriever {
	if p == nil {
		p = &fakeParams{}
	}
	return &Retriever{
		Graph:         g,
		Params:        p,
		MaxDepth:      3,
		MaxFanOut:     25,
		FallbackTopN:  5,
		ParamRowLimit: 5,
	}
}

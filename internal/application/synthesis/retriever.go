package synthesis

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/bhargavn/se-synth/internal/domain/semodel"
	domain "github.com/bhargavn/se-synth/internal/domain/synthesis"
)

// fallbackMinScore is the floor for the lexical-similarity fallback; below it
// a System name is considered unrelated to the prompt.
const fallbackMinScore = 0.25

// Retriever decides which graph entities and parameter rows are relevant to a
// prompt and pulls them from the read-only stores.
type Retriever struct {
	Graph  semodel.GraphReader
	Params semodel.ParameterReader

	MaxDepth      int
	MaxFanOut     int
	FallbackTopN  int
	ParamRowLimit int
}

// nameMatch is one prompt/name hit, kept with its term for parameter lookup
type nameMatch struct {
	name     string
	systemID semodel.EntityID // zero for System-name matches resolved later
}

// Retrieve builds the grounding context for one prompt. An empty context is a
// valid outcome, not an error; the only error returned is a failure to list
// the known names, which the orchestrator treats as empty-and-degraded.
func (r *Retriever) Retrieve(ctx context.Context, promptText string) (*domain.RetrievalContext, error) {
	rc := &domain.RetrievalContext{KeyConcepts: keyConcepts(promptText)}

	sysNames, err := r.Graph.SystemNames(ctx)
	if err != nil {
		return rc, fmt.Errorf("retrieve system names: %w", err)
	}
	sdRefs, err := r.Graph.DescriptionNames(ctx)
	if err != nil {
		return rc, fmt.Errorf("retrieve description names: %w", err)
	}

	matches := matchNames(promptText, sysNames, sdRefs)

	// Resolve matches to Systems, deduplicated, match order preserved
	seen := map[semodel.EntityID]bool{}
	var matchedTerms []string
	for _, m := range matches {
		matchedTerms = append(matchedTerms, m.name)

		var sysID semodel.EntityID
		if m.systemID != "" {
			sysID = m.systemID
		} else {
			sys, err := r.Graph.SystemByName(ctx, m.name)
			if err != nil || sys == nil {
				if err != nil {
					log.Printf("retriever: resolve system %q: %v", m.name, err)
				}
				continue
			}
			sysID = sys.ID
		}
		if seen[sysID] {
			continue
		}
		seen[sysID] = true

		tree, err := r.Graph.Subtree(ctx, sysID, r.MaxDepth, r.MaxFanOut)
		if err != nil {
			log.Printf("retriever: subtree %s: %v", sysID, err)
			continue
		}
		rc.Subtrees = append(rc.Subtrees, *tree)
	}

	// Lexical fallback when nothing matched by name
	if len(rc.Subtrees) == 0 {
		for _, name := range r.fallbackNames(promptText, rc.KeyConcepts, sysNames) {
			sys, err := r.Graph.SystemByName(ctx, name)
			if err != nil || sys == nil {
				continue
			}
			if seen[sys.ID] {
				continue
			}
			seen[sys.ID] = true
			tree, err := r.Graph.Subtree(ctx, sys.ID, r.MaxDepth, r.MaxFanOut)
			if err != nil {
				continue
			}
			rc.Subtrees = append(rc.Subtrees, *tree)
			matchedTerms = append(matchedTerms, name)
		}
	}

	r.lookupParameters(ctx, promptText, matchedTerms, rc)
	return rc, nil
}

// matchNames finds System and SD names mentioned in the prompt: exact and
// case-insensitive substring, longest name first, name order breaking ties.
func matchNames(promptText string, sysNames []string, sdRefs []semodel.NamedRef) []nameMatch {
	lowerPrompt := strings.ToLower(promptText)

	var out []nameMatch
	for _, n := range sysNames {
		if n != "" && strings.Contains(lowerPrompt, strings.ToLower(n)) {
			out = append(out, nameMatch{name: n})
		}
	}
	for _, ref := range sdRefs {
		if ref.Name != "" && strings.Contains(lowerPrompt, strings.ToLower(ref.Name)) {
			out = append(out, nameMatch{name: ref.Name, systemID: ref.SystemID})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].name) != len(out[j].name) {
			return len(out[i].name) > len(out[j].name)
		}
		return out[i].name < out[j].name
	})
	return out
}

// fallbackNames ranks known System names by lexical similarity to the prompt
// and its key concepts, keeping the top N above the score floor. Scoring
// against concepts keeps long prompts from diluting the trigram overlap.
func (r *Retriever) fallbackNames(promptText string, concepts []string, sysNames []string) []string {
	type scored struct {
		name  string
		score float64
	}
	var ranked []scored
	for _, n := range sysNames {
		best := similarity(promptText, n)
		for _, c := range concepts {
			if s := similarity(c, n); s > best {
				best = s
			}
		}
		if best >= fallbackMinScore {
			ranked = append(ranked, scored{name: n, score: best})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})

	n := r.FallbackTopN
	if n <= 0 || n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, 0, n)
	for _, s := range ranked[:n] {
		out = append(out, s.name)
	}
	return out
}

// lookupParameters fetches document-extracted rows for matched entity names,
// key concepts, and any explicitly pinned "table <name>" reference.
func (r *Retriever) lookupParameters(ctx context.Context, promptText string, matchedTerms []string, rc *domain.RetrievalContext) {
	terms := append([]string{}, matchedTerms...)
	terms = append(terms, rc.KeyConcepts...)

	seenTerm := map[string]bool{}
	seenRow := map[string]bool{}
	for _, t := range terms {
		key := strings.ToLower(t)
		if key == "" || seenTerm[key] {
			continue
		}
		seenTerm[key] = true

		params, err := r.Params.ByRowKey(ctx, t)
		if err != nil {
			log.Printf("retriever: parameter lookup %q: %v", t, err)
			continue
		}
		appendParams(rc, params, seenRow)
	}

	if tbl := detectTableRef(promptText); tbl != "" {
		params, err := r.Params.ByTable(ctx, tbl, r.ParamRowLimit)
		if err != nil {
			log.Printf("retriever: table lookup %q: %v", tbl, err)
			return
		}
		appendParams(rc, params, seenRow)
	}
}

func appendParams(rc *domain.RetrievalContext, params []semodel.ExtractedParameter, seenRow map[string]bool) {
	for _, p := range params {
		key := p.TableID + "\x00" + p.RowKey + "\x00" + p.Column
		if seenRow[key] {
			continue
		}
		seenRow[key] = true
		rc.Parameters = append(rc.Parameters, p)
	}
}

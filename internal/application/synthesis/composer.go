package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bhargavn/se-synth/internal/domain/semodel"
	domain "github.com/bhargavn/se-synth/internal/domain/synthesis"
)

// ComposedPrompt is the payload sent to the reasoning model
type ComposedPrompt struct {
	Text      string
	Truncated bool
}

// Composer builds the grounded prompt: user request verbatim, key concepts,
// graph facts, document parameters. Deterministic for identical inputs.
type Composer struct {
	MaxBytes int
}

// factLine is one serialized graph fact with its nesting depth, kept separate
// so truncation can drop the deepest facts first.
type factLine struct {
	depth int
	seq   int // position in graph order, used to drop later facts first
	text  string
}

// Compose builds the prompt within the configured size bound
func (c *Composer) Compose(promptText string, rc *domain.RetrievalContext) ComposedPrompt {
	return c.ComposeBounded(promptText, rc, c.MaxBytes)
}

// ComposeBounded is Compose with an explicit byte bound; the orchestrator
// retries a failed reasoning call with half the budget.
func (c *Composer) ComposeBounded(promptText string, rc *domain.RetrievalContext, maxBytes int) ComposedPrompt {
	var head strings.Builder
	head.WriteString("User request:\n")
	head.WriteString(promptText)
	head.WriteString("\n")
	if len(strings.Fields(promptText)) < 20 {
		head.WriteString("[Note: the input is brief; more detail may yield a richer design.]\n")
	}
	if len(rc.KeyConcepts) > 0 {
		head.WriteString("\nKey concepts: ")
		head.WriteString(strings.Join(rc.KeyConcepts, ", "))
		head.WriteString("\n")
	}

	facts := factLines(rc)
	links := linkLines(rc)
	params := paramLines(rc)

	assemble := func(facts []factLine) string {
		var b strings.Builder
		b.WriteString(head.String())
		if len(facts) > 0 {
			b.WriteString("\nGraph facts:\n")
			kept := map[string]bool{}
			for _, f := range facts {
				b.WriteString(f.text)
				b.WriteString("\n")
				kept[factID(f.text)] = true
			}
			for _, l := range links {
				if kept[string(l.From)] && kept[string(l.To)] {
					fmt.Fprintf(&b, "link: %s -%s-> %s\n", l.From, l.Relation, l.To)
				}
			}
		}
		if len(params) > 0 {
			b.WriteString("\nDocument parameters:\n")
			for _, p := range params {
				b.WriteString(p)
				b.WriteString("\n")
			}
		}
		return b.String()
	}

	text := assemble(facts)
	truncated := false
	for maxBytes > 0 && len(text) > maxBytes && len(facts) > 0 {
		facts = dropDeepest(facts)
		text = assemble(facts)
		truncated = true
	}
	return ComposedPrompt{Text: text, Truncated: truncated}
}

// dropDeepest removes the last fact of the greatest remaining depth
func dropDeepest(facts []factLine) []factLine {
	maxDepth, at := -1, -1
	for i, f := range facts {
		if f.depth > maxDepth || (f.depth == maxDepth && f.seq > facts[at].seq) {
			maxDepth, at = f.depth, i
		}
	}
	return append(facts[:at:at], facts[at+1:]...)
}

// factID pulls the id=... token back out of a serialized fact line
func factID(line string) string {
	i := strings.Index(line, "id=")
	if i < 0 {
		return ""
	}
	rest := line[i+3:]
	if j := strings.IndexByte(rest, ' '); j >= 0 {
		return rest[:j]
	}
	return rest
}

func factLines(rc *domain.RetrievalContext) []factLine {
	var out []factLine
	seq := 0
	add := func(depth int, text string) {
		out = append(out, factLine{depth: depth, seq: seq, text: text})
		seq++
	}
	for _, t := range rc.Subtrees {
		add(0, fmt.Sprintf("[system] id=%s name=%q: %s", t.System.ID, t.System.Name, t.System.Description))
		for _, sd := range t.Descriptions {
			add(1, fmt.Sprintf("[system_description] id=%s system=%s name=%q: %s", sd.ID, sd.SystemID, sd.Name, sd.Text))
		}
		for _, vr := range t.Requirements {
			line := fmt.Sprintf("[verification_requirement] id=%s sd=%s: %s", vr.ID, vr.SDID, vr.Text)
			if vr.Threshold != nil {
				line += fmt.Sprintf(" (threshold: %s %g %s)", vr.Threshold.Comparator, vr.Threshold.Value, vr.Threshold.Unit)
			}
			add(2, line)
		}
		for _, vm := range t.Modules {
			line := fmt.Sprintf("[verification_module] id=%s vr=%s: %s", vm.ID, vm.VRID, vm.Method)
			if vm.Condition != "" {
				line += fmt.Sprintf(" (condition: %s)", vm.Condition)
			}
			add(3, line)
		}
	}
	return out
}

func linkLines(rc *domain.RetrievalContext) []semodel.TraceabilityLink {
	return rc.Links()
}

func paramLines(rc *domain.RetrievalContext) []string {
	out := make([]string, 0, len(rc.Parameters))
	for _, p := range rc.Parameters {
		line := fmt.Sprintf("- %s.%s = %s", p.RowKey, p.Column, p.Value)
		if p.Unit != "" {
			line += " " + p.Unit
		}
		line += fmt.Sprintf(" (table %s)", p.TableID)
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}

package synthesis

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"github.com/bhargavn/se-synth/internal/domain/semodel"
	domain "github.com/bhargavn/se-synth/internal/domain/synthesis"
)

// Visualizer renders the retrieved traceability subgraph as inline SVG.
// Output is byte-identical for identical contexts: nodes are laid out in one
// column per entity kind, sorted by id, and edges are sorted by
// (from, relation, to). Zero entities yields nil, not an error.
type Visualizer struct{}

const (
	vizNodeW    = 180
	vizNodeH    = 44
	vizVGap     = 24
	vizColGap   = 60
	vizMargin   = 40
	vizLabelMax = 26
)

var kindColumns = [4]semodel.EntityKind{
	semodel.KindSystem, semodel.KindSD, semodel.KindVR, semodel.KindVM,
}

type vizNode struct {
	id    semodel.EntityID
	kind  semodel.EntityKind
	label string
}

// Render builds the diagram for a context; nil when it has no entities
func (v *Visualizer) Render(rc *domain.RetrievalContext) []byte {
	nodes := collectNodes(rc)
	if len(nodes) == 0 {
		return nil
	}

	// Column per kind, sorted by id inside each column
	byKind := map[semodel.EntityKind][]vizNode{}
	for _, n := range nodes {
		byKind[n.kind] = append(byKind[n.kind], n)
	}
	maxRows := 0
	for _, col := range byKind {
		sort.Slice(col, func(i, j int) bool { return col[i].id < col[j].id })
		if len(col) > maxRows {
			maxRows = len(col)
		}
	}

	type point struct{ x, y int }
	pos := map[semodel.EntityID]point{}
	for ci, kind := range kindColumns {
		x := vizMargin + ci*(vizNodeW+vizColGap)
		for ri, n := range byKind[kind] {
			pos[n.id] = point{x: x, y: vizMargin + ri*(vizNodeH+vizVGap)}
		}
	}

	width := vizMargin*2 + len(kindColumns)*vizNodeW + (len(kindColumns)-1)*vizColGap
	height := vizMargin*2 + maxRows*vizNodeH + (maxRows-1)*vizVGap

	edges := append([]semodel.TraceabilityLink{}, rc.Links()...)
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Relation != b.Relation {
			return a.Relation < b.Relation
		}
		return a.To < b.To
	})

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	b.WriteString("\n")

	// Edges first so nodes overdraw them
	for _, e := range edges {
		from, okF := pos[e.From]
		to, okT := pos[e.To]
		if !okF || !okT {
			continue
		}
		x1, y1 := from.x+vizNodeW, from.y+vizNodeH/2
		x2, y2 := to.x, to.y+vizNodeH/2
		fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#8a8a8a" stroke-width="1"/>`, x1, y1, x2, y2)
		b.WriteString("\n")
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="9" fill="#8a8a8a" text-anchor="middle">%s</text>`,
			(x1+x2)/2, (y1+y2)/2-3, escape(string(e.Relation)))
		b.WriteString("\n")
	}

	for _, kind := range kindColumns {
		for _, n := range byKind[kind] {
			p := pos[n.id]
			writeShape(&b, kind, p.x, p.y)
			fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" text-anchor="middle">%s</text>`,
				p.x+vizNodeW/2, p.y+vizNodeH/2+4, escape(n.label))
			b.WriteString("\n")
		}
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

// writeShape draws the node outline; shape is keyed by entity kind
func writeShape(b *strings.Builder, kind semodel.EntityKind, x, y int) {
	switch kind {
	case semodel.KindSystem:
		fmt.Fprintf(b, `<ellipse cx="%d" cy="%d" rx="%d" ry="%d" fill="#dbe9ff" stroke="#2b5fa3"/>`,
			x+vizNodeW/2, y+vizNodeH/2, vizNodeW/2, vizNodeH/2)
	case semodel.KindSD:
		fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" fill="#e6f4e6" stroke="#3c7a3c"/>`,
			x, y, vizNodeW, vizNodeH)
	case semodel.KindVR:
		fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" rx="12" fill="#fdf3dc" stroke="#a3802b"/>`,
			x, y, vizNodeW, vizNodeH)
	case semodel.KindVM:
		fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" rx="4" fill="#f6e3e3" stroke="#a33b3b" stroke-dasharray="4 2"/>`,
			x, y, vizNodeW, vizNodeH)
	}
	b.WriteString("\n")
}

func collectNodes(rc *domain.RetrievalContext) []vizNode {
	var out []vizNode
	seen := map[semodel.EntityID]bool{}
	add := func(id semodel.EntityID, kind semodel.EntityKind, label string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, vizNode{id: id, kind: kind, label: shorten(label)})
	}
	for _, t := range rc.Subtrees {
		add(t.System.ID, semodel.KindSystem, t.System.Name)
		for _, sd := range t.Descriptions {
			add(sd.ID, semodel.KindSD, sd.Name)
		}
		for _, vr := range t.Requirements {
			add(vr.ID, semodel.KindVR, vr.Text)
		}
		for _, vm := range t.Modules {
			add(vm.ID, semodel.KindVM, vm.Method)
		}
	}
	return out
}

func shorten(s string) string {
	r := []rune(s)
	if len(r) <= vizLabelMax {
		return s
	}
	return string(r[:vizLabelMax-1]) + "…"
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s)) // never fails on a strings.Builder
	return b.String()
}

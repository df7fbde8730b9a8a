package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	domain "github.com/bhargavn/se-synth/internal/domain/semodel"
)

// GraphRepository implements semodel.GraphReader over the se_nodes/se_links
// schema populated by the ingestion tooling. All operations are SELECT-only.
type GraphRepository struct{ db *sql.DB }

func NewGraphRepository(db *sql.DB) *GraphRepository { return &GraphRepository{db: db} }

// SystemNames lists all System names in graph order
func (r *GraphRepository) SystemNames(ctx context.Context) ([]string, error) {
	const q = `SELECT name FROM se_nodes WHERE kind='system' ORDER BY ord, id;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list system names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// SystemByName resolves a System by exact name; nil when absent
func (r *GraphRepository) SystemByName(ctx context.Context, name string) (*domain.System, error) {
	const q = `
SELECT id, name, COALESCE(description, '')
FROM se_nodes
WHERE kind='system' AND name=$1
ORDER BY ord, id
LIMIT 1;`
	var s domain.System
	err := r.db.QueryRowContext(ctx, q, name).Scan(&s.ID, &s.Name, &s.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("system by name %q: %w", name, err)
	}
	return &s, nil
}

// DescriptionNames lists every SD name with its owning System id
func (r *GraphRepository) DescriptionNames(ctx context.Context) ([]domain.NamedRef, error) {
	const q = `
SELECT name, parent_id
FROM se_nodes
WHERE kind='system_description'
ORDER BY ord, id;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list description names: %w", err)
	}
	defer rows.Close()

	var refs []domain.NamedRef
	for rows.Next() {
		var ref domain.NamedRef
		if err := rows.Scan(&ref.Name, &ref.SystemID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// nodeRow is the raw shape shared by SD/VR/VM levels
type nodeRow struct {
	id        domain.EntityID
	parentID  domain.EntityID
	name      string
	text      string
	cmp       sql.NullString
	val       sql.NullFloat64
	unit      sql.NullString
	condition sql.NullString
}

func (r *GraphRepository) children(ctx context.Context, parent domain.EntityID, kind domain.EntityKind, limit int) ([]nodeRow, error) {
	const q = `
SELECT id, parent_id, name, COALESCE(description, ''),
       threshold_comparator, threshold_value, threshold_unit, condition_expr
FROM se_nodes
WHERE parent_id=$1 AND kind=$2
ORDER BY ord, id
LIMIT $3;`
	rows, err := r.db.QueryContext(ctx, q, parent, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("children of %s: %w", parent, err)
	}
	defer rows.Close()

	var out []nodeRow
	for rows.Next() {
		var n nodeRow
		if err := rows.Scan(&n.id, &n.parentID, &n.name, &n.text, &n.cmp, &n.val, &n.unit, &n.condition); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Subtree pulls the SD/VR/VM tree under a System, bounded by maxDepth levels
// and maxFanOut children per node. Depth 1 stops at SDs, 2 adds VRs, 3 adds VMs.
func (r *GraphRepository) Subtree(ctx context.Context, id domain.EntityID, maxDepth, maxFanOut int) (*domain.Subtree, error) {
	const q = `SELECT id, name, COALESCE(description, '') FROM se_nodes WHERE id=$1 AND kind='system';`
	var t domain.Subtree
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.System.ID, &t.System.Name, &t.System.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("system %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("subtree root %s: %w", id, err)
	}
	if maxDepth < 1 {
		return &t, nil
	}

	ids := []domain.EntityID{t.System.ID}

	sds, err := r.children(ctx, t.System.ID, domain.KindSD, maxFanOut)
	if err != nil {
		return nil, err
	}
	for _, n := range sds {
		t.Descriptions = append(t.Descriptions, domain.SystemDescription{
			ID: n.id, SystemID: n.parentID, Name: n.name, Text: n.text,
		})
		ids = append(ids, n.id)
	}

	if maxDepth >= 2 {
		for _, sd := range t.Descriptions {
			vrs, err := r.children(ctx, sd.ID, domain.KindVR, maxFanOut)
			if err != nil {
				return nil, err
			}
			for _, n := range vrs {
				vr := domain.VerificationRequirement{ID: n.id, SDID: n.parentID, Text: n.text}
				if vr.Text == "" {
					vr.Text = n.name
				}
				if n.cmp.Valid && n.val.Valid {
					vr.Threshold = &domain.Threshold{
						Comparator: n.cmp.String,
						Value:      n.val.Float64,
						Unit:       n.unit.String,
					}
				}
				t.Requirements = append(t.Requirements, vr)
				ids = append(ids, vr.ID)
			}
		}
	}

	if maxDepth >= 3 {
		for _, vr := range t.Requirements {
			vms, err := r.children(ctx, vr.ID, domain.KindVM, maxFanOut)
			if err != nil {
				return nil, err
			}
			for _, n := range vms {
				vm := domain.VerificationModule{ID: n.id, VRID: n.parentID, Method: n.text}
				if vm.Method == "" {
					vm.Method = n.name
				}
				if n.condition.Valid {
					vm.Condition = n.condition.String
				}
				t.Modules = append(t.Modules, vm)
				ids = append(ids, vm.ID)
			}
		}
	}

	links, err := r.linksAmong(ctx, ids)
	if err != nil {
		return nil, err
	}
	t.Links = links
	return &t, nil
}

// linksAmong returns the traceability edges whose endpoints are both in ids,
// in graph order
func (r *GraphRepository) linksAmong(ctx context.Context, ids []domain.EntityID) ([]domain.TraceabilityLink, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = string(id)
	}
	const q = `
SELECT from_id, to_id, relation
FROM se_links
WHERE from_id = ANY($1) AND to_id = ANY($1)
ORDER BY ord, from_id, to_id;`
	rows, err := r.db.QueryContext(ctx, q, pq.Array(strIDs))
	if err != nil {
		return nil, fmt.Errorf("links: %w", err)
	}
	defer rows.Close()

	var links []domain.TraceabilityLink
	for rows.Next() {
		var l domain.TraceabilityLink
		if err := rows.Scan(&l.From, &l.To, &l.Relation); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

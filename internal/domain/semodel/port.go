package semodel

import "context"

// GraphReader port (read-only access to the systems-engineering graph).
// The core never writes; population is owned by the ingestion tooling.
type GraphReader interface {
	// SystemNames returns the names of all known Systems in graph order.
	SystemNames(ctx context.Context) ([]string, error)
	// SystemByName resolves a System by exact name.
	SystemByName(ctx context.Context, name string) (*System, error)
	// DescriptionNames returns every SD name with its owning System id,
	// in graph order.
	DescriptionNames(ctx context.Context) ([]NamedRef, error)
	// Subtree pulls the SD/VR/VM tree under a System, bounded by maxDepth
	// levels below the System and maxFanOut children per node.
	Subtree(ctx context.Context, id EntityID, maxDepth, maxFanOut int) (*Subtree, error)
}

// ParameterReader port (read-only lookup over document-extracted tables)
type ParameterReader interface {
	// ByRowKey returns rows whose row_key matches the term, case-insensitive.
	ByRowKey(ctx context.Context, term string) ([]ExtractedParameter, error)
	// ByTable returns up to limit rows of one extracted table.
	ByTable(ctx context.Context, tableID string, limit int) ([]ExtractedParameter, error)
}

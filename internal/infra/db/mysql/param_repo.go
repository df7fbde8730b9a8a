package mysql

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/bhargavn/se-synth/internal/domain/semodel"
)

// ParameterRepository implements semodel.ParameterReader over the
// extracted_parameters table populated by the one-time document extraction.
type ParameterRepository struct{ db *sql.DB }

func NewParameterRepository(db *sql.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

// ByRowKey returns rows whose row_key matches the term, case-insensitive
func (r *ParameterRepository) ByRowKey(ctx context.Context, term string) ([]domain.ExtractedParameter, error) {
	const q = `
SELECT table_id, row_key, column_name, value, COALESCE(unit, '')
FROM extracted_parameters
WHERE LOWER(row_key) = LOWER(?)
ORDER BY table_id, row_key, column_name;`
	rows, err := r.db.QueryContext(ctx, q, term)
	if err != nil {
		return nil, fmt.Errorf("parameters by row key %q: %w", term, err)
	}
	defer rows.Close()
	return scanParams(rows)
}

// ByTable returns up to limit rows of one extracted table
func (r *ParameterRepository) ByTable(ctx context.Context, tableID string, limit int) ([]domain.ExtractedParameter, error) {
	if limit <= 0 {
		limit = 5
	}
	const q = `
SELECT table_id, row_key, column_name, value, COALESCE(unit, '')
FROM extracted_parameters
WHERE table_id = ?
ORDER BY row_key, column_name
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, tableID, limit)
	if err != nil {
		return nil, fmt.Errorf("parameters by table %q: %w", tableID, err)
	}
	defer rows.Close()
	return scanParams(rows)
}

func scanParams(rows *sql.Rows) ([]domain.ExtractedParameter, error) {
	var out []domain.ExtractedParameter
	for rows.Next() {
		var p domain.ExtractedParameter
		if err := rows.Scan(&p.TableID, &p.RowKey, &p.Column, &p.Value, &p.Unit); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

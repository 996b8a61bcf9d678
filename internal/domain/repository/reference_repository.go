package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"
)

type ReferenceRepository interface {
	List(ctx context.Context, kind model.ReferenceKind) ([]model.Record, error)
	Find(ctx context.Context, kind model.ReferenceKind, id int64) (model.Record, error)
}

type referenceTable struct {
	name string
	key  string
}

// Table and key names are fixed here so they are never built from input.
var referenceTables = map[model.ReferenceKind]referenceTable{
	model.KindCharacter: {name: "character_list", key: "char_id"},
	model.KindWeapon:    {name: "weapon_list", key: "weapon_id"},
}

type pgReferenceRepository struct {
	db *sql.DB
}

func NewPgReferenceRepository(db *sql.DB) ReferenceRepository {
	return &pgReferenceRepository{db: db}
}

func lookupTable(kind model.ReferenceKind) (referenceTable, error) {
	t, ok := referenceTables[kind]
	if !ok {
		return referenceTable{}, fmt.Errorf("unknown reference kind %q: %w", kind, common.ErrNotFound)
	}
	return t, nil
}

func (r *pgReferenceRepository) List(ctx context.Context, kind model.ReferenceKind) ([]model.Record, error) {
	t, err := lookupTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY %s", t.name, t.key))
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.List %s: %w", kind, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *pgReferenceRepository) Find(ctx context.Context, kind model.ReferenceKind, id int64) (model.Record, error) {
	t, err := lookupTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", t.name, t.key), id)
	if err != nil {
		return nil, fmt.Errorf("pgReferenceRepository.Find %s: %w", kind, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, common.ErrNotFound
	}
	return records[0], nil
}

// scanRecords reads every row into a column-keyed map.
func scanRecords(rows *sql.Rows) ([]model.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	records := []model.Record{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		rec := make(model.Record, len(columns))
		for i, col := range columns {
			rec[col] = normalizeValue(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

func normalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC()
	}
	return v
}

package postgres

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/poplog/store"
)

func (d *DB) UpsertSystemSetting(ctx context.Context, upsert *store.SystemSetting) (*store.SystemSetting, error) {
	stmt := `
		INSERT INTO system_setting (name, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT(name) DO UPDATE
		SET
			value = EXCLUDED.value,
			description = EXCLUDED.description
	`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.Name, upsert.Value, upsert.Description); err != nil {
		return nil, errors.Wrap(err, "failed to upsert system setting")
	}
	return upsert, nil
}

func (d *DB) ListSystemSettings(ctx context.Context, find *store.FindSystemSetting) ([]*store.SystemSetting, error) {
	query := `SELECT name, value, description FROM system_setting`
	args := []any{}
	if find.Name != "" {
		query, args = query+` WHERE name = $1`, append(args, find.Name)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query system settings")
	}
	defer rows.Close()

	list := make([]*store.SystemSetting, 0)
	for rows.Next() {
		setting := &store.SystemSetting{}
		if err := rows.Scan(&setting.Name, &setting.Value, &setting.Description); err != nil {
			return nil, errors.Wrap(err, "failed to scan system setting")
		}
		list = append(list, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

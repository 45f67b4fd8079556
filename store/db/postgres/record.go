package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/poplog/store"
)

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *DB) CreateRecord(ctx context.Context, create *store.Record) (*store.Record, error) {
	if err := insertRecord(ctx, d.db, create); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) CreateRecords(ctx context.Context, creates []*store.Record) ([]*store.Record, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	for i, create := range creates {
		if err := insertRecord(ctx, tx, create); err != nil {
			return nil, errors.Wrapf(err, "record %d of %d", i+1, len(creates))
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit records")
	}
	return creates, nil
}

func insertRecord(ctx context.Context, q rowQuerier, create *store.Record) error {
	fields := []string{"uid", "ts", "category", "origin"}
	args := []any{create.UID, create.Ts, nullCategory(create.Category), string(create.Origin)}

	if create.CreatedTs != 0 {
		fields, args = append(fields, "created_ts"), append(args, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields, args = append(fields, "updated_ts"), append(args, create.UpdatedTs)
	}

	stmt := `INSERT INTO record (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts`
	if err := q.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to create record")
	}
	return nil
}

func (d *DB) ListRecords(ctx context.Context, find *store.FindRecord) ([]*store.Record, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Origin; v != nil {
		where, args = append(where, "origin = "+placeholder(len(args)+1)), append(args, string(*v))
	}
	if v := find.StartTs; v != nil {
		where, args = append(where, "ts >= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.EndTs; v != nil {
		where, args = append(where, "ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, created_ts, updated_ts, ts, category, origin
		FROM record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ts ASC, id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query records")
	}
	defer rows.Close()

	list := make([]*store.Record, 0)
	for rows.Next() {
		var record store.Record
		var category sql.NullInt32
		var origin string
		if err := rows.Scan(
			&record.ID,
			&record.UID,
			&record.CreatedTs,
			&record.UpdatedTs,
			&record.Ts,
			&category,
			&origin,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan record")
		}
		if category.Valid {
			record.Category = store.Category(category.Int32)
		}
		record.Origin = store.Origin(origin)
		list = append(list, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateRecord(ctx context.Context, update *store.UpdateRecord) error {
	set, args := []string{}, []any{}
	if v := update.Ts; v != nil {
		set, args = append(set, "ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Category; v != nil {
		set, args = append(set, "category = "+placeholder(len(args)+1)), append(args, nullCategory(*v))
	}
	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	} else {
		set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())::BIGINT")
	}
	args = append(args, update.UID)

	stmt := `UPDATE record SET ` + strings.Join(set, ", ") + ` WHERE uid = ` + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, "failed to update record")
	}
	return expectAffected(result)
}

func (d *DB) DeleteRecord(ctx context.Context, delete *store.DeleteRecord) error {
	if delete.All {
		if _, err := d.db.ExecContext(ctx, `DELETE FROM record`); err != nil {
			return errors.Wrap(err, "failed to delete records")
		}
		return nil
	}
	if delete.UID == "" {
		return errors.New("uid required")
	}

	result, err := d.db.ExecContext(ctx, `DELETE FROM record WHERE uid = $1`, delete.UID)
	if err != nil {
		return errors.Wrap(err, "failed to delete record")
	}
	return expectAffected(result)
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrRecordNotFound
	}
	return nil
}

func nullCategory(c store.Category) sql.NullInt32 {
	if c == store.CategoryNone {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(c), Valid: true}
}

// ABOUTME: store.Backend record operations on the SQLite engine.
// ABOUTME: Upserts keep rowids so GetAll stays in first-insertion order.

package db

import (
	"context"
	"fmt"

	"github.com/harper/diary/internal/store"
)

func (d *DB) Put(ctx context.Context, c store.Collection, rec store.Record) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return mapError(putRecord(ctx, d.conn, c, rec))
}

func (d *DB) Get(ctx context.Context, c store.Collection, key string) (store.Record, error) {
	if err := c.Validate(); err != nil {
		return store.Record{}, err
	}

	var value string
	err := d.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, c), key,
	).Scan(&value)
	if err != nil {
		return store.Record{}, mapError(err)
	}
	return store.Record{Key: key, Value: []byte(value)}, nil
}

func (d *DB) GetAll(ctx context.Context, c store.Collection) ([]store.Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rows, err := d.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT key, value FROM %s ORDER BY rowid`, c),
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	var recs []store.Record
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		recs = append(recs, store.Record{Key: key, Value: []byte(value)})
	}
	return recs, rows.Err()
}

func (d *DB) Delete(ctx context.Context, c store.Collection, key string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := d.conn.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, c), key)
	return mapError(err)
}

func (d *DB) Clear(ctx context.Context, c store.Collection) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return mapError(clearTable(ctx, d.conn, c))
}

func (d *DB) Count(ctx context.Context, c store.Collection) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	var n int
	err := d.conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, c)).Scan(&n)
	return n, mapError(err)
}

// Apply runs every clear and then every put inside one transaction.
func (d *DB) Apply(ctx context.Context, b *store.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Empty() {
		return nil
	}

	err := withTx(ctx, d.conn, func(ctx context.Context, tx dbtx) error {
		for _, c := range b.Clears {
			if err := clearTable(ctx, tx, c); err != nil {
				return fmt.Errorf("clear %s: %w", c, err)
			}
		}
		for _, w := range b.Writes {
			if err := putRecord(ctx, tx, w.Collection, w.Record); err != nil {
				return fmt.Errorf("put %s/%s: %w", w.Collection, w.Record.Key, err)
			}
		}
		return nil
	})
	return mapError(err)
}

// Values go in as TEXT so json_extract indexes can read them.
func putRecord(ctx context.Context, q dbtx, c store.Collection, rec store.Record) error {
	_, err := q.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, c),
		rec.Key, string(rec.Value),
	)
	return err
}

func clearTable(ctx context.Context, q dbtx, c store.Collection) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, c))
	return err
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// edge is a unique (left, right) pair table: likes, bookmarks, follows.
type edge struct {
	table string
	left  string
	right string
}

var (
	likeEdge     = edge{table: "likes", left: "user_id", right: "post_id"}
	bookmarkEdge = edge{table: "bookmarks", left: "user_id", right: "post_id"}
	followEdge   = edge{table: "follows", left: "follower_id", right: "followee_id"}
)

func (e edge) deleteQuery() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`, e.table, e.left, e.right)
}

func (e edge) insertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (%s, %s, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`, e.table, e.left, e.right)
}

func (e edge) existsQuery() string {
	return fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s = ?)`, e.table, e.left, e.right)
}

// toggle flips the pair inside tx and reports whether it now exists.
// A concurrent insert that lands between our delete and insert is removed,
// which orders this call after the concurrent one.
func (e edge) toggle(ctx context.Context, tx *sqlx.Tx, left, right int64) (bool, error) {
	del := tx.Rebind(e.deleteQuery())

	res, err := tx.ExecContext(ctx, del, left, right)
	if err != nil {
		return false, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if removed > 0 {
		return false, nil
	}

	res, err = tx.ExecContext(ctx, tx.Rebind(e.insertQuery()), left, right, time.Now().UTC())
	if err != nil {
		return false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted > 0 {
		return true, nil
	}

	if _, err := tx.ExecContext(ctx, del, left, right); err != nil {
		return false, err
	}
	return false, nil
}

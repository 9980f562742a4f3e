package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/perfdash-backend/pkg/pagination"
)

// Base is embedded by every repository so queries share one connection and
// always carry the caller's context.
type Base struct {
	conn *gorm.DB
}

// NewBase wraps a GORM connection.
func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection scoped to ctx. A nil context yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// Tx runs fn in a transaction scoped to ctx.
func (b Base) Tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return errors.New("transaction func is required")
	}
	return b.DB(ctx).Transaction(fn)
}

// NewestFirst orders q by (created_at, id) descending and, when cursor is set,
// keeps only rows strictly after it in that order.
func NewestFirst(q *gorm.DB, cursor *pagination.Cursor) *gorm.DB {
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	return q.Order("created_at DESC").Order("id DESC")
}

// Package tx provides the transaction boundary used for multi-row writes.
package tx

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
)

var ErrNoDB = errors.New("tx: runner has nil db")

// Runner runs fn inside one transaction. fn sees the transaction through
// dbc.Tx; returning an error rolls everything back.
type Runner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormRunner struct {
	db *gorm.DB
}

func NewGormRunner(db *gorm.DB) Runner {
	return &gormRunner{db: db}
}

func (r *gormRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return ErrNoDB
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

package dao

import (
	"context"

	"github.com/zeromicro/go-zero/core/stores/kv"
	"gorm.io/gorm"
)

// Dao is the data access layer over the ledger store (MySQL) and the kv
// cache (redis). All database interaction lives here; services depend on
// the slices of it they need through their own interfaces.
type Dao struct {
	ctx context.Context

	DB      *gorm.DB
	KvStore kv.Store
}

func New(ctx context.Context, db *gorm.DB, kvStore kv.Store) *Dao {
	return &Dao{
		ctx:     ctx,
		DB:      db,
		KvStore: kvStore,
	}
}

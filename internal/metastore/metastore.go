// Package metastore persists video metadata records.
//
// Two backends exist: a pretty-printed JSON array on local disk, which is the
// format other deployments of the receiver read and write, and a Postgres
// table for deployments that already run a database.
package metastore

import (
	"context"
	"sort"

	"videohub/internal/domain"
)

// Store is the record repository used by the upload receiver and lister.
type Store interface {
	Append(ctx context.Context, rec domain.Record) error
	// List returns every record, newest first.
	List(ctx context.Context) ([]domain.Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// SortNewestFirst orders recs by uploaded_at descending. Records whose
// timestamp could not be parsed sort last; ties keep their stored order.
func SortNewestFirst(recs []domain.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].UploadedAt.Time, recs[j].UploadedAt.Time
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})
}

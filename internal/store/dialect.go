package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/lapress/pkg/types"
)

// dialect covers the SQL differences between SQLite and PostgreSQL.
// Queries are written with ? placeholders and rebound per dialect.
type dialect struct {
	name          string
	numbered      bool
	returning     bool
	createsSchema bool
}

func dialectFor(backend string) dialect {
	if backend == types.BackendPostgres {
		return dialect{name: types.BackendPostgres, numbered: true, returning: true}
	}
	return dialect{name: types.BackendSQLite, createsSchema: true}
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL. Queries
// never contain literal question marks.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// insert runs an INSERT and returns the generated key in idColumn.
func (d dialect) insert(ctx context.Context, q querier, query, idColumn string, args ...any) (int64, error) {
	if d.returning {
		var id int64
		err := q.QueryRowContext(ctx, d.rebind(query+" RETURNING "+idColumn), args...).Scan(&id)
		return id, err
	}
	res, err := q.ExecContext(ctx, d.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Package refdata fetches procedure reference tables from files, HTTP
// endpoints or SQLite, and feeds them to the procedure store.
package refdata

import (
	"context"

	"github.com/yegors/procroute/internal/procdb"
)

// Source produces the reference table of one family
type Source interface {
	Name() string
	Fetch(ctx context.Context, f procdb.Family) (procdb.Table, error)
}

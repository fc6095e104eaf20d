// Package converter orchestrates the TEI to JSON conversion of dictionary pairs.
package converter

import (
	"context"

	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

// Sink receives every written table after its JSON file is on disk.
// Save replaces any previous table stored under the same dictionary name.
// Implemented by sqlite.Store and lookuprepo.Repo.
type Sink interface {
	Save(ctx context.Context, dictionary, source string, l *domain.Lookup) error
}

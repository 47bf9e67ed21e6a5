package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphDriver is the narrow boundary to the graph database. Each
// ExecuteQuery call runs as one atomic transaction, so batch upserts
// issued as a single UNWIND query are all-or-nothing.
type GraphDriver interface {
	ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error)
	BuildIndices(ctx context.Context, labels []string) error
	Close(ctx context.Context) error
}

package driver

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jDriver talks bolt to Neo4j or Memgraph. The underlying driver
// pools connections and is safe for concurrent use across pipeline runs.
type Neo4jDriver struct {
	Driver neo4j.DriverWithContext
}

func NewNeo4jDriver(uri, username, password string) (*Neo4jDriver, error) {
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := d.VerifyConnectivity(context.Background()); err != nil {
		return nil, fmt.Errorf("graph store unreachable at %s: %w", uri, err)
	}

	log.Info("connected to graph store", "uri", uri)
	return &Neo4jDriver{Driver: d}, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

// BuildIndices creates name indices for each entity label so MERGE-on-name
// upserts stay cheap. Failures are logged, not fatal: the index usually
// already exists.
func (d *Neo4jDriver) BuildIndices(ctx context.Context, labels []string) error {
	for _, label := range labels {
		q := fmt.Sprintf("CREATE INDEX ON :%s(name);", label)
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			log.Warn("failed to create index", "label", label, "err", err)
		}
	}
	return nil
}

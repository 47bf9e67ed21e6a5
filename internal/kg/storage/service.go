// Package storage persists validated entities and relations into the
// graph store with idempotent merge-on-key semantics.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jarvislabs/kgraph/internal/driver"
	"github.com/jarvislabs/kgraph/internal/kg/model"
)

// StorageError marks a connectivity or transactional failure while
// persisting. It is always fatal to the current run: a partially
// stored graph must never be reported as success.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// Labels and relationship types are interpolated into Cypher, so they
// must stay within identifier syntax even though validation has
// already constrained them to the configured enumeration.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var logger = log.WithPrefix("storage")

// GraphService wraps the graph driver with batched upsert and read
// operations. The driver's connection pool is shared across concurrent
// pipeline runs; each batch query is one atomic transaction.
type GraphService struct {
	driver    driver.GraphDriver
	batchSize int
	timeout   time.Duration
}

func NewGraphService(d driver.GraphDriver, batchSize int, timeout time.Duration) *GraphService {
	if batchSize <= 0 {
		batchSize = 50
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GraphService{driver: d, batchSize: batchSize, timeout: timeout}
}

func (s *GraphService) UpsertEntity(ctx context.Context, e model.Entity) (string, error) {
	ids, err := s.UpsertEntitiesBatch(ctx, []model.Entity{e})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// UpsertEntitiesBatch merges entities keyed on (type, name), batched
// per type in chunks of the configured size. The returned IDs align
// with the input slice. Any driver failure aborts the remaining
// batches and is returned as a StorageError.
func (s *GraphService) UpsertEntitiesBatch(ctx context.Context, entities []model.Entity) ([]string, error) {
	ids := make([]string, len(entities))
	byType := groupIndices(len(entities), func(i int) string { return entities[i].Type })

	for label, indices := range byType {
		if !identifierPattern.MatchString(label) {
			return nil, &StorageError{Op: "entity upsert", Err: fmt.Errorf("invalid label %q", label)}
		}
		query := driver.UpsertEntitiesQuery(label)

		for _, chunk := range chunks(indices, s.batchSize) {
			rows := make([]map[string]any, 0, len(chunk))
			for _, i := range chunk {
				rows = append(rows, map[string]any{
					"name":  entities[i].Name,
					"props": entities[i].StoreProps(),
				})
			}

			result, err := s.execute(ctx, query, map[string]any{"rows": rows})
			if err != nil {
				return nil, &StorageError{Op: "entity upsert", Err: err}
			}

			idByName := make(map[string]string, len(result))
			for _, rec := range result {
				name, _ := rec["name"].(string)
				id, _ := rec["id"].(string)
				idByName[name] = id
			}
			for _, i := range chunk {
				ids[i] = idByName[entities[i].Name]
			}
		}
	}

	logger.Debug("upserted entities", "count", len(entities))
	return ids, nil
}

func (s *GraphService) UpsertRelation(ctx context.Context, r model.Relation) (string, error) {
	ids, skipped, err := s.UpsertRelationsBatch(ctx, []model.Relation{r})
	if err != nil {
		return "", err
	}
	if len(skipped) > 0 {
		return "", fmt.Errorf("%s", skipped[0])
	}
	return ids[0], nil
}

// UpsertRelationsBatch merges relations keyed on (type, from, to).
// A relation whose endpoint nodes are missing in the store matches
// nothing; it is skipped and reported rather than written dangling.
// The skipped list carries one message per dropped relation.
func (s *GraphService) UpsertRelationsBatch(ctx context.Context, relations []model.Relation) ([]string, []string, error) {
	ids := make([]string, len(relations))
	var skipped []string
	byType := groupIndices(len(relations), func(i int) string { return relations[i].Type })

	for relType, indices := range byType {
		if !identifierPattern.MatchString(relType) {
			return nil, nil, &StorageError{Op: "relation upsert", Err: fmt.Errorf("invalid relationship type %q", relType)}
		}
		query := driver.UpsertRelationsQuery(relType)

		for _, chunk := range chunks(indices, s.batchSize) {
			rows := make([]map[string]any, 0, len(chunk))
			for _, i := range chunk {
				rows = append(rows, map[string]any{
					"from":  relations[i].From,
					"to":    relations[i].To,
					"props": relations[i].StoreProps(),
				})
			}

			result, err := s.execute(ctx, query, map[string]any{"rows": rows})
			if err != nil {
				return nil, nil, &StorageError{Op: "relation upsert", Err: err}
			}

			idByEndpoints := make(map[string]string, len(result))
			for _, rec := range result {
				from, _ := rec["from"].(string)
				to, _ := rec["to"].(string)
				id, _ := rec["id"].(string)
				idByEndpoints[from+"\x00"+to] = id
			}
			for _, i := range chunk {
				r := relations[i]
				id, ok := idByEndpoints[r.From+"\x00"+r.To]
				if !ok {
					skipped = append(skipped, fmt.Sprintf(
						"relation %s(%s -> %s) skipped: endpoint missing in store", r.Type, r.From, r.To))
					continue
				}
				ids[i] = id
			}
		}
	}

	logger.Debug("upserted relations", "count", len(relations), "skipped", len(skipped))
	return ids, skipped, nil
}

// execute runs one query under the storage timeout and flattens the
// eager result into key/value maps.
func (s *GraphService) execute(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.driver.ExecuteQuery(callCtx, query, params)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		row := make(map[string]any, len(rec.Keys))
		for _, key := range rec.Keys {
			value, _ := rec.Get(key)
			row[key] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func groupIndices(n int, keyOf func(int) string) map[string][]int {
	groups := make(map[string][]int)
	for i := 0; i < n; i++ {
		key := keyOf(i)
		groups[key] = append(groups[key], i)
	}
	return groups
}

func chunks(indices []int, size int) [][]int {
	var out [][]int
	for i := 0; i < len(indices); i += size {
		end := i + size
		if end > len(indices) {
			end = len(indices)
		}
		out = append(out, indices[i:end])
	}
	return out
}

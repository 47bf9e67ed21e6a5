package storage

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MockDriver records every query and replays canned results in order.
type MockDriver struct {
	Queries []string
	Params  []map[string]any
	Results []neo4j.EagerResult
	Err     error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, query)
	m.Params = append(m.Params, params)
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	if len(m.Results) > 0 {
		result := m.Results[0]
		m.Results = m.Results[1:]
		return result, nil
	}
	return neo4j.EagerResult{}, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context, labels []string) error { return nil }

func (m *MockDriver) Close(ctx context.Context) error { return nil }

func record(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func result(records ...*neo4j.Record) neo4j.EagerResult {
	return neo4j.EagerResult{Records: records}
}

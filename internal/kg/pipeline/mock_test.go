package pipeline

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MockLLM struct {
	ResponseQueue []string
	Prompts       []string
}

func (m *MockLLM) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if len(m.ResponseQueue) == 0 {
		return "[]", nil
	}
	resp := m.ResponseQueue[0]
	m.ResponseQueue = m.ResponseQueue[1:]
	return resp, nil
}

type MockEmbedder struct {
	Vector []float32
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.Vector, nil
}

// fakeGraphDriver interprets the upsert queries against in-memory maps
// so end-to-end runs can assert on stored state and idempotency.
type fakeGraphDriver struct {
	nodes map[string]map[string]any // label + name -> props
	edges map[string]map[string]any // type + from + to -> props
	err   error
}

func newFakeGraphDriver() *fakeGraphDriver {
	return &fakeGraphDriver{
		nodes: make(map[string]map[string]any),
		edges: make(map[string]map[string]any),
	}
}

func (f *fakeGraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	if f.err != nil {
		return neo4j.EagerResult{}, f.err
	}

	switch {
	case strings.Contains(query, "MERGE (n:"):
		label := between(query, "MERGE (n:", " {")
		var records []*neo4j.Record
		for _, row := range params["rows"].([]map[string]any) {
			name := row["name"].(string)
			key := label + "|" + name
			props, _ := row["props"].(map[string]any)
			f.nodes[key] = props
			records = append(records, &neo4j.Record{
				Keys:   []string{"id", "name"},
				Values: []any{"node:" + key, name},
			})
		}
		return neo4j.EagerResult{Records: records}, nil

	case strings.Contains(query, "MERGE (from)-[r:"):
		relType := between(query, "MERGE (from)-[r:", "]")
		var records []*neo4j.Record
		for _, row := range params["rows"].([]map[string]any) {
			from := row["from"].(string)
			to := row["to"].(string)
			if !f.hasNode(from) || !f.hasNode(to) {
				continue
			}
			key := relType + "|" + from + "|" + to
			props, _ := row["props"].(map[string]any)
			f.edges[key] = props
			records = append(records, &neo4j.Record{
				Keys:   []string{"id", "from", "to"},
				Values: []any{"rel:" + key, from, to},
			})
		}
		return neo4j.EagerResult{Records: records}, nil

	case strings.Contains(query, "DETACH DELETE"):
		f.nodes = make(map[string]map[string]any)
		f.edges = make(map[string]map[string]any)
		return neo4j.EagerResult{}, nil
	}

	return neo4j.EagerResult{}, nil
}

func (f *fakeGraphDriver) BuildIndices(ctx context.Context, labels []string) error { return nil }

func (f *fakeGraphDriver) Close(ctx context.Context) error { return nil }

func (f *fakeGraphDriver) hasNode(name string) bool {
	for key := range f.nodes {
		if strings.HasSuffix(key, "|"+name) {
			return true
		}
	}
	return false
}

func between(s, after, before string) string {
	start := strings.Index(s, after)
	if start == -1 {
		return ""
	}
	s = s[start+len(after):]
	end := strings.Index(s, before)
	if end == -1 {
		return ""
	}
	return s[:end]
}

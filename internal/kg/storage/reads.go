package storage

import (
	"context"
	"fmt"

	"github.com/jarvislabs/kgraph/internal/driver"
)

// EntityRecord is a stored node as returned by lookups.
type EntityRecord struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// GraphStats summarizes the stored graph.
type GraphStats struct {
	TotalNodes          int64            `json:"total_nodes"`
	TotalRelationships  int64            `json:"total_relationships"`
	NodesByType         map[string]int64 `json:"nodes_by_type"`
	RelationshipsByType map[string]int64 `json:"relationships_by_type"`
}

// GraphSnapshot is a bounded export of nodes and edges for inspection.
type GraphSnapshot struct {
	Nodes []SnapshotNode `json:"nodes"`
	Edges []SnapshotEdge `json:"edges"`
}

type SnapshotNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

type SnapshotEdge struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Properties map[string]any `json:"properties"`
}

// GetEntityByName looks a node up by its name property. A miss returns
// (nil, nil) rather than an error.
func (s *GraphService) GetEntityByName(ctx context.Context, name string) (*EntityRecord, error) {
	rows, err := s.execute(ctx, driver.GetEntityByNameQuery, map[string]any{"name": name})
	if err != nil {
		return nil, &StorageError{Op: "entity lookup", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	id, _ := row["id"].(string)
	props, _ := row["props"].(map[string]any)
	return &EntityRecord{
		ID:         id,
		Labels:     toStringSlice(row["labels"]),
		Properties: props,
	}, nil
}

func (s *GraphService) GetGraphStats(ctx context.Context) (*GraphStats, error) {
	stats := &GraphStats{
		NodesByType:         make(map[string]int64),
		RelationshipsByType: make(map[string]int64),
	}

	rows, err := s.execute(ctx, driver.CountNodesQuery, nil)
	if err != nil {
		return nil, &StorageError{Op: "graph stats", Err: err}
	}
	if len(rows) > 0 {
		stats.TotalNodes = toInt64(rows[0]["count"])
	}

	rows, err = s.execute(ctx, driver.CountRelationshipsQuery, nil)
	if err != nil {
		return nil, &StorageError{Op: "graph stats", Err: err}
	}
	if len(rows) > 0 {
		stats.TotalRelationships = toInt64(rows[0]["count"])
	}

	rows, err = s.execute(ctx, driver.NodesByLabelQuery, nil)
	if err != nil {
		return nil, &StorageError{Op: "graph stats", Err: err}
	}
	for _, row := range rows {
		if label, ok := row["label"].(string); ok && label != "" {
			stats.NodesByType[label] = toInt64(row["count"])
		}
	}

	rows, err = s.execute(ctx, driver.RelationshipsByTypeQuery, nil)
	if err != nil {
		return nil, &StorageError{Op: "graph stats", Err: err}
	}
	for _, row := range rows {
		if relType, ok := row["type"].(string); ok && relType != "" {
			stats.RelationshipsByType[relType] = toInt64(row["count"])
		}
	}

	return stats, nil
}

// GetGraphSnapshot exports up to limit rows of the stored graph. Rows
// repeat nodes per outgoing edge, so nodes are deduplicated by element
// ID while collecting.
func (s *GraphService) GetGraphSnapshot(ctx context.Context, limit int) (*GraphSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.execute(ctx, driver.SnapshotQuery, map[string]any{"limit": limit})
	if err != nil {
		return nil, &StorageError{Op: "graph snapshot", Err: err}
	}

	snapshot := &GraphSnapshot{Nodes: []SnapshotNode{}, Edges: []SnapshotEdge{}}
	seenNodes := make(map[string]struct{})
	seenEdges := make(map[string]struct{})

	addNode := func(id any, labels any, props any) {
		nodeID, ok := id.(string)
		if !ok || nodeID == "" {
			return
		}
		if _, dup := seenNodes[nodeID]; dup {
			return
		}
		seenNodes[nodeID] = struct{}{}
		nodeProps, _ := props.(map[string]any)
		nodeType := ""
		if nodeLabels := toStringSlice(labels); len(nodeLabels) > 0 {
			nodeType = nodeLabels[0]
		}
		snapshot.Nodes = append(snapshot.Nodes, SnapshotNode{
			ID:         nodeID,
			Type:       nodeType,
			Properties: nodeProps,
		})
	}

	for _, row := range rows {
		addNode(row["node_id"], row["node_labels"], row["node_props"])
		addNode(row["target_id"], row["target_labels"], row["target_props"])

		relID, ok := row["rel_id"].(string)
		if !ok || relID == "" {
			continue
		}
		if _, dup := seenEdges[relID]; dup {
			continue
		}
		seenEdges[relID] = struct{}{}
		relType, _ := row["rel_type"].(string)
		relProps, _ := row["rel_props"].(map[string]any)
		from, _ := row["node_id"].(string)
		to, _ := row["target_id"].(string)
		snapshot.Edges = append(snapshot.Edges, SnapshotEdge{
			ID:         relID,
			Type:       relType,
			From:       from,
			To:         to,
			Properties: relProps,
		})
	}

	return snapshot, nil
}

// ClearGraph deletes every node and relationship.
func (s *GraphService) ClearGraph(ctx context.Context) error {
	if _, err := s.execute(ctx, driver.ClearGraphQuery, nil); err != nil {
		return &StorageError{Op: "graph clear", Err: err}
	}
	logger.Info("graph cleared")
	return nil
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	default:
		return nil
	}
}

func toInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

package driver

import "fmt"

// Labels and relationship types cannot be bound as parameters in Cypher,
// so the upsert queries are built per type. Callers must pass types from
// the validated enumeration only.

// UpsertEntitiesQuery merges one batch of same-label nodes keyed on name.
// Re-running it updates properties in place instead of duplicating nodes.
func UpsertEntitiesQuery(label string) string {
	return fmt.Sprintf(`
		UNWIND $rows AS row
		MERGE (n:%s {name: row.name})
		SET n += row.props
		RETURN elementId(n) AS id, row.name AS name
	`, label)
}

// UpsertRelationsQuery merges one batch of same-type edges keyed on
// (type, from, to). Rows whose endpoints are missing in the store match
// nothing and drop out of the result; the caller detects them by
// comparing returned rows against the batch.
func UpsertRelationsQuery(relType string) string {
	return fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (from {name: row.from})
		MATCH (to {name: row.to})
		MERGE (from)-[r:%s]->(to)
		SET r += row.props
		RETURN elementId(r) AS id, row.from AS from, row.to AS to
	`, relType)
}

const (
	GetEntityByNameQuery = `
		MATCH (n {name: $name})
		RETURN elementId(n) AS id, labels(n) AS labels, properties(n) AS props
		LIMIT 1
	`

	CountNodesQuery = `MATCH (n) RETURN count(n) AS count`

	CountRelationshipsQuery = `MATCH ()-[r]->() RETURN count(r) AS count`

	NodesByLabelQuery = `
		MATCH (n)
		RETURN labels(n)[0] AS label, count(n) AS count
		ORDER BY count DESC
	`

	RelationshipsByTypeQuery = `
		MATCH ()-[r]->()
		RETURN type(r) AS type, count(r) AS count
		ORDER BY count DESC
	`

	SnapshotQuery = `
		MATCH (n)
		OPTIONAL MATCH (n)-[r]->(m)
		RETURN elementId(n) AS node_id, labels(n) AS node_labels, properties(n) AS node_props,
			elementId(r) AS rel_id, type(r) AS rel_type, properties(r) AS rel_props,
			elementId(m) AS target_id, labels(m) AS target_labels, properties(m) AS target_props
		LIMIT $limit
	`

	ClearGraphQuery = `MATCH (n) DETACH DELETE n`
)

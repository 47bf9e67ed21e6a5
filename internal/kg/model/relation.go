package model

import "strings"

// Default relation type enumeration, configurable like entity types.
const (
	RelationActedIn    = "ACTED_IN"
	RelationDirected   = "DIRECTED"
	RelationProducedBy = "PRODUCED_BY"
	RelationWorksAt    = "WORKS_AT"
	RelationKnows      = "KNOWS"
	RelationRelatedTo  = "RELATED_TO"
	RelationLocatedIn  = "LOCATED_IN"
	RelationPartOf     = "PART_OF"
)

// Relation is a directed edge candidate between two named entities.
// (type, lowercased from, lowercased to) is the dedup key.
type Relation struct {
	Type       string         `json:"type"`
	From       string         `json:"from_entity"`
	To         string         `json:"to_entity"`
	FromType   string         `json:"from_entity_type,omitempty"`
	ToType     string         `json:"to_entity_type,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Source     string         `json:"source,omitempty"`
	Confidence float64        `json:"confidence"`

	StoreID string `json:"store_id,omitempty"`
}

func (r Relation) Key() string {
	return r.Type + "\x00" + strings.ToLower(r.From) + "\x00" + strings.ToLower(r.To)
}

// StoreProps returns the edge property map written to the graph store.
func (r Relation) StoreProps() map[string]any {
	props := make(map[string]any, len(r.Properties)+2)
	for k, v := range r.Properties {
		props[k] = v
	}
	props["confidence"] = r.Confidence
	if r.Source != "" {
		props["source"] = r.Source
	}
	return props
}

func CountRelationsByType(relations []Relation) map[string]int {
	counts := make(map[string]int)
	for _, r := range relations {
		counts[r.Type]++
	}
	return counts
}
